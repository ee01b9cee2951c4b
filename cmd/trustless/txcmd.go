// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/token"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/internal/trustapi"
	"gopkg.in/urfave/cli.v1"
)

var (
	nonceFlag = cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Transaction nonce, distinguishes otherwise identical transactions",
	}
	agentFlag = cli.StringFlag{
		Name:  "agent",
		Usage: "Agent address (defaults to the first key)",
	}
	clientFlag = cli.StringFlag{
		Name:  "client",
		Usage: "Client address (defaults to the first key)",
	}
	metadataFlag = cli.StringFlag{
		Name:  "metadata",
		Usage: "Agent metadata URI",
	}
	refFlag = cli.StringFlag{
		Name:  "ref",
		Usage: "32 byte payment reference",
	}
	amountFlag = cli.Uint64Flag{
		Name:  "amount",
		Usage: "Payment amount in token base units",
	}
	mintFlag = cli.StringFlag{
		Name:  "mint",
		Usage: "Token mint of the payment",
	}
	ratingFlag = cli.UintFlag{
		Name:  "rating",
		Usage: "Feedback rating between 1 and 5",
	}
	commentFlag = cli.StringFlag{
		Name:  "comment",
		Usage: "Feedback comment URI",
	}

	txFlags = []cli.Flag{nonceFlag, keyFlag}

	txCommand = cli.Command{
		Name:     "tx",
		Usage:    "Build registry transactions",
		Category: "TRANSACTION COMMANDS",
		Description: `
The tx commands print a JSON transaction for a registry operation, signed by
the given keys. The output can be passed to apply or posted to /tx.`,
		Subcommands: []cli.Command{
			{
				Action: buildTx(registerAgentTx),
				Name:   "register-agent",
				Usage:  "Register an agent",
				Flags:  append([]cli.Flag{agentFlag, metadataFlag}, txFlags...),
			},
			{
				Action: buildTx(updateAgentTx),
				Name:   "update-agent",
				Usage:  "Replace the metadata of an agent",
				Flags:  append([]cli.Flag{agentFlag, metadataFlag}, txFlags...),
			},
			{
				Action: buildTx(deactivateAgentTx),
				Name:   "deactivate-agent",
				Usage:  "Deactivate an agent",
				Flags:  append([]cli.Flag{agentFlag}, txFlags...),
			},
			{
				Action: buildTx(registerJobTx),
				Name:   "register-job",
				Usage:  "Pay an agent and record the job",
				Flags:  append([]cli.Flag{clientFlag, agentFlag, refFlag, amountFlag, mintFlag}, txFlags...),
			},
			{
				Action: buildTx(submitFeedbackTx),
				Name:   "submit-feedback",
				Usage:  "Rate the agent of a paid job",
				Flags:  append([]cli.Flag{clientFlag, agentFlag, refFlag, ratingFlag, commentFlag}, txFlags...),
			},
		},
	}
	keygenCommand = cli.Command{
		Action:    keygen,
		Name:      "keygen",
		Usage:     "Generate a new signing key",
		ArgsUsage: "<keyfile>",
		Category:  "TRANSACTION COMMANDS",
	}
)

// txBuilder returns the instructions of a registry operation.
type txBuilder func(ctx *cli.Context, program, tokenProgram common.Address, keys []*ecdsa.PrivateKey) ([]*types.Instruction, error)

// buildTx wraps a txBuilder into a command printing the signed transaction.
func buildTx(build txBuilder) func(ctx *cli.Context) error {
	return func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		keys, err := loadKeys(ctx)
		if err != nil {
			return err
		}
		ixs, err := build(ctx, cfg.Trust.Registry.ProgramAddress, cfg.Trust.Registry.TokenProgram, keys)
		if err != nil {
			return err
		}
		tx := types.NewTransaction(ctx.Uint64(nonceFlag.Name), ixs...)
		for _, key := range keys {
			if _, err := types.SignTx(tx, key); err != nil {
				return err
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trustapi.NewTransactionArgs(tx))
	}
}

// party resolves an address flag, falling back to the first key.
func party(ctx *cli.Context, flag cli.StringFlag, keys []*ecdsa.PrivateKey) (common.Address, error) {
	if arg := ctx.String(flag.Name); arg != "" {
		if !common.IsHexAddress(arg) {
			return common.Address{}, fmt.Errorf("invalid --%s address %q", flag.Name, arg)
		}
		return common.HexToAddress(arg), nil
	}
	if len(keys) == 0 {
		return common.Address{}, fmt.Errorf("missing --%s", flag.Name)
	}
	return crypto.PubkeyToAddress(keys[0].PublicKey), nil
}

func paymentRef(ctx *cli.Context) (common.Hash, error) {
	var ref common.Hash
	if err := ref.UnmarshalText([]byte(ctx.String(refFlag.Name))); err != nil {
		return ref, fmt.Errorf("invalid --%s: %v", refFlag.Name, err)
	}
	return ref, nil
}

func registerAgentTx(ctx *cli.Context, program, _ common.Address, keys []*ecdsa.PrivateKey) ([]*types.Instruction, error) {
	agent, err := party(ctx, agentFlag, keys)
	if err != nil {
		return nil, err
	}
	return []*types.Instruction{registry.NewRegisterAgent(program, agent, ctx.String(metadataFlag.Name))}, nil
}

func updateAgentTx(ctx *cli.Context, program, _ common.Address, keys []*ecdsa.PrivateKey) ([]*types.Instruction, error) {
	agent, err := party(ctx, agentFlag, keys)
	if err != nil {
		return nil, err
	}
	return []*types.Instruction{registry.NewUpdateAgent(program, agent, ctx.String(metadataFlag.Name))}, nil
}

func deactivateAgentTx(ctx *cli.Context, program, _ common.Address, keys []*ecdsa.PrivateKey) ([]*types.Instruction, error) {
	agent, err := party(ctx, agentFlag, keys)
	if err != nil {
		return nil, err
	}
	return []*types.Instruction{registry.NewDeactivateAgent(program, agent)}, nil
}

// registerJobTx pays the agent and registers the job in one transaction, the
// transfer being the proof of payment at index 0.
func registerJobTx(ctx *cli.Context, program, tokenProgram common.Address, keys []*ecdsa.PrivateKey) ([]*types.Instruction, error) {
	client, err := party(ctx, clientFlag, keys)
	if err != nil {
		return nil, err
	}
	if !ctx.IsSet(agentFlag.Name) {
		return nil, fmt.Errorf("missing --%s", agentFlag.Name)
	}
	agent, err := party(ctx, agentFlag, nil)
	if err != nil {
		return nil, err
	}
	ref, err := paymentRef(ctx)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(ctx.String(mintFlag.Name)) {
		return nil, fmt.Errorf("invalid --%s address %q", mintFlag.Name, ctx.String(mintFlag.Name))
	}
	mint := common.HexToAddress(ctx.String(mintFlag.Name))

	var (
		clientToken = token.AccountAddress(tokenProgram, client, mint)
		agentToken  = token.AccountAddress(tokenProgram, agent, mint)
	)
	return []*types.Instruction{
		token.NewTransfer(tokenProgram, clientToken, agentToken, client, ctx.Uint64(amountFlag.Name)),
		registry.NewRegisterJob(program, client, agent, ref, clientToken, agentToken, 0),
	}, nil
}

func submitFeedbackTx(ctx *cli.Context, program, _ common.Address, keys []*ecdsa.PrivateKey) ([]*types.Instruction, error) {
	client, err := party(ctx, clientFlag, keys)
	if err != nil {
		return nil, err
	}
	if !ctx.IsSet(agentFlag.Name) {
		return nil, fmt.Errorf("missing --%s", agentFlag.Name)
	}
	agent, err := party(ctx, agentFlag, nil)
	if err != nil {
		return nil, err
	}
	ref, err := paymentRef(ctx)
	if err != nil {
		return nil, err
	}
	rating := ctx.Uint(ratingFlag.Name)
	if rating > 255 {
		return nil, fmt.Errorf("rating %d out of range", rating)
	}
	return []*types.Instruction{registry.NewSubmitFeedback(program, client, agent, ref, uint8(rating), ctx.String(commentFlag.Name))}, nil
}

// keygen creates a new secp256k1 key, stores it hex encoded in the key file
// and prints its address.
func keygen(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "" {
		Fatalf("Must supply a key file")
	}
	if _, err := os.Stat(file); err == nil {
		Fatalf("Key file %s already exists", file)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveECDSA(file, key); err != nil {
		return err
	}
	fmt.Printf("Address: %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())
	return nil
}
