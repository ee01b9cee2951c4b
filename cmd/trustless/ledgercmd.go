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
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/core/rawdb"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/internal/trustapi"
	"github.com/probeum/go-trustless/trust"
	"github.com/probeum/go-trustless/trustdb"
	"gopkg.in/urfave/cli.v1"
)

var (
	keyFlag = cli.StringSliceFlag{
		Name:  "key",
		Usage: "Private key file to sign with (may be repeated)",
	}
	fromFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "First log sequence number to show",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of logs to show",
		Value: 50,
	}

	initCommand = cli.Command{
		Action:    initGenesis,
		Name:      "init",
		Usage:     "Bootstrap and initialize a new ledger",
		ArgsUsage: "<genesisPath>",
		Category:  "LEDGER COMMANDS",
		Description: `
The init command initializes a new ledger database with the token accounts of
the genesis file. It fails if the database already holds a different genesis.`,
	}
	applyCommand = cli.Command{
		Action:    applyTransaction,
		Name:      "apply",
		Usage:     "Apply a transaction to the local ledger",
		ArgsUsage: "<txFile>",
		Flags:     []cli.Flag{keyFlag},
		Category:  "LEDGER COMMANDS",
		Description: `
The apply command reads a JSON transaction ("-" for standard input), adds the
signatures of the given keys and applies it to the ledger in the data directory.
The ledger must not be served by a running instance.`,
	}
	inspectCommand = cli.Command{
		Name:     "inspect",
		Usage:    "Inspect the ledger database",
		Category: "LEDGER COMMANDS",
		Subcommands: []cli.Command{
			{
				Action:    inspectAgent,
				Name:      "agent",
				Usage:     "Show the reputation of an agent",
				ArgsUsage: "<agentAddress>",
			},
			{
				Action:    inspectRecord,
				Name:      "record",
				Usage:     "Show the record stored at an address",
				ArgsUsage: "<address>",
			},
			{
				Action:    inspectReceipt,
				Name:      "receipt",
				Usage:     "Show the receipt of a transaction",
				ArgsUsage: "<txHash>",
			},
			{
				Action: inspectLogs,
				Name:   "logs",
				Usage:  "List registry notifications in ledger order",
				Flags:  []cli.Flag{fromFlag, limitFlag},
			},
		},
	}
)

// initGenesis will initialise the given JSON format genesis file and writes it
// as the zero'd state of the ledger.
func initGenesis(ctx *cli.Context) error {
	genesisPath := ctx.Args().First()
	if len(genesisPath) == 0 {
		Fatalf("Must supply path to genesis JSON file")
	}
	genesis, err := core.ReadGenesis(genesisPath)
	if err != nil {
		Fatalf("Failed to read genesis file: %v", err)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Trust.DataDir == "" {
		Fatalf("Refusing to initialise an in-memory ledger")
	}
	db, err := trust.OpenDatabase(&cfg.Trust, false)
	if err != nil {
		Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	hash, err := core.SetupGenesis(db, genesis)
	if err != nil {
		Fatalf("Failed to write genesis: %v", err)
	}
	log.Info("Successfully wrote genesis state", "hash", hash, "accounts", len(genesis.Accounts))
	return nil
}

// readTransaction reads a JSON transaction from path, "-" meaning stdin.
func readTransaction(path string) (*types.Transaction, error) {
	var (
		r   io.Reader = os.Stdin
		err error
	)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var args trustapi.TransactionArgs
	if err = json.NewDecoder(r).Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid transaction: %v", err)
	}
	return args.ToTransaction()
}

// loadKeys loads the private keys named by the key flag.
func loadKeys(ctx *cli.Context) ([]*ecdsa.PrivateKey, error) {
	var keys []*ecdsa.PrivateKey
	for _, file := range ctx.StringSlice(keyFlag.Name) {
		key, err := crypto.LoadECDSA(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load key %s: %v", file, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func applyTransaction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		Fatalf("Must supply a transaction file")
	}
	tx, err := readTransaction(ctx.Args().First())
	if err != nil {
		return err
	}
	keys, err := loadKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := types.SignTx(tx, key); err != nil {
			return err
		}
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	cfg.Trust.HTTPHost = ""
	service, err := trust.New(&cfg.Trust)
	if err != nil {
		return err
	}
	defer service.Stop()

	receipt, err := service.Ledger().Submit(context.Background(), tx)
	if err != nil {
		return err
	}
	printReceipt(os.Stdout, receipt)
	return nil
}

func openReadOnly(ctx *cli.Context) (*ledgerView, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Trust.DataDir == "" {
		return nil, errors.New("no data directory")
	}
	db, err := trust.OpenDatabase(&cfg.Trust, true)
	if err != nil {
		return nil, err
	}
	if rawdb.ReadGenesisState(db) == (common.Hash{}) {
		db.Close()
		return nil, errors.New("ledger not initialised, run init first")
	}
	return &ledgerView{db: db, program: cfg.Trust.Registry.ProgramAddress}, nil
}

// ledgerView reads committed ledger data straight from the database.
type ledgerView struct {
	db      trustdb.Database
	program common.Address
}

func (v *ledgerView) record(addr common.Address) (types.Record, error) {
	enc := rawdb.ReadRecord(v.db, addr)
	if len(enc) == 0 {
		return nil, nil
	}
	return types.DecodeRecord(enc)
}

func inspectAgent(ctx *cli.Context) error {
	agent, err := addressArg(ctx)
	if err != nil {
		return err
	}
	view, err := openReadOnly(ctx)
	if err != nil {
		return err
	}
	defer view.db.Close()

	return showRecord(view, registry.AgentAddress(view.program, agent))
}

func inspectRecord(ctx *cli.Context) error {
	addr, err := addressArg(ctx)
	if err != nil {
		return err
	}
	view, err := openReadOnly(ctx)
	if err != nil {
		return err
	}
	defer view.db.Close()

	return showRecord(view, addr)
}

func showRecord(view *ledgerView, addr common.Address) error {
	rec, err := view.record(addr)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no record at %x", addr)
	}
	fields := trustapi.RPCMarshalRecord(rec)
	fields["address"] = addr

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	for _, k := range keys {
		table.Append([]string{k, formatValue(fields[k])})
	}
	table.Render()
	return nil
}

func formatValue(v interface{}) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	enc, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.Trim(string(enc), `"`)
}

func inspectReceipt(ctx *cli.Context) error {
	var hash common.Hash
	if err := hash.UnmarshalText([]byte(ctx.Args().First())); err != nil {
		return fmt.Errorf("invalid transaction hash: %v", err)
	}
	view, err := openReadOnly(ctx)
	if err != nil {
		return err
	}
	defer view.db.Close()

	receipt := rawdb.ReadReceipt(view.db, hash)
	if receipt == nil {
		return fmt.Errorf("unknown transaction %x", hash)
	}
	printReceipt(os.Stdout, receipt)
	return nil
}

func inspectLogs(ctx *cli.Context) error {
	view, err := openReadOnly(ctx)
	if err != nil {
		return err
	}
	defer view.db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Tx", "Ix", "Event", "Agent"})
	for _, l := range rawdb.ReadLogs(view.db, ctx.Uint64(fromFlag.Name), ctx.Int(limitFlag.Name)) {
		name := "unknown"
		if l.Address == view.program {
			if ev, err := registry.ParseEvent(l); err == nil {
				name = ev.EventName()
			}
		}
		agent := ""
		if len(l.Topics) > 1 {
			agent = common.BytesToAddress(l.Topics[1].Bytes()).Hex()
		}
		table.Append([]string{fmt.Sprint(l.Sequence), l.TxHash.TerminalString(), fmt.Sprint(l.InstructionIndex), name, agent})
	}
	table.Render()
	return nil
}

// printReceipt writes a human readable receipt, colored on terminals.
func printReceipt(w io.Writer, receipt *types.Receipt) {
	status := color.GreenString("success")
	if !receipt.Succeeded() {
		status = color.RedString("failed at instruction %d: %s", receipt.FailedInstruction, receipt.Error)
	}
	fmt.Fprintf(w, "Transaction %s\n", receipt.TxHash.Hex())
	fmt.Fprintf(w, "Status      %s\n", status)
	fmt.Fprintf(w, "State root  %s\n", receipt.StateRoot.Hex())
	for _, l := range receipt.Logs {
		ev, err := registry.ParseEvent(l)
		if err != nil {
			fmt.Fprintf(w, "  log %d: %x\n", l.Index, l.Data)
			continue
		}
		fmt.Fprintf(w, "  %s %+v\n", color.CyanString(ev.EventName()), ev)
	}
}

func addressArg(ctx *cli.Context) (common.Address, error) {
	arg := ctx.Args().First()
	if !common.IsHexAddress(arg) {
		return common.Address{}, fmt.Errorf("invalid address %q", arg)
	}
	return common.HexToAddress(arg), nil
}
