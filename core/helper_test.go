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

package core

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/token"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trustdb"
	"github.com/probeum/go-trustless/trustdb/leveldb"
)

var (
	agentKey, _  = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	clientKey, _ = crypto.HexToECDSA("8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a")

	agentAddr  = crypto.PubkeyToAddress(agentKey.PublicKey)
	clientAddr = crypto.PubkeyToAddress(clientKey.PublicKey)

	testMint     = common.HexToAddress("0x00000000000000000000000000000000006d696e")
	registryAddr = params.RegistryProgramAddress
	tokenAddr    = params.TokenProgramAddress

	clientToken = token.AccountAddress(tokenAddr, clientAddr, testMint)
	agentToken  = token.AccountAddress(tokenAddr, agentAddr, testMint)

	testGenesis = &Genesis{
		TokenProgram: tokenAddr,
		Accounts: []GenesisAccount{
			{Owner: clientAddr, Mint: testMint, Balance: 10000000},
			{Owner: agentAddr, Mint: testMint},
		},
	}
	testTime = time.Unix(1700000000, 0)
)

// newTestDB returns an in-memory database initialised with the test genesis.
func newTestDB(t *testing.T) trustdb.Database {
	db := leveldb.NewMemory()
	t.Cleanup(func() { db.Close() })
	if _, err := SetupGenesis(db, testGenesis); err != nil {
		t.Fatalf("failed to write genesis: %v", err)
	}
	return db
}

func newTestLedger(t *testing.T, db trustdb.Database) *Ledger {
	config := DefaultLedgerConfig
	config.Clock = func() time.Time { return testTime }
	ledger, err := NewLedger(db, config)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(ledger.Stop)
	return ledger
}

func signTx(t *testing.T, nonce uint64, ixs []*types.Instruction, keys ...*ecdsa.PrivateKey) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, ixs...)
	for _, key := range keys {
		if _, err := types.SignTx(tx, key); err != nil {
			t.Fatal(err)
		}
	}
	return tx
}

func submit(t *testing.T, ledger *Ledger, tx *types.Transaction) *types.Receipt {
	t.Helper()
	receipt, err := ledger.Submit(context.Background(), tx)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return receipt
}

func paidJob(ref common.Hash, amount uint64) []*types.Instruction {
	return []*types.Instruction{
		token.NewTransfer(tokenAddr, clientToken, agentToken, clientAddr, amount),
		registry.NewRegisterJob(registryAddr, clientAddr, agentAddr, ref, clientToken, agentToken, 0),
	}
}

func rate(ref common.Hash, rating uint8) []*types.Instruction {
	return []*types.Instruction{registry.NewSubmitFeedback(registryAddr, clientAddr, agentAddr, ref, rating, "")}
}

func registerAgent(metadata string) []*types.Instruction {
	return []*types.Instruction{registry.NewRegisterAgent(registryAddr, agentAddr, metadata)}
}

func updateAgent(metadata string) []*types.Instruction {
	return []*types.Instruction{registry.NewUpdateAgent(registryAddr, agentAddr, metadata)}
}
