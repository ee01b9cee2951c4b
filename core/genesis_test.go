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
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/rawdb"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/trustdb/leveldb"
)

func TestSetupGenesis(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	hash, err := SetupGenesis(db, testGenesis)
	if err != nil {
		t.Fatalf("failed to set up genesis: %v", err)
	}
	if hash != testGenesis.Hash() {
		t.Fatalf("genesis hash mismatch: have %x, want %x", hash, testGenesis.Hash())
	}
	statedb := state.New(state.NewDatabase(db))
	acc, ok := statedb.GetRecord(clientToken).(*types.TokenAccount)
	if !ok || acc.Amount != 10000000 || acc.Owner != clientAddr || acc.Mint != testMint {
		t.Fatalf("client account mismatch: %+v", acc)
	}
	if statedb.Root() != rawdb.ReadHeadStateRoot(db) {
		t.Fatal("state root not persisted")
	}

	// Reopening with the same or no genesis is fine, another one is not.
	if _, err := SetupGenesis(db, testGenesis); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if stored, err := SetupGenesis(db, nil); err != nil || stored != hash {
		t.Fatalf("reopen without genesis failed: %x %v", stored, err)
	}
	if _, err := SetupGenesis(db, DefaultGenesis()); !errors.Is(err, ErrGenesisMismatch) {
		t.Fatalf("expected genesis mismatch, got %v", err)
	}
}

func TestSetupDefaultGenesis(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	hash, err := SetupGenesis(db, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hash != DefaultGenesis().Hash() {
		t.Fatalf("default genesis hash mismatch")
	}
}

func TestReadGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	blob := []byte(`{"accounts": [{"owner": "0x00000000000000000000000000000000000000aa", "mint": "0x00000000000000000000000000000000000000bb", "balance": "0x64"}]}`)
	if err := ioutil.WriteFile(path, blob, 0644); err != nil {
		t.Fatal(err)
	}
	genesis, err := ReadGenesis(path)
	if err != nil {
		t.Fatalf("failed to read genesis: %v", err)
	}
	if genesis.TokenProgram != tokenAddr {
		t.Fatalf("token program not defaulted: %x", genesis.TokenProgram)
	}
	if len(genesis.Accounts) != 1 || genesis.Accounts[0].Balance != 100 {
		t.Fatalf("accounts mismatch: %+v", genesis.Accounts)
	}
	if _, err := ReadGenesis(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestGenesisDuplicateAccount(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	genesis := &Genesis{
		TokenProgram: tokenAddr,
		Accounts:     []GenesisAccount{testGenesis.Accounts[0], testGenesis.Accounts[0]},
	}
	if _, err := SetupGenesis(db, genesis); err == nil {
		t.Fatal("duplicate genesis account accepted")
	}
	if rawdb.ReadGenesisState(db) != (common.Hash{}) {
		t.Fatal("failed genesis left a marker")
	}
}
