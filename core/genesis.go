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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/probeum/go-trustless/core/rawdb"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/token"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trustdb"
)

// GenesisAccount is a token account funded at ledger creation. The account
// lives at the associated address of (Owner, Mint).
type GenesisAccount struct {
	Owner   common.Address `json:"owner"`
	Mint    common.Address `json:"mint"`
	Balance uint64         `json:"balance"`
}

type genesisAccountJSON struct {
	Owner   common.Address `json:"owner"`
	Mint    common.Address `json:"mint"`
	Balance hexutil.Uint64 `json:"balance"`
}

// MarshalJSON implements json.Marshaler.
func (a GenesisAccount) MarshalJSON() ([]byte, error) {
	return json.Marshal(genesisAccountJSON{a.Owner, a.Mint, hexutil.Uint64(a.Balance)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *GenesisAccount) UnmarshalJSON(input []byte) error {
	var dec genesisAccountJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*a = GenesisAccount{dec.Owner, dec.Mint, uint64(dec.Balance)}
	return nil
}

// Genesis specifies the initial token accounts of a ledger.
type Genesis struct {
	TokenProgram common.Address   `json:"tokenProgram"`
	Accounts     []GenesisAccount `json:"accounts"`
}

// DefaultGenesis returns an empty genesis using the default token program.
func DefaultGenesis() *Genesis {
	return &Genesis{TokenProgram: params.TokenProgramAddress}
}

// ReadGenesis loads a genesis from a JSON file.
func ReadGenesis(path string) (*Genesis, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	genesis := new(Genesis)
	if err := json.NewDecoder(file).Decode(genesis); err != nil {
		return nil, fmt.Errorf("invalid genesis file: %v", err)
	}
	if genesis.TokenProgram == (common.Address{}) {
		genesis.TokenProgram = params.TokenProgramAddress
	}
	return genesis, nil
}

// Hash identifies the genesis.
func (g *Genesis) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(g)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Commit writes the genesis accounts into an empty database.
func (g *Genesis) Commit(db trustdb.Database) (common.Hash, error) {
	statedb := state.New(state.NewDatabase(db))
	for _, acc := range g.Accounts {
		addr := token.AccountAddress(g.TokenProgram, acc.Owner, acc.Mint)
		rec := &types.TokenAccount{Mint: acc.Mint, Owner: acc.Owner, Amount: acc.Balance}
		if err := statedb.CreateRecord(addr, rec); err != nil {
			return common.Hash{}, fmt.Errorf("genesis account %x: %w", addr, err)
		}
	}
	batch := db.NewBatch()
	root, err := statedb.CommitTo(batch)
	if err != nil {
		return common.Hash{}, err
	}
	rawdb.WriteGenesisState(batch, g.Hash())
	if err := batch.Write(); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// SetupGenesis writes genesis into db unless the database was already
// initialised. A nil genesis opens an existing database as is, or initialises
// an empty one with the default genesis.
func SetupGenesis(db trustdb.Database, genesis *Genesis) (common.Hash, error) {
	stored := rawdb.ReadGenesisState(db)
	if stored == (common.Hash{}) {
		if genesis == nil {
			log.Info("Writing default genesis")
			genesis = DefaultGenesis()
		} else {
			log.Info("Writing custom genesis", "accounts", len(genesis.Accounts))
		}
		root, err := genesis.Commit(db)
		if err != nil {
			return common.Hash{}, err
		}
		log.Info("Initialised ledger", "genesis", genesis.Hash(), "root", root)
		return genesis.Hash(), nil
	}
	if genesis != nil && genesis.Hash() != stored {
		return stored, fmt.Errorf("%w: database has %x, have %x", ErrGenesisMismatch, stored, genesis.Hash())
	}
	return stored, nil
}

var errNoGenesis = errors.New("ledger not initialised")
