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

package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/probeum/go-trustless/trustdb"
)

// ReadRecord retrieves the stored encoding of the record at addr, or nil if
// there is none.
func ReadRecord(db trustdb.KeyValueReader, addr common.Address) []byte {
	data, _ := db.Get(recordKey(addr))
	return data
}

// HasRecord checks if a record is stored at addr.
func HasRecord(db trustdb.KeyValueReader, addr common.Address) bool {
	ok, _ := db.Has(recordKey(addr))
	return ok
}

// WriteRecord stores the encoding of the record at addr.
func WriteRecord(db trustdb.KeyValueWriter, addr common.Address, enc []byte) {
	if err := db.Put(recordKey(addr), enc); err != nil {
		log.Crit("Failed to store record", "address", addr, "err", err)
	}
	recordWriteCounter.Inc(1)
}

// IterateRecords calls fn for every stored record, in address order, until fn
// returns false.
func IterateRecords(db trustdb.Iteratee, fn func(addr common.Address, enc []byte) bool) error {
	it := db.NewIterator(recordPrefix)
	defer it.Release()

	for it.Next() {
		key := it.Key()
		if len(key) != len(recordPrefix)+common.AddressLength {
			continue
		}
		if !fn(common.BytesToAddress(key[len(recordPrefix):]), common.CopyBytes(it.Value())) {
			break
		}
	}
	return it.Error()
}

// ReadHeadStateRoot retrieves the state root of the latest commit.
func ReadHeadStateRoot(db trustdb.KeyValueReader) common.Hash {
	data, _ := db.Get(headStateRootKey)
	if len(data) != common.HashLength {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadStateRoot stores the state root of the latest commit.
func WriteHeadStateRoot(db trustdb.KeyValueWriter, root common.Hash) {
	if err := db.Put(headStateRootKey, root.Bytes()); err != nil {
		log.Crit("Failed to store head state root", "err", err)
	}
}

// ReadGenesisState retrieves the hash of the genesis the ledger was
// initialised with.
func ReadGenesisState(db trustdb.KeyValueReader) common.Hash {
	data, _ := db.Get(genesisStateKey)
	if len(data) != common.HashLength {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteGenesisState stores the hash of the genesis.
func WriteGenesisState(db trustdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(genesisStateKey, hash.Bytes()); err != nil {
		log.Crit("Failed to store genesis hash", "err", err)
	}
}
