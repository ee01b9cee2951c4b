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

package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/probeum/go-trustless/core/types"
)

// stateObject is a record which is being read or modified.
type stateObject struct {
	address common.Address
	record  types.Record

	// origin is the committed encoding of the record, nil if the record was
	// created since the last commit.
	origin []byte
}

func newObject(address common.Address, record types.Record, origin []byte) *stateObject {
	return &stateObject{
		address: address,
		record:  record,
		origin:  origin,
	}
}

// encode returns the storage encoding of the current record.
func (s *stateObject) encode() ([]byte, error) {
	return types.EncodeRecord(s.record)
}

// leafHash is the contribution of a stored record to the state root.
func leafHash(addr common.Address, enc []byte) common.Hash {
	return crypto.Keccak256Hash(addr[:], enc)
}

// xorHash folds a leaf into an accumulated root. Every leaf is folded in
// exactly once, so the root does not depend on insertion order and removing
// a leaf is folding it again.
func xorHash(root common.Hash, leaf common.Hash) common.Hash {
	for i := range root {
		root[i] ^= leaf[i]
	}
	return root
}
