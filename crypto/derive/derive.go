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

// Package derive implements the deterministic addressing scheme of ledger
// records. Every record lives at an address that is a pure function of the
// owning program, a namespace tag and a key, so no index is needed to find it
// and the collision check of the state database enforces uniqueness.
package derive

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Version is mixed into every derived address. It must never change, all
// stored records are addressed under it.
const Version = byte(1)

// Address derives the record address of key within namespace of program.
// The preimage is version || program || len(namespace) || namespace || key,
// hashed with Keccak256; the last 20 bytes form the address.
func Address(program common.Address, namespace string, key []byte) common.Address {
	if len(namespace) > 255 {
		panic("derive: namespace too long")
	}
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte{Version})
	d.Write(program[:])
	d.Write([]byte{byte(len(namespace))})
	d.Write([]byte(namespace))
	d.Write(key)
	return common.BytesToAddress(d.Sum(nil)[12:])
}

// Addresses derives the address of a key made of several parts, concatenated.
func Addresses(program common.Address, namespace string, parts ...[]byte) common.Address {
	var key []byte
	for _, p := range parts {
		key = append(key, p...)
	}
	return Address(program, namespace, key)
}
