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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
)

// The fields below define the low level database schema prefixing.
var (
	// headStateRootKey tracks the state root of the latest commit.
	headStateRootKey = []byte("LastStateRoot")

	// logSequenceKey tracks the sequence number of the next emitted log.
	logSequenceKey = []byte("LogSequence")

	recordPrefix    = []byte("r") // recordPrefix + address -> record
	receiptPrefix   = []byte("t") // receiptPrefix + tx hash -> receipt
	txLogsPrefix    = []byte("l") // txLogsPrefix + tx hash -> snappy(logs)
	logIndexPrefix  = []byte("s") // logIndexPrefix + sequence (uint64 big endian) -> tx hash
	txLookupPrefix  = []byte("p") // txLookupPrefix + signing hash -> tx hash
	genesisStateKey = []byte("GenesisState")
)

var (
	recordWriteCounter = metrics.NewRegisteredCounter("db/record/write", nil)
	logWriteCounter    = metrics.NewRegisteredCounter("db/log/write", nil)
)

// encodeSequence encodes a log sequence number as big endian uint64
func encodeSequence(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// recordKey = recordPrefix + address
func recordKey(addr common.Address) []byte {
	return append(append([]byte{}, recordPrefix...), addr.Bytes()...)
}

// receiptKey = receiptPrefix + hash
func receiptKey(hash common.Hash) []byte {
	return append(append([]byte{}, receiptPrefix...), hash.Bytes()...)
}

// txLogsKey = txLogsPrefix + hash
func txLogsKey(hash common.Hash) []byte {
	return append(append([]byte{}, txLogsPrefix...), hash.Bytes()...)
}

// logIndexKey = logIndexPrefix + sequence (uint64 big endian)
func logIndexKey(seq uint64) []byte {
	return append(append([]byte{}, logIndexPrefix...), encodeSequence(seq)...)
}

// txLookupKey = txLookupPrefix + signing hash
func txLookupKey(sigHash common.Hash) []byte {
	return append(append([]byte{}, txLookupPrefix...), sigHash.Bytes()...)
}
