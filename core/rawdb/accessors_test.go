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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/trustdb/leveldb"
)

func TestReceiptStorage(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	failed := &types.Receipt{
		TxHash:            common.Hash{1},
		Status:            types.ReceiptStatusFailed,
		Error:             "invalid rating",
		FailedInstruction: 2,
	}
	ok := &types.Receipt{
		TxHash:            common.Hash{2},
		Status:            types.ReceiptStatusSuccessful,
		FailedInstruction: -1,
		StateRoot:         common.Hash{0xaa},
		Logs: []*types.Log{
			{Address: common.Address{1}, Topics: []common.Hash{{3}}, Data: []byte("job"), TxHash: common.Hash{2}, Sequence: 0},
			{Address: common.Address{1}, Topics: []common.Hash{{4}}, TxHash: common.Hash{2}, Index: 1, Sequence: 1},
		},
	}
	if HasReceipt(db, failed.TxHash) {
		t.Fatal("receipt present before write")
	}
	WriteReceipt(db, failed)
	WriteReceipt(db, ok)

	if !HasReceipt(db, failed.TxHash) {
		t.Fatal("receipt missing after write")
	}
	have := ReadReceipt(db, failed.TxHash)
	if have.Error != failed.Error || have.FailedInstruction != 2 || have.Succeeded() || len(have.Logs) != 0 {
		t.Fatalf("failed receipt mismatch: %+v", have)
	}
	have = ReadReceipt(db, ok.TxHash)
	if !have.Succeeded() || have.FailedInstruction != -1 || have.StateRoot != ok.StateRoot {
		t.Fatalf("receipt mismatch: %+v", have)
	}
	if len(have.Logs) != 2 || string(have.Logs[0].Data) != "job" || have.Logs[1].Index != 1 {
		t.Fatalf("receipt logs mismatch: %+v", have.Logs)
	}
	if ReadReceipt(db, common.Hash{9}) != nil {
		t.Fatal("unknown receipt returned")
	}
}

func TestReadLogsBySequence(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	var seq uint64
	for i := byte(1); i <= 3; i++ {
		hash := common.Hash{i}
		logs := []*types.Log{{TxHash: hash, Sequence: seq}, {TxHash: hash, Index: 1, Sequence: seq + 1}}
		WriteTxLogs(db, hash, logs)
		seq += 2
	}
	WriteLogSequence(db, seq)
	if have := ReadLogSequence(db); have != 6 {
		t.Fatalf("log sequence mismatch: have %d, want 6", have)
	}
	logs := ReadLogs(db, 1, 3)
	if len(logs) != 3 {
		t.Fatalf("log count mismatch: have %d, want 3", len(logs))
	}
	for i, l := range logs {
		if l.Sequence != uint64(i+1) {
			t.Fatalf("log %d: sequence mismatch: have %d, want %d", i, l.Sequence, i+1)
		}
	}
}

func TestRecordAccessors(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	addrs := []common.Address{{3}, {1}, {2}}
	for i, addr := range addrs {
		WriteRecord(db, addr, []byte{byte(i)})
	}
	if !HasRecord(db, common.Address{2}) || HasRecord(db, common.Address{4}) {
		t.Fatal("record presence mismatch")
	}
	var seen []common.Address
	if err := IterateRecords(db, func(addr common.Address, enc []byte) bool {
		seen = append(seen, addr)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 || seen[0] != (common.Address{1}) || seen[2] != (common.Address{3}) {
		t.Fatalf("iteration order mismatch: %v", seen)
	}
	WriteHeadStateRoot(db, common.Hash{7})
	if ReadHeadStateRoot(db) != (common.Hash{7}) {
		t.Fatal("head state root mismatch")
	}
}

func TestTxLookup(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()

	sigHash, hash := common.Hash{1}, common.Hash{2}
	if have := ReadTxLookup(db, sigHash); have != (common.Hash{}) {
		t.Fatalf("lookup before write: %x", have)
	}
	WriteTxLookup(db, sigHash, hash)
	if have := ReadTxLookup(db, sigHash); have != hash {
		t.Fatalf("lookup mismatch: have %x, want %x", have, hash)
	}
	// Lookups and receipts live in separate key spaces.
	if HasReceipt(db, sigHash) || HasReceipt(db, hash) {
		t.Fatal("lookup mistaken for a receipt")
	}
}
