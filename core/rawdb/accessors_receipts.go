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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/trustdb"
)

// storedReceipt is the persisted layout of a receipt, logs are kept apart.
type storedReceipt struct {
	Status            uint64
	Error             string
	FailedInstruction uint64 // index+1, zero on success
	StateRoot         common.Hash
}

// HasReceipt checks if a transaction was already applied to the ledger.
func HasReceipt(db trustdb.KeyValueReader, hash common.Hash) bool {
	ok, _ := db.Has(receiptKey(hash))
	return ok
}

// ReadTxLookup retrieves the hash of the applied transaction with the given
// signing hash, whatever signatures it carried.
func ReadTxLookup(db trustdb.KeyValueReader, sigHash common.Hash) common.Hash {
	data, _ := db.Get(txLookupKey(sigHash))
	if len(data) != common.HashLength {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteTxLookup stores the signing hash of an applied transaction.
func WriteTxLookup(db trustdb.KeyValueWriter, sigHash, hash common.Hash) {
	if err := db.Put(txLookupKey(sigHash), hash.Bytes()); err != nil {
		log.Crit("Failed to store transaction lookup", "err", err)
	}
}

// ReadReceipt retrieves the receipt of a transaction along with its logs.
func ReadReceipt(db trustdb.KeyValueReader, hash common.Hash) *types.Receipt {
	data, _ := db.Get(receiptKey(hash))
	if len(data) == 0 {
		return nil
	}
	var stored storedReceipt
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		log.Error("Invalid receipt RLP", "hash", hash, "err", err)
		return nil
	}
	receipt := &types.Receipt{
		TxHash:            hash,
		Status:            stored.Status,
		Error:             stored.Error,
		FailedInstruction: int(stored.FailedInstruction) - 1,
		StateRoot:         stored.StateRoot,
	}
	receipt.Logs = ReadTxLogs(db, hash)
	return receipt
}

// WriteReceipt stores a transaction receipt and its logs.
func WriteReceipt(db trustdb.KeyValueWriter, receipt *types.Receipt) {
	data, err := rlp.EncodeToBytes(&storedReceipt{
		Status:            receipt.Status,
		Error:             receipt.Error,
		FailedInstruction: uint64(receipt.FailedInstruction + 1),
		StateRoot:         receipt.StateRoot,
	})
	if err != nil {
		log.Crit("Failed to encode receipt", "err", err)
	}
	if err := db.Put(receiptKey(receipt.TxHash), data); err != nil {
		log.Crit("Failed to store receipt", "err", err)
	}
	if len(receipt.Logs) > 0 {
		WriteTxLogs(db, receipt.TxHash, receipt.Logs)
	}
}

// ReadTxLogs retrieves the logs emitted by a transaction.
func ReadTxLogs(db trustdb.KeyValueReader, hash common.Hash) []*types.Log {
	data, _ := db.Get(txLogsKey(hash))
	if len(data) == 0 {
		return nil
	}
	enc, err := snappy.Decode(nil, data)
	if err != nil {
		log.Error("Corrupted log blob", "hash", hash, "err", err)
		return nil
	}
	logs, err := types.DecodeLogs(enc)
	if err != nil {
		log.Error("Invalid log RLP", "hash", hash, "err", err)
		return nil
	}
	return logs
}

// WriteTxLogs stores the logs of a transaction, snappy compressed, and indexes
// them by sequence number.
func WriteTxLogs(db trustdb.KeyValueWriter, hash common.Hash, logs []*types.Log) {
	enc, err := types.EncodeLogs(logs)
	if err != nil {
		log.Crit("Failed to encode logs", "err", err)
	}
	if err := db.Put(txLogsKey(hash), snappy.Encode(nil, enc)); err != nil {
		log.Crit("Failed to store logs", "err", err)
	}
	for _, l := range logs {
		if err := db.Put(logIndexKey(l.Sequence), hash.Bytes()); err != nil {
			log.Crit("Failed to store log index", "err", err)
		}
	}
	logWriteCounter.Inc(int64(len(logs)))
}

// ReadLogSequence retrieves the sequence number of the next log.
func ReadLogSequence(db trustdb.KeyValueReader) uint64 {
	data, _ := db.Get(logSequenceKey)
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// WriteLogSequence stores the sequence number of the next log.
func WriteLogSequence(db trustdb.KeyValueWriter, seq uint64) {
	if err := db.Put(logSequenceKey, encodeSequence(seq)); err != nil {
		log.Crit("Failed to store log sequence", "err", err)
	}
}

// ReadLogs retrieves up to limit logs in sequence order, starting at from.
func ReadLogs(db interface {
	trustdb.KeyValueReader
	trustdb.Iteratee
}, from uint64, limit int) []*types.Log {
	var (
		logs []*types.Log
		last common.Hash
		it   = db.NewIterator(logIndexPrefix)
	)
	defer it.Release()

	for it.Next() && len(logs) < limit {
		key := it.Key()
		if len(key) != len(logIndexPrefix)+8 {
			continue
		}
		if binary.BigEndian.Uint64(key[len(logIndexPrefix):]) < from {
			continue
		}
		hash := common.BytesToHash(it.Value())
		if hash == last {
			continue
		}
		last = hash
		for _, l := range ReadTxLogs(db, hash) {
			if l.Sequence >= from && len(logs) < limit {
				logs = append(logs, l)
			}
		}
	}
	return logs
}
