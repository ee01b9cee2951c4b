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

package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// Log is a notification emitted by a program. Logs are append-only and
// ordered by Sequence across the whole ledger.
type Log struct {
	// Consensus fields:
	// address of the program that emitted the log
	Address common.Address
	// list of topics provided by the program
	Topics []common.Hash
	// supplied by the program, usually RLP encoded
	Data []byte

	// Derived fields. These fields are filled in by the ledger but not secured
	// by the state root.
	// hash of the transaction
	TxHash common.Hash
	// index of the instruction within the transaction
	InstructionIndex uint
	// index of the log in the transaction
	Index uint
	// ledger wide sequence number, assigned on commit
	Sequence uint64
}

type logMarshaling struct {
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
	TxHash           common.Hash    `json:"transactionHash"`
	InstructionIndex hexutil.Uint   `json:"instructionIndex"`
	Index            hexutil.Uint   `json:"logIndex"`
	Sequence         hexutil.Uint64 `json:"sequence"`
}

// MarshalJSON marshals as JSON.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(&logMarshaling{
		Address:          l.Address,
		Topics:           l.Topics,
		Data:             l.Data,
		TxHash:           l.TxHash,
		InstructionIndex: hexutil.Uint(l.InstructionIndex),
		Index:            hexutil.Uint(l.Index),
		Sequence:         hexutil.Uint64(l.Sequence),
	})
}

// UnmarshalJSON unmarshals from JSON.
func (l *Log) UnmarshalJSON(input []byte) error {
	var dec logMarshaling
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*l = Log{
		Address:          dec.Address,
		Topics:           dec.Topics,
		Data:             dec.Data,
		TxHash:           dec.TxHash,
		InstructionIndex: uint(dec.InstructionIndex),
		Index:            uint(dec.Index),
		Sequence:         uint64(dec.Sequence),
	}
	return nil
}

// storedLog is the persisted layout of a log.
type storedLog struct {
	Address          common.Address
	Topics           []common.Hash
	Data             []byte
	TxHash           common.Hash
	InstructionIndex uint64
	Index            uint64
	Sequence         uint64
}

// EncodeLogs returns the storage encoding of a list of logs.
func EncodeLogs(logs []*Log) ([]byte, error) {
	enc := make([]storedLog, len(logs))
	for i, l := range logs {
		enc[i] = storedLog{l.Address, l.Topics, l.Data, l.TxHash, uint64(l.InstructionIndex), uint64(l.Index), l.Sequence}
	}
	return rlp.EncodeToBytes(enc)
}

// DecodeLogs is the inverse of EncodeLogs.
func DecodeLogs(enc []byte) ([]*Log, error) {
	var dec []storedLog
	if err := rlp.DecodeBytes(enc, &dec); err != nil {
		return nil, err
	}
	logs := make([]*Log, len(dec))
	for i, l := range dec {
		logs[i] = &Log{
			Address:          l.Address,
			Topics:           l.Topics,
			Data:             l.Data,
			TxHash:           l.TxHash,
			InstructionIndex: uint(l.InstructionIndex),
			Index:            uint(l.Index),
			Sequence:         l.Sequence,
		}
	}
	return logs, nil
}
