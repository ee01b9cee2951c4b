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

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/types"
)

// StateDB is the record store a program executes against.
type StateDB interface {
	// Exist reports whether a record is stored at addr.
	Exist(addr common.Address) bool

	// GetRecord returns a copy of the record at addr, or nil if none exists.
	GetRecord(addr common.Address) types.Record

	// CreateRecord stores rec at addr. It fails with ErrAddressCollision if
	// addr already holds a record.
	CreateRecord(addr common.Address, rec types.Record) error

	// UpdateRecord replaces the existing record at addr.
	UpdateRecord(addr common.Address, rec types.Record) error

	// AddLog appends a notification to the current transaction.
	AddLog(log *types.Log)
}

// Context is the environment of a single executing instruction.
type Context interface {
	StateDB

	// IsSigner reports whether addr signed the enclosing transaction.
	IsSigner(addr common.Address) bool

	// Instruction loads the instruction at index of the enclosing transaction.
	Instruction(index int) (*types.Instruction, error)

	// InstructionIndex is the index of the executing instruction.
	InstructionIndex() int

	// Time is the ledger time the transaction executes at, in unix seconds.
	Time() uint64

	// ClaimTransfer marks the instruction at index as backing a payment. It
	// returns false if it was claimed before within the transaction.
	ClaimTransfer(index int) bool
}

// Program is an on-ledger program the host dispatches instructions to.
type Program interface {
	// Address is the program id instructions target.
	Address() common.Address

	// Execute runs a single instruction. Any error aborts the whole
	// transaction.
	Execute(ctx Context, ix *types.Instruction) error
}
