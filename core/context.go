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
	"fmt"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
)

// execContext is the vm.Context of the instructions of one transaction. It
// only lets an instruction write the accounts it declared writable.
type execContext struct {
	*state.StateDB

	tx      *types.Transaction
	signers mapset.Set
	time    uint64

	index    int        // executing instruction
	writable mapset.Set // accounts the executing instruction may write
	claimed  mapset.Set // transfer instructions backing a payment
}

// newExecContext creates the context of tx executing at time now.
func newExecContext(statedb *state.StateDB, tx *types.Transaction, signers mapset.Set, now uint64) *execContext {
	return &execContext{
		StateDB: statedb,
		tx:      tx,
		signers: signers,
		time:    now,
		claimed: mapset.NewThreadUnsafeSet(),
	}
}

// enter prepares the context for the instruction at index.
func (c *execContext) enter(index int) {
	c.index = index
	c.writable = mapset.NewThreadUnsafeSet()
	for _, addr := range c.tx.Instructions[index].WritableAccounts() {
		c.writable.Add(addr)
	}
}

func (c *execContext) checkWritable(addr common.Address) error {
	if !c.writable.Contains(addr) {
		return fmt.Errorf("%w: %x", vm.ErrAccountNotWritable, addr)
	}
	return nil
}

// CreateRecord implements vm.StateDB.
func (c *execContext) CreateRecord(addr common.Address, rec types.Record) error {
	if err := c.checkWritable(addr); err != nil {
		return err
	}
	return c.StateDB.CreateRecord(addr, rec)
}

// UpdateRecord implements vm.StateDB.
func (c *execContext) UpdateRecord(addr common.Address, rec types.Record) error {
	if err := c.checkWritable(addr); err != nil {
		return err
	}
	return c.StateDB.UpdateRecord(addr, rec)
}

// IsSigner implements vm.Context.
func (c *execContext) IsSigner(addr common.Address) bool {
	return c.signers.Contains(addr)
}

// Instruction implements vm.Context.
func (c *execContext) Instruction(index int) (*types.Instruction, error) {
	if index < 0 || index >= len(c.tx.Instructions) {
		return nil, fmt.Errorf("%w: %d of %d", vm.ErrInstructionIndex, index, len(c.tx.Instructions))
	}
	return c.tx.Instructions[index], nil
}

// InstructionIndex implements vm.Context.
func (c *execContext) InstructionIndex() int {
	return c.index
}

// Time implements vm.Context.
func (c *execContext) Time() uint64 {
	return c.time
}

// ClaimTransfer implements vm.Context.
func (c *execContext) ClaimTransfer(index int) bool {
	return c.claimed.Add(index)
}
