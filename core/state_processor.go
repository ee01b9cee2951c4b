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
	"github.com/ethereum/go-ethereum/log"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
)

// StateProcessor applies transactions to the ledger state by dispatching
// their instructions to the registered programs.
type StateProcessor struct {
	programs map[common.Address]vm.Program
}

// NewStateProcessor initialises a new StateProcessor serving programs.
func NewStateProcessor(programs ...vm.Program) *StateProcessor {
	p := &StateProcessor{programs: make(map[common.Address]vm.Program)}
	for _, prog := range programs {
		p.programs[prog.Address()] = prog
	}
	return p
}

// ApplyTransaction executes every instruction of tx in order. If any of them
// fails, all changes of the transaction are reverted and the receipt reports
// the failure. signers is the validated signer set of tx, now the execution
// time in unix seconds.
func (p *StateProcessor) ApplyTransaction(statedb *state.StateDB, tx *types.Transaction, txIndex int, signers mapset.Set, now uint64) *types.Receipt {
	hash := tx.Hash()
	statedb.Prepare(hash, txIndex)

	var (
		ctx      = newExecContext(statedb, tx, signers, now)
		snapshot = statedb.Snapshot()
		receipt  = &types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful, FailedInstruction: -1}
	)
	for i, ix := range tx.Instructions {
		ctx.enter(i)
		if err := p.execute(ctx, ix); err != nil {
			statedb.RevertToSnapshot(snapshot)
			receipt.Status = types.ReceiptStatusFailed
			receipt.Error = err.Error()
			receipt.FailedInstruction = i
			log.Debug("Transaction failed", "hash", hash, "instruction", i, "err", err)
			break
		}
	}
	statedb.Finalise()
	receipt.Logs = statedb.GetLogs(hash)
	return receipt
}

func (p *StateProcessor) execute(ctx *execContext, ix *types.Instruction) error {
	prog, ok := p.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %x", vm.ErrUnknownProgram, ix.ProgramID)
	}
	return prog.Execute(ctx, ix)
}
