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
	"errors"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/token"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/params"
)

func newTestProcessor(t *testing.T) (*StateProcessor, *state.StateDB) {
	db := newTestDB(t)
	processor := NewStateProcessor(registry.NewProgram(nil), token.NewProgram(tokenAddr))
	return processor, state.New(state.NewDatabase(db))
}

func signerSet(addrs ...common.Address) mapset.Set {
	set := mapset.NewSet()
	for _, addr := range addrs {
		set.Add(addr)
	}
	return set
}

func balanceOf(statedb *state.StateDB, addr common.Address) uint64 {
	acc, _ := statedb.GetRecord(addr).(*types.TokenAccount)
	if acc == nil {
		return 0
	}
	return acc.Amount
}

func TestApplyTransaction(t *testing.T) {
	processor, statedb := newTestProcessor(t)
	tx := types.NewTransaction(0, paidJob(common.HexToHash("0x01"), 1000)...)

	receipt := processor.ApplyTransaction(statedb, tx, 0, signerSet(clientAddr), 42)
	if !receipt.Succeeded() {
		t.Fatalf("transaction failed: %s", receipt.Error)
	}
	if receipt.FailedInstruction != -1 {
		t.Fatalf("failed instruction set on success: %d", receipt.FailedInstruction)
	}
	if len(receipt.Logs) != 2 {
		t.Fatalf("log count mismatch: have %d, want 2", len(receipt.Logs))
	}
	for _, l := range receipt.Logs {
		if l.TxHash != tx.Hash() {
			t.Fatalf("log tx hash mismatch")
		}
	}
	job, ok := statedb.GetRecord(registry.JobAddress(registryAddr, common.HexToHash("0x01"))).(*types.JobRecord)
	if !ok {
		t.Fatal("job not created")
	}
	if job.CreatedAt != 42 {
		t.Fatalf("job time mismatch: have %d, want 42", job.CreatedAt)
	}
}

// TestApplyTransactionAtomic checks that a failing instruction reverts the
// effects of every instruction before it.
func TestApplyTransactionAtomic(t *testing.T) {
	processor, statedb := newTestProcessor(t)
	ref := common.HexToHash("0x01")
	ixs := append(paidJob(ref, 1000), registry.NewSubmitFeedback(registryAddr, clientAddr, agentAddr, ref, 0, ""))

	receipt := processor.ApplyTransaction(statedb, types.NewTransaction(0, ixs...), 0, signerSet(clientAddr), 42)
	if receipt.Succeeded() {
		t.Fatal("transaction succeeded")
	}
	if receipt.FailedInstruction != 2 {
		t.Fatalf("failed instruction mismatch: have %d, want 2", receipt.FailedInstruction)
	}
	if len(receipt.Logs) != 0 {
		t.Fatalf("failed transaction kept %d logs", len(receipt.Logs))
	}
	if have := balanceOf(statedb, clientToken); have != 10000000 {
		t.Fatalf("payment not reverted: balance %d", have)
	}
	if statedb.Exist(registry.JobAddress(registryAddr, ref)) {
		t.Fatal("job not reverted")
	}
	if statedb.Exist(registry.AgentAddress(registryAddr, agentAddr)) {
		t.Fatal("auto created agent not reverted")
	}
}

func TestApplyTransactionWritable(t *testing.T) {
	processor, statedb := newTestProcessor(t)

	// Dropping the writable flag of the job record makes the registry's
	// write fail, even though the instruction is otherwise valid.
	ixs := paidJob(common.HexToHash("0x01"), 1000)
	ixs[1].Accounts[1].IsWritable = false

	receipt := processor.ApplyTransaction(statedb, types.NewTransaction(0, ixs...), 0, signerSet(clientAddr), 42)
	if receipt.Succeeded() || receipt.FailedInstruction != 1 {
		t.Fatalf("expected failure at instruction 1, have %+v", receipt)
	}
	if have := balanceOf(statedb, clientToken); have != 10000000 {
		t.Fatalf("payment not reverted: balance %d", have)
	}

	// Same for the token program.
	ixs = paidJob(common.HexToHash("0x01"), 1000)
	ixs[0].Accounts[1].IsWritable = false
	receipt = processor.ApplyTransaction(statedb, types.NewTransaction(1, ixs...), 1, signerSet(clientAddr), 42)
	if receipt.Succeeded() || receipt.FailedInstruction != 0 {
		t.Fatalf("expected failure at instruction 0, have %+v", receipt)
	}
}

func TestApplyTransactionUnknownProgram(t *testing.T) {
	processor, statedb := newTestProcessor(t)
	ix := &types.Instruction{ProgramID: common.HexToAddress("0xdead"), Data: []byte{1}}

	receipt := processor.ApplyTransaction(statedb, types.NewTransaction(0, ix), 0, signerSet(), 0)
	if receipt.Succeeded() {
		t.Fatal("unknown program accepted")
	}
	if !strings.HasPrefix(receipt.Error, vm.ErrUnknownProgram.Error()) {
		t.Fatalf("error mismatch: have %q", receipt.Error)
	}
}

func TestExecContextClaimTransfer(t *testing.T) {
	_, statedb := newTestProcessor(t)
	ctx := newExecContext(statedb, types.NewTransaction(0), signerSet(), 0)
	if !ctx.ClaimTransfer(0) {
		t.Fatal("first claim rejected")
	}
	if ctx.ClaimTransfer(0) {
		t.Fatal("second claim accepted")
	}
	if !ctx.ClaimTransfer(1) {
		t.Fatal("claim of other transfer rejected")
	}
	if _, err := ctx.Instruction(0); err == nil {
		t.Fatal("instruction of empty transaction returned")
	}
}

func TestValidateTx(t *testing.T) {
	validator := NewTxValidator(16)
	ref := common.HexToHash("0x01")

	tx := signTx(t, 0, paidJob(ref, 1), clientKey)
	signers, err := validator.ValidateTx(tx)
	if err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}
	if !signers.Contains(clientAddr) || signers.Cardinality() != 1 {
		t.Fatalf("signer set mismatch: %v", signers)
	}
	// Served from the cache the second time.
	if _, ok := validator.sigCache.Get(tx.Hash()); !ok {
		t.Fatal("signers not cached")
	}
	if _, err := validator.ValidateTx(tx); err != nil {
		t.Fatalf("cached validation failed: %v", err)
	}

	tooMany := make([]*types.Instruction, params.MaxInstructionsPerTx+1)
	for i := range tooMany {
		tooMany[i] = &types.Instruction{ProgramID: tokenAddr}
	}
	wide := &types.Instruction{ProgramID: tokenAddr, Accounts: make([]types.AccountMeta, params.MaxAccountsPerIx+1)}
	big := &types.Instruction{ProgramID: tokenAddr, Data: make([]byte, params.MaxInstructionData+1)}

	tests := []struct {
		name string
		tx   *types.Transaction
		err  error
	}{
		{"empty", signTx(t, 0, nil, clientKey), ErrNoInstructions},
		{"instructions", signTx(t, 0, tooMany), ErrTooManyInstructions},
		{"accounts", signTx(t, 0, []*types.Instruction{wide}), ErrTooManyAccounts},
		{"data", signTx(t, 0, []*types.Instruction{big}), ErrOversizedData},
		{"unsigned", signTx(t, 0, paidJob(ref, 1)), ErrMissingSigner},
		{"wrong-signer", signTx(t, 0, paidJob(ref, 1), agentKey), ErrMissingSigner},
		{"extra-signer", signTx(t, 0, paidJob(ref, 1), clientKey, agentKey), ErrUnexpectedSigner},
		{"duplicate-signature", signTx(t, 0, paidJob(ref, 1), clientKey, clientKey), ErrUnexpectedSigner},
		{"signer-order", signTx(t, 0, append(registerAgent("ipfs://a"), paidJob(ref, 1)...), clientKey, agentKey), ErrSignatureOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := validator.ValidateTx(tt.tx); !errors.Is(err, tt.err) {
				t.Fatalf("error mismatch: have %v, want %v", err, tt.err)
			}
		})
	}
	bad := signTx(t, 0, paidJob(ref, 2), clientKey)
	bad.Signatures[0][10] ^= 0xff
	if _, err := validator.ValidateTx(bad); err == nil {
		t.Fatal("corrupt signature accepted")
	}
}
