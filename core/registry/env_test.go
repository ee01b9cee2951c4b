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

package registry

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/token"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trustdb/leveldb"
)

var (
	agentKey, _  = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	clientKey, _ = crypto.HexToECDSA("8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a")
	otherKey, _  = crypto.HexToECDSA("49a7b37aa6f6645917e7b807e9d1c00d4fa71f18343b0d4122a4d2df64dd6fee")

	agentAddr  = crypto.PubkeyToAddress(agentKey.PublicKey)
	clientAddr = crypto.PubkeyToAddress(clientKey.PublicKey)
	otherAddr  = crypto.PubkeyToAddress(otherKey.PublicKey)

	mint      = common.HexToAddress("0x00000000000000000000000000000000006d696e")
	otherMint = common.HexToAddress("0x00000000000000000000000000000000006d696f")

	registryAddr = params.RegistryProgramAddress
	tokenAddr    = params.TokenProgramAddress

	clientToken = token.AccountAddress(tokenAddr, clientAddr, mint)
	agentToken  = token.AccountAddress(tokenAddr, agentAddr, mint)
	otherToken  = token.AccountAddress(tokenAddr, otherAddr, mint)
	foreignMint = token.AccountAddress(tokenAddr, agentAddr, otherMint)

	bogusProgram = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	ref1 = common.HexToHash("0x01")
	ref2 = common.HexToHash("0x02")
)

// testEnv is a minimal host applying instruction bundles atomically against
// an in-memory state database.
type testEnv struct {
	*state.StateDB

	t        *testing.T
	programs map[common.Address]vm.Program
	registry *Program

	ixs     []*types.Instruction
	index   int
	signers map[common.Address]bool
	claimed map[int]bool
	now     uint64
	txs     int64
}

func newTestEnv(t *testing.T, config *params.RegistryConfig) *testEnv {
	db := leveldb.NewMemory()
	t.Cleanup(func() { db.Close() })

	reg := NewProgram(config)
	env := &testEnv{
		StateDB:  state.New(state.NewDatabase(db)),
		t:        t,
		programs: make(map[common.Address]vm.Program),
		registry: reg,
		now:      1700000000,
	}
	env.programs[reg.Address()] = reg
	env.programs[tokenAddr] = token.NewProgram(tokenAddr)
	env.programs[bogusProgram] = nopProgram{}

	for _, acc := range []*types.TokenAccount{
		{Mint: mint, Owner: clientAddr, Amount: 10000000},
		{Mint: mint, Owner: agentAddr},
		{Mint: mint, Owner: otherAddr, Amount: 10000000},
		{Mint: otherMint, Owner: agentAddr},
	} {
		if err := env.StateDB.CreateRecord(token.AccountAddress(tokenAddr, acc.Owner, acc.Mint), acc); err != nil {
			t.Fatalf("failed to fund token account: %v", err)
		}
	}
	env.Finalise()
	return env
}

// nopProgram accepts every instruction.
type nopProgram struct{}

func (nopProgram) Address() common.Address                      { return bogusProgram }
func (nopProgram) Execute(vm.Context, *types.Instruction) error { return nil }

func (env *testEnv) IsSigner(addr common.Address) bool { return env.signers[addr] }
func (env *testEnv) InstructionIndex() int             { return env.index }
func (env *testEnv) Time() uint64                      { return env.now }

func (env *testEnv) Instruction(index int) (*types.Instruction, error) {
	if index < 0 || index >= len(env.ixs) {
		return nil, vm.ErrInstructionIndex
	}
	return env.ixs[index], nil
}

func (env *testEnv) ClaimTransfer(index int) bool {
	if env.claimed[index] {
		return false
	}
	env.claimed[index] = true
	return true
}

func (env *testEnv) txHash() common.Hash {
	return common.BigToHash(big.NewInt(env.txs))
}

// apply runs a transaction signed by signers, reverting everything on error.
func (env *testEnv) apply(signers []common.Address, ixs ...*types.Instruction) error {
	env.txs++
	env.now++
	env.ixs, env.claimed = ixs, make(map[int]bool)
	env.signers = make(map[common.Address]bool)
	for _, s := range signers {
		env.signers[s] = true
	}
	env.Prepare(env.txHash(), int(env.txs))

	snap := env.Snapshot()
	for i, ix := range ixs {
		env.index = i
		prog, ok := env.programs[ix.ProgramID]
		if !ok {
			env.RevertToSnapshot(snap)
			return vm.ErrUnknownProgram
		}
		if err := prog.Execute(env, ix); err != nil {
			env.RevertToSnapshot(snap)
			return err
		}
	}
	env.Finalise()
	return nil
}

func (env *testEnv) mustApply(signers []common.Address, ixs ...*types.Instruction) {
	env.t.Helper()
	if err := env.apply(signers, ixs...); err != nil {
		env.t.Fatalf("transaction failed: %v", err)
	}
}

func (env *testEnv) agent(addr common.Address) *types.AgentRecord {
	rec, _ := env.GetRecord(env.registry.AgentAddress(addr)).(*types.AgentRecord)
	return rec
}

func (env *testEnv) job(ref common.Hash) *types.JobRecord {
	rec, _ := env.GetRecord(env.registry.JobAddress(ref)).(*types.JobRecord)
	return rec
}

func (env *testEnv) balance(addr common.Address) uint64 {
	acc, _ := env.GetRecord(addr).(*types.TokenAccount)
	if acc == nil {
		return 0
	}
	return acc.Amount
}

// lastEvents decodes the events of the last applied transaction.
func (env *testEnv) lastEvents() []Event {
	env.t.Helper()
	var events []Event
	for _, l := range env.GetLogs(env.txHash()) {
		ev, err := ParseEvent(l)
		if err != nil {
			env.t.Fatalf("failed to parse log: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

// paidJob returns a payment of amount from client to agent followed by the
// job registration it backs.
func paidJob(ref common.Hash, amount uint64) []*types.Instruction {
	return []*types.Instruction{
		token.NewTransfer(tokenAddr, clientToken, agentToken, clientAddr, amount),
		NewRegisterJob(registryAddr, clientAddr, agentAddr, ref, clientToken, agentToken, 0),
	}
}

func rate(ref common.Hash, rating uint8) *types.Instruction {
	return NewSubmitFeedback(registryAddr, clientAddr, agentAddr, ref, rating, "")
}

func signedBy(addrs ...common.Address) []common.Address { return addrs }

func checkErr(t *testing.T, err error, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got success", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("error mismatch: have %v, want %v", err, want)
	}
}
