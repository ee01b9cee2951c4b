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

// Package registry implements the payment weighted reputation registry
// program. Agents register under an address derived from their identity,
// clients record jobs backed by a token transfer in the same transaction and
// rate them once; ratings are folded into the agent record weighted by the
// payment amount.
package registry

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/params"
)

var (
	executeTimer  = metrics.NewRegisteredTimer("registry/execute", nil)
	failureMeter  = metrics.NewRegisteredMeter("registry/failures", nil)
	agentsMeter   = metrics.NewRegisteredMeter("registry/agents", nil)
	jobsMeter     = metrics.NewRegisteredMeter("registry/jobs", nil)
	feedbackMeter = metrics.NewRegisteredMeter("registry/feedback", nil)
)

// Program is the reputation registry. It holds no state of its own, all
// records live in the ledger state handed to Execute.
type Program struct {
	config  *params.RegistryConfig
	address common.Address
}

// NewProgram creates the registry program.
func NewProgram(config *params.RegistryConfig) *Program {
	if config == nil {
		config = params.DefaultRegistryConfig
	}
	return &Program{
		config:  config,
		address: config.ProgramAddress,
	}
}

// Address implements vm.Program.
func (p *Program) Address() common.Address {
	return p.address
}

// AgentAddress returns the record address of agent under this program.
func (p *Program) AgentAddress(agent common.Address) common.Address {
	return AgentAddress(p.address, agent)
}

// JobAddress returns the record address of the job of paymentRef.
func (p *Program) JobAddress(paymentRef common.Hash) common.Address {
	return JobAddress(p.address, paymentRef)
}

// FeedbackAddress returns the record address of the feedback of a job.
func (p *Program) FeedbackAddress(jobID common.Address) common.Address {
	return FeedbackAddress(p.address, jobID)
}

// Execute implements vm.Program, dispatching on the opcode.
func (p *Program) Execute(ctx vm.Context, ix *types.Instruction) (err error) {
	if len(ix.Data) < 1 {
		return ErrInvalidInstruction
	}
	defer func(start time.Time) {
		executeTimer.UpdateSince(start)
		if err != nil {
			failureMeter.Mark(1)
			log.Debug("Registry instruction failed", "op", OpName(ix.Data[0]), "index", ctx.InstructionIndex(), "err", err)
		}
	}(time.Now())

	switch ix.Data[0] {
	case OpRegisterAgent:
		return p.registerAgent(ctx, ix)
	case OpUpdateAgent:
		return p.updateAgent(ctx, ix)
	case OpDeactivateAgent:
		return p.deactivateAgent(ctx, ix)
	case OpRegisterJob:
		return p.registerJob(ctx, ix)
	case OpSubmitFeedback:
		return p.submitFeedback(ctx, ix)
	default:
		return fmt.Errorf("%w: opcode %#x", ErrInvalidInstruction, ix.Data[0])
	}
}

// accounts returns the first n declared accounts of ix.
func accounts(ix *types.Instruction, n int) ([]common.Address, error) {
	if len(ix.Accounts) < n {
		return nil, fmt.Errorf("%w: %s needs %d, have %d", ErrNotEnoughAccounts, OpName(ix.Data[0]), n, len(ix.Accounts))
	}
	addrs := make([]common.Address, n)
	for i := range addrs {
		addrs[i] = ix.Accounts[i].Address
	}
	return addrs, nil
}

// requireAddress checks that a record account is the derived address.
func requireAddress(have, want common.Address, what string) error {
	if have != want {
		return fmt.Errorf("%w: %s account %x, want %x", ErrAddressMismatch, what, have, want)
	}
	return nil
}

func loadAgent(ctx vm.StateDB, addr common.Address) (*types.AgentRecord, error) {
	rec := ctx.GetRecord(addr)
	if rec == nil {
		return nil, ErrAgentNotFound
	}
	agent, ok := rec.(*types.AgentRecord)
	if !ok {
		return nil, fmt.Errorf("%w: %v at agent address %x", ErrUnexpectedRecordKind, rec.Kind(), addr)
	}
	return agent, nil
}

func loadJob(ctx vm.StateDB, addr common.Address) (*types.JobRecord, error) {
	rec := ctx.GetRecord(addr)
	if rec == nil {
		return nil, ErrJobNotFound
	}
	job, ok := rec.(*types.JobRecord)
	if !ok {
		return nil, fmt.Errorf("%w: %v at job address %x", ErrUnexpectedRecordKind, rec.Kind(), addr)
	}
	return job, nil
}
