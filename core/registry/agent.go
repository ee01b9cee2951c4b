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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/params"
)

// registerAgent creates the record of the signing agent.
func (p *Program) registerAgent(ctx vm.Context, ix *types.Instruction) error {
	var args AgentArgs
	if err := decodeArgs(ix.Data, &args); err != nil {
		return err
	}
	accs, err := accounts(ix, 2)
	if err != nil {
		return err
	}
	agent := accs[agentAccAuthority]
	if !ctx.IsSigner(agent) {
		return fmt.Errorf("%w: agent %x", ErrMissingSignature, agent)
	}
	if len(args.MetadataURI) > params.MaxMetadataLength {
		return ErrMetadataTooLong
	}
	addr := p.AgentAddress(agent)
	if err := requireAddress(accs[agentAccRecord], addr, "agent"); err != nil {
		return err
	}
	now := ctx.Time()
	rec := &types.AgentRecord{
		Agent:       agent,
		MetadataURI: args.MetadataURI,
		CreatedAt:   now,
		Active:      true,
		LastUpdate:  now,
	}
	if err := ctx.CreateRecord(addr, rec); err != nil {
		return fmt.Errorf("agent %x: %w", agent, err)
	}
	agentsMeter.Mark(1)
	p.emit(ctx, &AgentRegistered{Agent: agent, MetadataURI: args.MetadataURI})
	log.Debug("Registered agent", "agent", agent, "metadata", args.MetadataURI)
	return nil
}

// authorizedAgent loads the agent record of an update or deactivation and
// checks that the signing authority is the agent stored in it.
func (p *Program) authorizedAgent(ctx vm.Context, ix *types.Instruction) (common.Address, *types.AgentRecord, error) {
	accs, err := accounts(ix, 2)
	if err != nil {
		return common.Address{}, nil, err
	}
	addr, authority := accs[agentAccRecord], accs[agentAccAuthority]
	rec, err := loadAgent(ctx, addr)
	if err != nil {
		return common.Address{}, nil, err
	}
	if rec.Agent != authority || !ctx.IsSigner(authority) {
		return common.Address{}, nil, fmt.Errorf("%w: %x", ErrUnauthorized, authority)
	}
	if err := requireAddress(addr, p.AgentAddress(rec.Agent), "agent"); err != nil {
		return common.Address{}, nil, err
	}
	return addr, rec, nil
}

// updateAgent replaces the metadata pointer of an agent.
func (p *Program) updateAgent(ctx vm.Context, ix *types.Instruction) error {
	var args AgentArgs
	if err := decodeArgs(ix.Data, &args); err != nil {
		return err
	}
	addr, rec, err := p.authorizedAgent(ctx, ix)
	if err != nil {
		return err
	}
	if len(args.MetadataURI) > params.MaxMetadataLength {
		return ErrMetadataTooLong
	}
	rec.MetadataURI = args.MetadataURI
	rec.LastUpdate = ctx.Time()
	if err := ctx.UpdateRecord(addr, rec); err != nil {
		return err
	}
	p.emit(ctx, &AgentUpdated{Agent: rec.Agent, MetadataURI: rec.MetadataURI})
	return nil
}

// deactivateAgent clears the active flag of an agent. There is no way back.
func (p *Program) deactivateAgent(ctx vm.Context, ix *types.Instruction) error {
	if len(ix.Data) != 1 {
		return fmt.Errorf("%w: trailing data", ErrInvalidInstruction)
	}
	addr, rec, err := p.authorizedAgent(ctx, ix)
	if err != nil {
		return err
	}
	rec.Active = false
	rec.LastUpdate = ctx.Time()
	if err := ctx.UpdateRecord(addr, rec); err != nil {
		return err
	}
	p.emit(ctx, &AgentDeactivated{Agent: rec.Agent})
	log.Debug("Deactivated agent", "agent", rec.Agent)
	return nil
}

// getOrCreateAgent returns the record of agent, creating a zeroed, auto
// created one if the agent never registered. Creation is attempted first and
// a collision means the record exists, so check and set cannot be split.
func (p *Program) getOrCreateAgent(ctx vm.Context, agent common.Address) (common.Address, *types.AgentRecord, error) {
	addr := p.AgentAddress(agent)
	now := ctx.Time()
	rec := &types.AgentRecord{
		Agent:       agent,
		CreatedAt:   now,
		Active:      true,
		AutoCreated: true,
		LastUpdate:  now,
	}
	err := ctx.CreateRecord(addr, rec)
	switch {
	case err == nil:
		agentsMeter.Mark(1)
		p.emit(ctx, &AgentAutoCreated{Agent: agent})
		log.Debug("Auto created agent", "agent", agent)
		return addr, rec, nil
	case errors.Is(err, vm.ErrAddressCollision):
		existing, err := loadAgent(ctx, addr)
		if err != nil {
			return common.Address{}, nil, err
		}
		return addr, existing, nil
	default:
		return common.Address{}, nil, err
	}
}

// checkActive reports on jobs and feedback against deactivated agents,
// failing only if enforcement is configured.
func (p *Program) checkActive(rec *types.AgentRecord, op string) error {
	if rec.Active {
		return nil
	}
	if p.config.EnforceActiveAgents {
		return fmt.Errorf("%w: %x", ErrInactiveAgent, rec.Agent)
	}
	log.Warn("Deactivated agent still in use", "agent", rec.Agent, "op", op)
	return nil
}
