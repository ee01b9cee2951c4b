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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/types"
	"github.com/stretchr/testify/require"
)

func TestRegisterAgent(t *testing.T) {
	env := newTestEnv(t, nil)

	env.mustApply(signedBy(agentAddr), NewRegisterAgent(registryAddr, agentAddr, "ipfs://a"))
	rec := env.agent(agentAddr)
	require.NotNil(t, rec)
	require.Equal(t, agentAddr, rec.Agent)
	require.Equal(t, "ipfs://a", rec.MetadataURI)
	require.True(t, rec.Active)
	require.False(t, rec.AutoCreated)
	require.True(t, rec.TotalWeight.IsZero())
	require.True(t, rec.TotalWeightedRating.IsZero())
	require.Equal(t, float32(0), rec.AvgRating)
	require.Equal(t, env.now, rec.CreatedAt)

	events := env.lastEvents()
	require.Len(t, events, 1)
	require.Equal(t, &AgentRegistered{Agent: agentAddr, MetadataURI: "ipfs://a"}, events[0])

	// A second registration fails and leaves the record alone.
	err := env.apply(signedBy(agentAddr), NewRegisterAgent(registryAddr, agentAddr, "ipfs://b"))
	checkErr(t, err, ErrAlreadyExists)
	require.Equal(t, "ipfs://a", env.agent(agentAddr).MetadataURI)
}

func TestRegisterAgentFailures(t *testing.T) {
	tooLong := make([]byte, 201)
	for i := range tooLong {
		tooLong[i] = 'x'
	}
	misplaced := NewRegisterAgent(registryAddr, agentAddr, "")
	misplaced.Accounts[agentAccRecord].Address = otherAddr

	tests := []struct {
		name   string
		ix     *types.Instruction
		signer bool
		err    error
	}{
		{name: "unsigned", ix: NewRegisterAgent(registryAddr, agentAddr, ""), err: ErrMissingSignature},
		{name: "metadata", ix: NewRegisterAgent(registryAddr, agentAddr, string(tooLong)), signer: true, err: ErrMetadataTooLong},
		{name: "address", ix: misplaced, signer: true, err: ErrAddressMismatch},
		{name: "accounts", ix: &types.Instruction{ProgramID: registryAddr, Data: []byte{OpRegisterAgent, 0xc1, 0x80}}, signer: true, err: ErrNotEnoughAccounts},
		{name: "data", ix: &types.Instruction{ProgramID: registryAddr, Data: []byte{OpRegisterAgent, 0xff}}, signer: true, err: ErrInvalidInstruction},
		{name: "opcode", ix: &types.Instruction{ProgramID: registryAddr, Data: []byte{0x7f}}, signer: true, err: ErrInvalidInstruction},
		{name: "empty", ix: &types.Instruction{ProgramID: registryAddr}, signer: true, err: ErrInvalidInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			var signers []common.Address
			if tt.signer {
				signers = signedBy(agentAddr)
			}
			checkErr(t, env.apply(signers, tt.ix), tt.err)
			require.Nil(t, env.agent(agentAddr))
		})
	}
}

func TestMetadataAtLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	uri := make([]byte, 200)
	for i := range uri {
		uri[i] = 'a'
	}
	env.mustApply(signedBy(agentAddr), NewRegisterAgent(registryAddr, agentAddr, string(uri)))
	require.Equal(t, string(uri), env.agent(agentAddr).MetadataURI)
}

func TestUpdateAgent(t *testing.T) {
	env := newTestEnv(t, nil)

	// Updating an unregistered agent fails.
	err := env.apply(signedBy(agentAddr), NewUpdateAgent(registryAddr, agentAddr, "ipfs://b"))
	checkErr(t, err, ErrAgentNotFound)

	env.mustApply(signedBy(agentAddr), NewRegisterAgent(registryAddr, agentAddr, "ipfs://a"))
	created := env.agent(agentAddr).CreatedAt

	env.mustApply(signedBy(agentAddr), NewUpdateAgent(registryAddr, agentAddr, "ipfs://b"))
	rec := env.agent(agentAddr)
	require.Equal(t, "ipfs://b", rec.MetadataURI)
	require.Equal(t, created, rec.CreatedAt)
	require.Equal(t, env.now, rec.LastUpdate)
	require.Equal(t, []Event{&AgentUpdated{Agent: agentAddr, MetadataURI: "ipfs://b"}}, env.lastEvents())

	// Someone else signing for the agent's record is rejected.
	forged := NewUpdateAgent(registryAddr, agentAddr, "ipfs://evil")
	forged.Accounts[agentAccAuthority].Address = otherAddr
	checkErr(t, env.apply(signedBy(otherAddr), forged), ErrUnauthorized)

	// So is the agent's own key without its signature.
	checkErr(t, env.apply(nil, NewUpdateAgent(registryAddr, agentAddr, "ipfs://c")), ErrUnauthorized)
	require.Equal(t, "ipfs://b", env.agent(agentAddr).MetadataURI)
}

func TestDeactivateAgent(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mustApply(signedBy(agentAddr), NewRegisterAgent(registryAddr, agentAddr, "ipfs://a"))

	forged := NewDeactivateAgent(registryAddr, agentAddr)
	forged.Accounts[agentAccAuthority].Address = otherAddr
	checkErr(t, env.apply(signedBy(otherAddr), forged), ErrUnauthorized)
	require.True(t, env.agent(agentAddr).Active)

	trailing := NewDeactivateAgent(registryAddr, agentAddr)
	trailing.Data = append(trailing.Data, 0x00)
	checkErr(t, env.apply(signedBy(agentAddr), trailing), ErrInvalidInstruction)

	env.mustApply(signedBy(agentAddr), NewDeactivateAgent(registryAddr, agentAddr))
	require.False(t, env.agent(agentAddr).Active)
	require.Equal(t, []Event{&AgentDeactivated{Agent: agentAddr}}, env.lastEvents())

	// Deactivation is final but repeatable, and updates stay possible.
	env.mustApply(signedBy(agentAddr), NewDeactivateAgent(registryAddr, agentAddr))
	env.mustApply(signedBy(agentAddr), NewUpdateAgent(registryAddr, agentAddr, "ipfs://b"))
	require.False(t, env.agent(agentAddr).Active)
}
