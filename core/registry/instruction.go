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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/probeum/go-trustless/core/types"
)

// Registry instruction opcodes, the first byte of the instruction data.
const (
	OpRegisterAgent   = byte(0x01)
	OpUpdateAgent     = byte(0x02)
	OpDeactivateAgent = byte(0x03)
	OpRegisterJob     = byte(0x10)
	OpSubmitFeedback  = byte(0x20)
)

// CheckOpCode reports whether op is a registry instruction.
func CheckOpCode(op byte) bool {
	switch op {
	case OpRegisterAgent, OpUpdateAgent, OpDeactivateAgent, OpRegisterJob, OpSubmitFeedback:
		return true
	}
	return false
}

// OpName returns a readable name of a registry opcode.
func OpName(op byte) string {
	switch op {
	case OpRegisterAgent:
		return "register_agent"
	case OpUpdateAgent:
		return "update_agent"
	case OpDeactivateAgent:
		return "deactivate_agent"
	case OpRegisterJob:
		return "register_job"
	case OpSubmitFeedback:
		return "submit_feedback"
	default:
		return fmt.Sprintf("op(%#x)", op)
	}
}

// Account positions of the registry instructions.
const (
	// register_agent, update_agent, deactivate_agent
	agentAccRecord    = 0
	agentAccAuthority = 1

	// register_job
	jobAccAgentRecord = 0
	jobAccJobRecord   = 1
	jobAccAgent       = 2
	jobAccClient      = 3
	jobAccClientToken = 4
	jobAccAgentToken  = 5

	// submit_feedback
	fbAccJobRecord      = 0
	fbAccAgentRecord    = 1
	fbAccFeedbackRecord = 2
	fbAccClient         = 3
)

// AgentArgs are the arguments of register_agent and update_agent.
type AgentArgs struct {
	MetadataURI string
}

// JobArgs are the arguments of register_job.
type JobArgs struct {
	PaymentReference common.Hash
	TransferIndex    uint16 // index of the payment transfer in the transaction
}

// FeedbackArgs are the arguments of submit_feedback.
type FeedbackArgs struct {
	PaymentReference common.Hash
	Rating           uint8
	CommentURI       string
}

func encodeData(op byte, args interface{}) []byte {
	if args == nil {
		return []byte{op}
	}
	enc, err := rlp.EncodeToBytes(args)
	if err != nil {
		panic(err)
	}
	return append([]byte{op}, enc...)
}

func decodeArgs(data []byte, args interface{}) error {
	if err := rlp.DecodeBytes(data[1:], args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInstruction, OpName(data[0]), err)
	}
	return nil
}

// NewRegisterAgent creates an instruction registering agent with a metadata
// pointer. The agent signs.
func NewRegisterAgent(program, agent common.Address, metadata string) *types.Instruction {
	return &types.Instruction{
		ProgramID: program,
		Accounts: []types.AccountMeta{
			{Address: AgentAddress(program, agent), IsWritable: true},
			{Address: agent, IsSigner: true},
		},
		Data: encodeData(OpRegisterAgent, &AgentArgs{MetadataURI: metadata}),
	}
}

// NewUpdateAgent creates an instruction replacing the metadata of agent.
func NewUpdateAgent(program, agent common.Address, metadata string) *types.Instruction {
	return &types.Instruction{
		ProgramID: program,
		Accounts: []types.AccountMeta{
			{Address: AgentAddress(program, agent), IsWritable: true},
			{Address: agent, IsSigner: true},
		},
		Data: encodeData(OpUpdateAgent, &AgentArgs{MetadataURI: metadata}),
	}
}

// NewDeactivateAgent creates an instruction deactivating agent.
func NewDeactivateAgent(program, agent common.Address) *types.Instruction {
	return &types.Instruction{
		ProgramID: program,
		Accounts: []types.AccountMeta{
			{Address: AgentAddress(program, agent), IsWritable: true},
			{Address: agent, IsSigner: true},
		},
		Data: encodeData(OpDeactivateAgent, nil),
	}
}

// NewRegisterJob creates an instruction recording the job paid for by the
// transfer instruction at transferIndex of the same transaction. The client
// signs.
func NewRegisterJob(program, client, agent common.Address, paymentRef common.Hash, clientToken, agentToken common.Address, transferIndex uint16) *types.Instruction {
	return &types.Instruction{
		ProgramID: program,
		Accounts: []types.AccountMeta{
			{Address: AgentAddress(program, agent), IsWritable: true},
			{Address: JobAddress(program, paymentRef), IsWritable: true},
			{Address: agent},
			{Address: client, IsSigner: true},
			{Address: clientToken},
			{Address: agentToken},
		},
		Data: encodeData(OpRegisterJob, &JobArgs{PaymentReference: paymentRef, TransferIndex: transferIndex}),
	}
}

// NewSubmitFeedback creates an instruction rating the job of paymentRef. The
// client signs, agent is the agent the job was registered with.
func NewSubmitFeedback(program, client, agent common.Address, paymentRef common.Hash, rating uint8, comment string) *types.Instruction {
	jobID := JobAddress(program, paymentRef)
	return &types.Instruction{
		ProgramID: program,
		Accounts: []types.AccountMeta{
			{Address: jobID},
			{Address: AgentAddress(program, agent), IsWritable: true},
			{Address: FeedbackAddress(program, jobID), IsWritable: true},
			{Address: client, IsSigner: true},
		},
		Data: encodeData(OpSubmitFeedback, &FeedbackArgs{PaymentReference: paymentRef, Rating: rating, CommentURI: comment}),
	}
}
