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
	"io"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
)

// Event is a notification emitted by the registry. Every event is published
// as a log with topics [keccak(name), agent].
type Event interface {
	EventName() string
	agent() common.Address
}

type AgentRegistered struct {
	Agent       common.Address
	MetadataURI string
}

// AgentAutoCreated is emitted when register_job creates the record of an
// agent that never registered itself.
type AgentAutoCreated struct {
	Agent common.Address
}

type AgentUpdated struct {
	Agent       common.Address
	MetadataURI string
}

type AgentDeactivated struct {
	Agent common.Address
}

type JobRegistered struct {
	JobID            common.Address
	Client           common.Address
	Agent            common.Address
	PaymentReference common.Hash
	PaymentAmount    uint64
}

type FeedbackSubmitted struct {
	FeedbackID    common.Address
	JobID         common.Address
	Client        common.Address
	Agent         common.Address
	Rating        uint8
	PaymentAmount uint64
}

// ReputationUpdated carries the aggregate of an agent after a feedback.
type ReputationUpdated struct {
	Agent               common.Address
	AvgRating           float32
	TotalWeightedRating *big.Int
	TotalWeight         *big.Int
}

type reputationRLP struct {
	Agent               common.Address
	AvgRating           uint32
	TotalWeightedRating *big.Int
	TotalWeight         *big.Int
}

func (e *AgentRegistered) EventName() string   { return "AgentRegistered" }
func (e *AgentAutoCreated) EventName() string  { return "AgentAutoCreated" }
func (e *AgentUpdated) EventName() string      { return "AgentUpdated" }
func (e *AgentDeactivated) EventName() string  { return "AgentDeactivated" }
func (e *JobRegistered) EventName() string     { return "JobRegistered" }
func (e *FeedbackSubmitted) EventName() string { return "FeedbackSubmitted" }
func (e *ReputationUpdated) EventName() string { return "ReputationUpdated" }

func (e *AgentRegistered) agent() common.Address   { return e.Agent }
func (e *AgentAutoCreated) agent() common.Address  { return e.Agent }
func (e *AgentUpdated) agent() common.Address      { return e.Agent }
func (e *AgentDeactivated) agent() common.Address  { return e.Agent }
func (e *JobRegistered) agent() common.Address     { return e.Agent }
func (e *FeedbackSubmitted) agent() common.Address { return e.Agent }
func (e *ReputationUpdated) agent() common.Address { return e.Agent }

// EncodeRLP implements rlp.Encoder.
func (e *ReputationUpdated) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &reputationRLP{e.Agent, math.Float32bits(e.AvgRating), e.TotalWeightedRating, e.TotalWeight})
}

// DecodeRLP implements rlp.Decoder.
func (e *ReputationUpdated) DecodeRLP(s *rlp.Stream) error {
	var dec reputationRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	*e = ReputationUpdated{dec.Agent, math.Float32frombits(dec.AvgRating), dec.TotalWeightedRating, dec.TotalWeight}
	return nil
}

var ErrUnknownEvent = errors.New("unknown registry event")

var eventTopics = make(map[common.Hash]func() Event)

func init() {
	for _, fn := range []func() Event{
		func() Event { return new(AgentRegistered) },
		func() Event { return new(AgentAutoCreated) },
		func() Event { return new(AgentUpdated) },
		func() Event { return new(AgentDeactivated) },
		func() Event { return new(JobRegistered) },
		func() Event { return new(FeedbackSubmitted) },
		func() Event { return new(ReputationUpdated) },
	} {
		eventTopics[EventTopic(fn().EventName())] = fn
	}
}

// EventTopic returns the first topic of the logs of the named event.
func EventTopic(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// emit publishes ev as a log of the executing instruction.
func (p *Program) emit(ctx vm.Context, ev Event) {
	data, err := rlp.EncodeToBytes(ev)
	if err != nil {
		panic(err)
	}
	agent := ev.agent()
	ctx.AddLog(&types.Log{
		Address:          p.address,
		Topics:           []common.Hash{EventTopic(ev.EventName()), common.BytesToHash(agent[:])},
		Data:             data,
		InstructionIndex: uint(ctx.InstructionIndex()),
	})
}

// ParseEvent decodes a registry log back into its event.
func ParseEvent(log *types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, ErrUnknownEvent
	}
	fn, ok := eventTopics[log.Topics[0]]
	if !ok {
		return nil, ErrUnknownEvent
	}
	ev := fn()
	if err := rlp.DecodeBytes(log.Data, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
