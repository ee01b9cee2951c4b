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

package types

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// RecordKind identifies the layout of a stored record. It is appended as the
// last byte of the stored encoding.
type RecordKind byte

const (
	KindAgent        RecordKind = 0x01
	KindJob          RecordKind = 0x02
	KindFeedback     RecordKind = 0x03
	KindTokenAccount RecordKind = 0x10
)

var (
	ErrUnknownRecord = errors.New("unknown record kind")
	ErrEmptyRecord   = errors.New("empty record encoding")
)

func (k RecordKind) String() string {
	switch k {
	case KindAgent:
		return "agent"
	case KindJob:
		return "job"
	case KindFeedback:
		return "feedback"
	case KindTokenAccount:
		return "token-account"
	default:
		return fmt.Sprintf("kind(%#x)", byte(k))
	}
}

// Record is a durable, uniquely addressed piece of ledger state.
type Record interface {
	Kind() RecordKind
	Copy() Record
}

// AgentRecord is the reputation record of a service providing agent.
type AgentRecord struct {
	Agent       common.Address
	MetadataURI string
	CreatedAt   uint64
	Active      bool
	AutoCreated bool

	TotalWeightedRating uint256.Int // Σ rating*amount
	TotalWeight         uint256.Int // Σ amount
	AvgRating           float32     // TotalWeightedRating / TotalWeight, narrowed
	LastUpdate          uint64
}

// agentRLP is the storage layout of an AgentRecord. RLP has no floating point
// type so the average is kept as its IEEE-754 bits.
type agentRLP struct {
	Agent               common.Address
	MetadataURI         string
	CreatedAt           uint64
	Active              bool
	AutoCreated         bool
	TotalWeightedRating *big.Int
	TotalWeight         *big.Int
	AvgRating           uint32
	LastUpdate          uint64
}

func (r *AgentRecord) Kind() RecordKind { return KindAgent }

func (r *AgentRecord) Copy() Record {
	cpy := *r
	return &cpy
}

// EncodeRLP implements rlp.Encoder.
func (r *AgentRecord) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &agentRLP{
		Agent:               r.Agent,
		MetadataURI:         r.MetadataURI,
		CreatedAt:           r.CreatedAt,
		Active:              r.Active,
		AutoCreated:         r.AutoCreated,
		TotalWeightedRating: r.TotalWeightedRating.ToBig(),
		TotalWeight:         r.TotalWeight.ToBig(),
		AvgRating:           math.Float32bits(r.AvgRating),
		LastUpdate:          r.LastUpdate,
	})
}

// DecodeRLP implements rlp.Decoder.
func (r *AgentRecord) DecodeRLP(s *rlp.Stream) error {
	var dec agentRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	twr, overflow := uint256.FromBig(dec.TotalWeightedRating)
	if overflow {
		return errors.New("agent record: weighted rating overflows 256 bits")
	}
	tw, overflow := uint256.FromBig(dec.TotalWeight)
	if overflow {
		return errors.New("agent record: weight overflows 256 bits")
	}
	*r = AgentRecord{
		Agent:               dec.Agent,
		MetadataURI:         dec.MetadataURI,
		CreatedAt:           dec.CreatedAt,
		Active:              dec.Active,
		AutoCreated:         dec.AutoCreated,
		TotalWeightedRating: *twr,
		TotalWeight:         *tw,
		AvgRating:           math.Float32frombits(dec.AvgRating),
		LastUpdate:          dec.LastUpdate,
	}
	return nil
}

// JobRecord ties a verified payment to the client and agent it was made
// between. It is written once and never mutated.
type JobRecord struct {
	JobID            common.Address // Address the record is stored at
	Client           common.Address
	Agent            common.Address
	PaymentReference common.Hash
	PaymentAmount    uint64
	CreatedAt        uint64
}

func (r *JobRecord) Kind() RecordKind { return KindJob }

func (r *JobRecord) Copy() Record {
	cpy := *r
	return &cpy
}

// FeedbackRecord is the single rating a client left for a job.
type FeedbackRecord struct {
	FeedbackID       common.Address
	JobID            common.Address
	Client           common.Address
	Agent            common.Address
	Rating           uint8
	CommentURI       string // empty if no comment was given
	PaymentReference common.Hash
	PaymentAmount    uint64
	Timestamp        uint64
}

func (r *FeedbackRecord) Kind() RecordKind { return KindFeedback }

func (r *FeedbackRecord) Copy() Record {
	cpy := *r
	return &cpy
}

// HasComment reports whether the feedback carries a comment pointer.
func (r *FeedbackRecord) HasComment() bool { return r.CommentURI != "" }

// TokenAccount holds a balance of a single mint on behalf of its owner.
type TokenAccount struct {
	Mint   common.Address
	Owner  common.Address
	Amount uint64
}

func (r *TokenAccount) Kind() RecordKind { return KindTokenAccount }

func (r *TokenAccount) Copy() Record {
	cpy := *r
	return &cpy
}

// EncodeRecord returns the storage encoding of a record: its RLP encoding
// followed by the kind byte.
func EncodeRecord(rec Record) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(rec)
	if err != nil {
		return nil, err
	}
	return append(enc, byte(rec.Kind())), nil
}

// RecordKindOf returns the kind of a stored record encoding.
func RecordKindOf(enc []byte) (RecordKind, error) {
	if len(enc) == 0 {
		return 0, ErrEmptyRecord
	}
	return RecordKind(enc[len(enc)-1]), nil
}

// DecodeRecord decodes a stored record encoding.
func DecodeRecord(enc []byte) (Record, error) {
	kind, err := RecordKindOf(enc)
	if err != nil {
		return nil, err
	}
	var rec Record
	switch kind {
	case KindAgent:
		rec = new(AgentRecord)
	case KindJob:
		rec = new(JobRecord)
	case KindFeedback:
		rec = new(FeedbackRecord)
	case KindTokenAccount:
		rec = new(TokenAccount)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownRecord, kind)
	}
	if err := rlp.DecodeBytes(enc[:len(enc)-1], rec); err != nil {
		return nil, fmt.Errorf("decode %v record: %w", kind, err)
	}
	return rec, nil
}
