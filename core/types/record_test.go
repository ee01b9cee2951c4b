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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
)

func TestAgentRecordStorage(t *testing.T) {
	rec := &AgentRecord{
		Agent:       common.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791"),
		MetadataURI: "ipfs://a",
		CreatedAt:   1700000000,
		Active:      true,
		AvgRating:   float32(5500000.0 / 1500000.0),
		LastUpdate:  1700000100,
	}
	rec.TotalWeightedRating.SetUint64(5500000)
	rec.TotalWeight.SetUint64(1500000)

	enc, err := EncodeRecord(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if kind, _ := RecordKindOf(enc); kind != KindAgent {
		t.Fatalf("kind mismatch: have %v, want %v", kind, KindAgent)
	}
	dec, err := DecodeRecord(enc)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(rec, dec); diff != "" {
		t.Fatalf("record mismatch (-want +have):\n%s", diff)
	}
	// The narrowed average must survive storage bit for bit.
	if dec.(*AgentRecord).AvgRating != float32(5500000.0/1500000.0) {
		t.Fatalf("average changed in storage: %v", dec.(*AgentRecord).AvgRating)
	}
}

func TestAgentRecordWideAggregates(t *testing.T) {
	rec := &AgentRecord{}
	wide := new(uint256.Int).Lsh(new(uint256.Int).SetUint64(1), 127)
	rec.TotalWeight = *wide
	enc, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeRecord(enc)
	if err != nil {
		t.Fatal(err)
	}
	if have := dec.(*AgentRecord).TotalWeight; have.Cmp(wide) != 0 {
		t.Fatalf("wide weight mismatch: have %v, want %v", have.ToBig(), wide.ToBig())
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	if _, err := DecodeRecord(nil); !errors.Is(err, ErrEmptyRecord) {
		t.Fatalf("empty encoding: have %v, want %v", err, ErrEmptyRecord)
	}
	if _, err := DecodeRecord([]byte{0xc0, 0x7f}); !errors.Is(err, ErrUnknownRecord) {
		t.Fatalf("unknown kind: have %v, want %v", err, ErrUnknownRecord)
	}
	if _, err := DecodeRecord([]byte{0xc1, 0x01, byte(KindJob)}); err == nil {
		t.Fatal("truncated job record decoded")
	}
}

func TestRecordCopyIsolation(t *testing.T) {
	job := &JobRecord{PaymentAmount: 10}
	cpy := job.Copy().(*JobRecord)
	cpy.PaymentAmount = 20
	if job.PaymentAmount != 10 {
		t.Fatal("copy aliases the original record")
	}
}
