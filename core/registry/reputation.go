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
	"math/big"

	"github.com/holiman/uint256"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/params"
)

// foldRating adds a rating weighted by the payment amount to the aggregate of
// an agent and recomputes the average. The aggregates are stored 128 bits
// wide; a fold that would exceed them fails and leaves rec untouched.
func foldRating(rec *types.AgentRecord, rating uint8, amount uint64) error {
	weight := new(uint256.Int).SetUint64(amount)
	weighted := new(uint256.Int).Mul(new(uint256.Int).SetUint64(uint64(rating)), weight)

	twr := new(uint256.Int).Add(&rec.TotalWeightedRating, weighted)
	tw := new(uint256.Int).Add(&rec.TotalWeight, weight)
	if twr.BitLen() > params.AggregateBits || tw.BitLen() > params.AggregateBits {
		return ErrReputationOverflow
	}
	rec.TotalWeightedRating = *twr
	rec.TotalWeight = *tw
	rec.AvgRating = averageRating(twr, tw)
	return nil
}

// averageRating divides the aggregates in float64 and narrows the result to
// float32, the stored precision. It is zero while no weight was recorded.
func averageRating(twr, tw *uint256.Int) float32 {
	if tw.IsZero() {
		return 0
	}
	num, _ := new(big.Float).SetInt(twr.ToBig()).Float64()
	den, _ := new(big.Float).SetInt(tw.ToBig()).Float64()
	return float32(num / den)
}
