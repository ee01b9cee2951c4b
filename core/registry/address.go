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
	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/crypto/derive"
	"github.com/probeum/go-trustless/params"
)

// AgentAddress returns the address of the reputation record of agent.
func AgentAddress(program common.Address, agent common.Address) common.Address {
	return derive.Address(program, params.AgentNamespace, agent.Bytes())
}

// JobAddress returns the address of the job backed by a payment reference.
// The address doubles as the job id.
func JobAddress(program common.Address, paymentRef common.Hash) common.Address {
	return derive.Address(program, params.JobNamespace, paymentRef.Bytes())
}

// FeedbackAddress returns the address of the single feedback of a job.
func FeedbackAddress(program common.Address, jobID common.Address) common.Address {
	return derive.Address(program, params.FeedbackNamespace, jobID.Bytes())
}
