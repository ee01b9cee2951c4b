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

package params

import "github.com/ethereum/go-ethereum/common"

// Derived address namespaces of the registry program.
const (
	AgentNamespace    = "agent"
	JobNamespace      = "job"
	FeedbackNamespace = "feedback"

	// TokenAccountNamespace addresses the associated token account of an
	// (owner, mint) pair.
	TokenAccountNamespace = "token-account"
)

const (
	MaxMetadataLength = 200 // Maximum length in bytes of an agent metadata pointer.
	MaxCommentLength  = 200 // Maximum length in bytes of a feedback comment pointer.

	MinRating = 1
	MaxRating = 5

	// AggregateBits is the width of the reputation aggregate counters.
	AggregateBits = 128

	TransferOpcode     = byte(3) // Token program transfer instruction.
	TransferDataLength = 9       // Opcode byte followed by a little-endian uint64 amount.

	MaxInstructionsPerTx = 64   // Upper bound of instructions in a single transaction.
	MaxAccountsPerIx     = 32   // Upper bound of account metas in a single instruction.
	MaxInstructionData   = 1024 // Upper bound of the payload of a single instruction.
)

var (
	// RegistryProgramAddress is the well known address of the reputation
	// registry program.
	RegistryProgramAddress = common.HexToAddress("0x7265676973747279000000000000000000000001")

	// TokenProgramAddress is the well known address of the token program.
	TokenProgramAddress = common.HexToAddress("0x746f6b656e000000000000000000000000000002")
)
