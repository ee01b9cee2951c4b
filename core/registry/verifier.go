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
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/params"
)

// checkTokenAccounts checks that the token accounts of a job hold the same
// mint and belong to the client and agent respectively.
func checkTokenAccounts(ctx vm.StateDB, clientToken, agentToken, client, agent common.Address) error {
	clientAcc, ok := ctx.GetRecord(clientToken).(*types.TokenAccount)
	if !ok {
		return fmt.Errorf("%w: %x", ErrInvalidClientTokenAccount, clientToken)
	}
	agentAcc, ok := ctx.GetRecord(agentToken).(*types.TokenAccount)
	if !ok {
		return fmt.Errorf("%w: %x", ErrInvalidAgentTokenAccount, agentToken)
	}
	if clientAcc.Mint != agentAcc.Mint {
		return fmt.Errorf("%w: %x != %x", ErrTokenMintMismatch, clientAcc.Mint, agentAcc.Mint)
	}
	if clientAcc.Owner != client {
		return fmt.Errorf("%w: owned by %x", ErrInvalidClientTokenAccount, clientAcc.Owner)
	}
	if agentAcc.Owner != agent {
		return fmt.Errorf("%w: owned by %x", ErrInvalidAgentTokenAccount, agentAcc.Owner)
	}
	return nil
}

// verifyTransfer inspects the sibling instruction at index and returns the
// amount it transfers from clientToken to agentToken under the authority of
// client. The host applies the transaction atomically, so a verified transfer
// is executed if and only if the registry's own changes are.
func verifyTransfer(ctx vm.Context, index int, tokenProgram, clientToken, agentToken, client common.Address) (uint64, error) {
	ix, err := ctx.Instruction(index)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTransferInstruction, err)
	}
	if ix.ProgramID != tokenProgram {
		return 0, fmt.Errorf("%w: program %x, want %x", ErrInvalidTransferInstruction, ix.ProgramID, tokenProgram)
	}
	if len(ix.Data) < params.TransferDataLength || ix.Data[0] != params.TransferOpcode {
		return 0, fmt.Errorf("%w: not a transfer", ErrInvalidTransferInstruction)
	}
	amount, err := decodeTransferAmount(ix.Data[1:params.TransferDataLength])
	if err != nil {
		return 0, err
	}
	if len(ix.Accounts) < 3 {
		return 0, fmt.Errorf("%w: %d accounts", ErrInvalidTransferInstruction, len(ix.Accounts))
	}
	if ix.Accounts[0].Address != clientToken {
		return 0, ErrTransferSourceMismatch
	}
	if ix.Accounts[1].Address != agentToken {
		return 0, ErrTransferDestinationMismatch
	}
	if ix.Accounts[2].Address != client {
		return 0, ErrTransferAuthorityMismatch
	}
	return amount, nil
}

// decodeTransferAmount reads a little endian uint64.
func decodeTransferAmount(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidTransferAmount, len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
