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

// Package token implements a minimal token program holding balances of mints
// in token account records and moving them with signed transfers.
package token

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/crypto/derive"
	"github.com/probeum/go-trustless/params"
)

var (
	ErrInvalidInstruction = errors.New("invalid token instruction")
	ErrAccountNotFound    = errors.New("token account not found")
	ErrMintMismatch       = errors.New("token accounts hold different mints")
	ErrOwnerMismatch      = errors.New("authority does not own source account")
	ErrMissingSignature   = errors.New("authority did not sign")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrBalanceOverflow    = errors.New("balance overflow")
)

// OpTransfer moves an amount between two accounts of the same mint.
// Data: [3][amount uint64 little endian], accounts: [source, destination, authority].
const OpTransfer = params.TransferOpcode

var transferMeter = metrics.NewRegisteredMeter("token/transfer", nil)

// Program is the token program.
type Program struct {
	address common.Address
}

// NewProgram creates a token program served under address.
func NewProgram(address common.Address) *Program {
	return &Program{address: address}
}

// Address implements vm.Program.
func (p *Program) Address() common.Address {
	return p.address
}

// AccountAddress returns the associated token account of owner for mint.
func AccountAddress(program, owner, mint common.Address) common.Address {
	return derive.Addresses(program, params.TokenAccountNamespace, owner.Bytes(), mint.Bytes())
}

// NewTransfer creates a transfer instruction signed by authority.
func NewTransfer(program, source, destination, authority common.Address, amount uint64) *types.Instruction {
	data := make([]byte, params.TransferDataLength)
	data[0] = OpTransfer
	binary.LittleEndian.PutUint64(data[1:], amount)
	return &types.Instruction{
		ProgramID: program,
		Accounts: []types.AccountMeta{
			{Address: source, IsWritable: true},
			{Address: destination, IsWritable: true},
			{Address: authority, IsSigner: true},
		},
		Data: data,
	}
}

// Execute implements vm.Program.
func (p *Program) Execute(ctx vm.Context, ix *types.Instruction) error {
	if len(ix.Data) < 1 {
		return ErrInvalidInstruction
	}
	switch ix.Data[0] {
	case OpTransfer:
		return p.transfer(ctx, ix)
	default:
		return fmt.Errorf("%w: opcode %#x", ErrInvalidInstruction, ix.Data[0])
	}
}

func (p *Program) transfer(ctx vm.Context, ix *types.Instruction) error {
	if len(ix.Data) != params.TransferDataLength || len(ix.Accounts) < 3 {
		return fmt.Errorf("%w: malformed transfer", ErrInvalidInstruction)
	}
	var (
		amount    = binary.LittleEndian.Uint64(ix.Data[1:])
		srcAddr   = ix.Accounts[0].Address
		dstAddr   = ix.Accounts[1].Address
		authority = ix.Accounts[2].Address
	)
	src, ok := ctx.GetRecord(srcAddr).(*types.TokenAccount)
	if !ok {
		return fmt.Errorf("%w: %x", ErrAccountNotFound, srcAddr)
	}
	dst, ok := ctx.GetRecord(dstAddr).(*types.TokenAccount)
	if !ok {
		return fmt.Errorf("%w: %x", ErrAccountNotFound, dstAddr)
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Owner != authority {
		return ErrOwnerMismatch
	}
	if !ctx.IsSigner(authority) {
		return fmt.Errorf("%w: %x", ErrMissingSignature, authority)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: have %d, want %d", ErrInsufficientFunds, src.Amount, amount)
	}
	if srcAddr == dstAddr {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return ErrBalanceOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := ctx.UpdateRecord(srcAddr, src); err != nil {
		return err
	}
	if err := ctx.UpdateRecord(dstAddr, dst); err != nil {
		return err
	}
	transferMeter.Mark(1)
	log.Trace("Token transfer", "from", srcAddr, "to", dstAddr, "amount", amount)
	return nil
}
