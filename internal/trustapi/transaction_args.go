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

package trustapi

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/probeum/go-trustless/core/types"
)

// AccountArgs represents an account declared by an instruction.
type AccountArgs struct {
	Address  common.Address `json:"address"`
	Signer   bool           `json:"signer,omitempty"`
	Writable bool           `json:"writable,omitempty"`
}

// InstructionArgs represents a single instruction of a transaction.
type InstructionArgs struct {
	Program  common.Address `json:"program"`
	Accounts []AccountArgs  `json:"accounts"`
	Data     hexutil.Bytes  `json:"data"`
}

// TransactionArgs represents the arguments to submit a signed transaction,
// either field by field or as its RLP encoding.
type TransactionArgs struct {
	Nonce        *hexutil.Uint64   `json:"nonce"`
	Instructions []InstructionArgs `json:"instructions"`
	Signatures   []hexutil.Bytes   `json:"signatures"`

	Raw *hexutil.Bytes `json:"raw,omitempty"`
}

// NewTransactionArgs returns the JSON form of tx.
func NewTransactionArgs(tx *types.Transaction) *TransactionArgs {
	nonce := hexutil.Uint64(tx.Nonce)
	args := &TransactionArgs{Nonce: &nonce}
	for _, ix := range tx.Instructions {
		ixArgs := InstructionArgs{Program: ix.ProgramID, Data: ix.Data}
		for _, meta := range ix.Accounts {
			ixArgs.Accounts = append(ixArgs.Accounts, AccountArgs{meta.Address, meta.IsSigner, meta.IsWritable})
		}
		args.Instructions = append(args.Instructions, ixArgs)
	}
	for _, sig := range tx.Signatures {
		args.Signatures = append(args.Signatures, sig)
	}
	return args
}

// ToTransaction converts the arguments to a transaction.
func (args *TransactionArgs) ToTransaction() (*types.Transaction, error) {
	if args.Raw != nil {
		if args.Nonce != nil || len(args.Instructions) > 0 || len(args.Signatures) > 0 {
			return nil, errors.New("both raw and decoded transaction specified")
		}
		tx := new(types.Transaction)
		if err := rlp.DecodeBytes(*args.Raw, tx); err != nil {
			return nil, fmt.Errorf("invalid raw transaction: %v", err)
		}
		return tx, nil
	}
	if args.Nonce == nil {
		return nil, errors.New("missing nonce")
	}
	ixs := make([]*types.Instruction, len(args.Instructions))
	for i, ixArgs := range args.Instructions {
		ix := &types.Instruction{ProgramID: ixArgs.Program, Data: common.CopyBytes(ixArgs.Data)}
		for _, acc := range ixArgs.Accounts {
			ix.Accounts = append(ix.Accounts, types.AccountMeta{Address: acc.Address, IsSigner: acc.Signer, IsWritable: acc.Writable})
		}
		ixs[i] = ix
	}
	tx := types.NewTransaction(uint64(*args.Nonce), ixs...)
	for _, sig := range args.Signatures {
		tx.Signatures = append(tx.Signatures, common.CopyBytes(sig))
	}
	return tx, nil
}
