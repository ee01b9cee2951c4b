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

package core

import (
	"fmt"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/params"
)

// TxValidator checks the shape and signatures of transactions before they are
// applied. Recovered signers are cached by transaction hash.
type TxValidator struct {
	sigCache *lru.Cache
}

// NewTxValidator creates a validator caching the signers of size transactions.
func NewTxValidator(size int) *TxValidator {
	if size <= 0 {
		size = 1
	}
	cache, _ := lru.New(size)
	return &TxValidator{sigCache: cache}
}

// ValidateTx checks tx and returns the set of accounts that signed it.
func (v *TxValidator) ValidateTx(tx *types.Transaction) (mapset.Set, error) {
	if len(tx.Instructions) == 0 {
		return nil, ErrNoInstructions
	}
	if len(tx.Instructions) > params.MaxInstructionsPerTx {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyInstructions, len(tx.Instructions), params.MaxInstructionsPerTx)
	}
	for i, ix := range tx.Instructions {
		if ix == nil {
			return nil, fmt.Errorf("instruction %d missing", i)
		}
		if len(ix.Accounts) > params.MaxAccountsPerIx {
			return nil, fmt.Errorf("%w: instruction %d has %d", ErrTooManyAccounts, i, len(ix.Accounts))
		}
		if len(ix.Data) > params.MaxInstructionData {
			return nil, fmt.Errorf("%w: instruction %d has %d bytes", ErrOversizedData, i, len(ix.Data))
		}
	}
	signers, err := v.signers(tx)
	if err != nil {
		return nil, err
	}
	// Exactly one signature per required signer, in signer order.
	required := tx.RequiredSigners()
	set := mapset.NewSet()
	for _, addr := range signers {
		set.Add(addr)
	}
	for _, addr := range required {
		if !set.Contains(addr) {
			return nil, fmt.Errorf("%w: %x", ErrMissingSigner, addr)
		}
	}
	if len(signers) != len(required) {
		return nil, ErrUnexpectedSigner
	}
	for i, addr := range required {
		if signers[i] != addr {
			return nil, fmt.Errorf("%w: signature %d", ErrSignatureOrder, i)
		}
	}
	return set, nil
}

// signers recovers the signers of tx in signature order, consulting the
// cache first.
func (v *TxValidator) signers(tx *types.Transaction) ([]common.Address, error) {
	hash := tx.Hash()
	if cached, ok := v.sigCache.Get(hash); ok {
		return cached.([]common.Address), nil
	}
	addrs, err := tx.Signers()
	if err != nil {
		return nil, err
	}
	v.sigCache.Add(hash, addrs)
	return addrs, nil
}
