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
	"crypto/ecdsa"
	"errors"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var ErrInvalidSig = errors.New("invalid transaction signature")

// AccountMeta declares an account an instruction reads or writes.
type AccountMeta struct {
	Address    common.Address
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation inside a transaction.
type Instruction struct {
	ProgramID common.Address
	Accounts  []AccountMeta
	Data      []byte
}

// Account returns the address of the i'th declared account.
func (ix *Instruction) Account(i int) (common.Address, bool) {
	if i < 0 || i >= len(ix.Accounts) {
		return common.Address{}, false
	}
	return ix.Accounts[i].Address, true
}

// WritableAccounts returns the addresses the instruction declares writable.
func (ix *Instruction) WritableAccounts() []common.Address {
	var addrs []common.Address
	for _, meta := range ix.Accounts {
		if meta.IsWritable {
			addrs = append(addrs, meta.Address)
		}
	}
	return addrs
}

// Transaction is an atomic bundle of instructions: the ledger applies all of
// them or none.
type Transaction struct {
	Nonce        uint64
	Instructions []*Instruction
	Signatures   [][]byte

	sigHash atomic.Value // cache
}

// NewTransaction creates an unsigned transaction.
func NewTransaction(nonce uint64, instructions ...*Instruction) *Transaction {
	return &Transaction{Nonce: nonce, Instructions: instructions}
}

type txRLP struct {
	Nonce        uint64
	Instructions []*Instruction
	Signatures   [][]byte
}

type sigRLP struct {
	Nonce        uint64
	Instructions []*Instruction
}

// EncodeRLP implements rlp.Encoder.
func (tx *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &txRLP{tx.Nonce, tx.Instructions, tx.Signatures})
}

// DecodeRLP implements rlp.Decoder.
func (tx *Transaction) DecodeRLP(s *rlp.Stream) error {
	var dec txRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	tx.Nonce, tx.Instructions, tx.Signatures = dec.Nonce, dec.Instructions, dec.Signatures
	return nil
}

// Hash returns the transaction hash, covering the signatures.
func (tx *Transaction) Hash() common.Hash {
	return rlpHash(&txRLP{tx.Nonce, tx.Instructions, tx.Signatures})
}

// SigHash returns the hash signed by every signer of the transaction.
func (tx *Transaction) SigHash() common.Hash {
	if hash := tx.sigHash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	h := rlpHash(&sigRLP{tx.Nonce, tx.Instructions})
	tx.sigHash.Store(h)
	return h
}

// Signers recovers the addresses of all signatures in signature order.
func (tx *Transaction) Signers() ([]common.Address, error) {
	hash := tx.SigHash()
	signers := make([]common.Address, 0, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		if len(sig) != crypto.SignatureLength {
			return nil, ErrInvalidSig
		}
		// Only low s signatures are valid.
		r, s := new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:64])
		if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
			return nil, ErrInvalidSig
		}
		pub, err := crypto.SigToPub(hash[:], sig)
		if err != nil {
			return nil, ErrInvalidSig
		}
		signers = append(signers, crypto.PubkeyToAddress(*pub))
	}
	return signers, nil
}

// RequiredSigners returns the distinct accounts flagged as signers across all
// instructions, in first appearance order.
func (tx *Transaction) RequiredSigners() []common.Address {
	var (
		seen    = make(map[common.Address]struct{})
		signers []common.Address
	)
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.Address]; !ok {
				seen[meta.Address] = struct{}{}
				signers = append(signers, meta.Address)
			}
		}
	}
	return signers
}

// SignTx adds the signature of prv to the transaction. The transaction content
// must not change after the first signature.
func SignTx(tx *Transaction, prv *ecdsa.PrivateKey) (*Transaction, error) {
	hash := tx.SigHash()
	sig, err := crypto.Sign(hash[:], prv)
	if err != nil {
		return nil, err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return tx, nil
}

func rlpHash(x interface{}) common.Hash {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}
