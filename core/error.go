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

import "errors"

var (
	// ErrAlreadyKnown is returned if the transaction was applied before.
	ErrAlreadyKnown = errors.New("already known")

	// ErrNoInstructions is returned if a transaction carries no instruction.
	ErrNoInstructions = errors.New("transaction without instructions")

	// ErrTooManyInstructions is returned if a transaction exceeds the
	// instruction limit.
	ErrTooManyInstructions = errors.New("too many instructions")

	// ErrTooManyAccounts is returned if an instruction declares more accounts
	// than allowed.
	ErrTooManyAccounts = errors.New("too many instruction accounts")

	// ErrOversizedData is returned if an instruction payload exceeds the limit.
	ErrOversizedData = errors.New("oversized instruction data")

	// ErrMissingSigner is returned if an account flagged as signer did not
	// sign the transaction.
	ErrMissingSigner = errors.New("missing signature of required signer")

	// ErrUnexpectedSigner is returned for signatures of accounts no
	// instruction asks for.
	ErrUnexpectedSigner = errors.New("signature of account not flagged as signer")

	// ErrSignatureOrder is returned if the signatures do not follow the
	// order in which the signers first appear in the instructions.
	ErrSignatureOrder = errors.New("signatures out of signer order")

	// ErrLedgerClosed is returned when submitting to a stopped ledger.
	ErrLedgerClosed = errors.New("ledger closed")

	// ErrGenesisMismatch is returned if the database was initialised with a
	// different genesis.
	ErrGenesisMismatch = errors.New("genesis mismatch")
)
