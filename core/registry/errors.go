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
	"errors"

	"github.com/probeum/go-trustless/core/vm"
)

var (
	// ErrAlreadyExists is returned when a record is created at an address that
	// already holds one: a second registration of an agent, job or feedback.
	ErrAlreadyExists = vm.ErrAddressCollision

	// Authorization errors.
	ErrMissingSignature   = errors.New("required signer did not sign")
	ErrUnauthorized       = errors.New("signer is not the agent of the record")
	ErrUnauthorizedClient = errors.New("signer is not the client of the job")

	// Integrity errors.
	ErrInvalidProofOfPayment  = errors.New("payment reference does not match job")
	ErrAddressMismatch        = errors.New("account is not the derived record address")
	ErrAgentNotFound          = errors.New("agent not registered")
	ErrJobNotFound            = errors.New("job not registered")
	ErrTransferAlreadyClaimed = errors.New("transfer already backs a job in this transaction")
	ErrReputationOverflow     = errors.New("reputation aggregate overflow")

	// Malformed payment proof errors.
	ErrInvalidTransferInstruction  = errors.New("invalid transfer instruction")
	ErrInvalidTransferAmount       = errors.New("invalid transfer amount")
	ErrTransferSourceMismatch      = errors.New("transfer source is not the client token account")
	ErrTransferDestinationMismatch = errors.New("transfer destination is not the agent token account")
	ErrTransferAuthorityMismatch   = errors.New("transfer authority is not the client")
	ErrTokenMintMismatch           = errors.New("token accounts hold different mints")
	ErrInvalidClientTokenAccount   = errors.New("invalid client token account")
	ErrInvalidAgentTokenAccount    = errors.New("invalid agent token account")

	// Domain validation errors.
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrMetadataTooLong      = errors.New("metadata uri too long")
	ErrCommentTooLong       = errors.New("comment uri too long")
	ErrZeroPaymentReference = errors.New("payment reference must be set")
	ErrInactiveAgent        = errors.New("agent is deactivated")
	ErrInvalidInstruction   = errors.New("invalid registry instruction")
	ErrNotEnoughAccounts    = errors.New("not enough accounts")
	ErrUnexpectedRecordKind = errors.New("unexpected record kind")
)

// ErrorClass groups registry failures by what went wrong.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassAuthorization
	ClassIntegrity
	ClassMalformedProof
	ClassValidation
	ClassHost
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassAuthorization:
		return "authorization"
	case ClassIntegrity:
		return "integrity"
	case ClassMalformedProof:
		return "malformed-proof"
	case ClassValidation:
		return "validation"
	default:
		return "host"
	}
}

// Classify returns the class of an error returned by the registry program.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrMissingSignature), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnauthorizedClient):
		return ClassAuthorization
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrInvalidProofOfPayment), errors.Is(err, ErrAddressMismatch),
		errors.Is(err, ErrAgentNotFound), errors.Is(err, ErrJobNotFound), errors.Is(err, ErrTransferAlreadyClaimed),
		errors.Is(err, ErrReputationOverflow), errors.Is(err, ErrUnexpectedRecordKind):
		return ClassIntegrity
	case errors.Is(err, ErrInvalidTransferInstruction), errors.Is(err, ErrInvalidTransferAmount),
		errors.Is(err, ErrTransferSourceMismatch), errors.Is(err, ErrTransferDestinationMismatch),
		errors.Is(err, ErrTransferAuthorityMismatch), errors.Is(err, ErrTokenMintMismatch),
		errors.Is(err, ErrInvalidClientTokenAccount), errors.Is(err, ErrInvalidAgentTokenAccount):
		return ClassMalformedProof
	case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrMetadataTooLong), errors.Is(err, ErrCommentTooLong),
		errors.Is(err, ErrZeroPaymentReference), errors.Is(err, ErrInactiveAgent), errors.Is(err, ErrInvalidInstruction),
		errors.Is(err, ErrNotEnoughAccounts):
		return ClassValidation
	default:
		return ClassHost
	}
}
