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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
)

// registerJob records a job paid for by a transfer instruction of the same
// transaction. The job lives at the address derived from the payment
// reference, so a payment can back only one job.
func (p *Program) registerJob(ctx vm.Context, ix *types.Instruction) error {
	var args JobArgs
	if err := decodeArgs(ix.Data, &args); err != nil {
		return err
	}
	accs, err := accounts(ix, 6)
	if err != nil {
		return err
	}
	var (
		agent       = accs[jobAccAgent]
		client      = accs[jobAccClient]
		clientToken = accs[jobAccClientToken]
		agentToken  = accs[jobAccAgentToken]
	)
	if !ctx.IsSigner(client) {
		return fmt.Errorf("%w: client %x", ErrMissingSignature, client)
	}
	if args.PaymentReference == (common.Hash{}) {
		return ErrZeroPaymentReference
	}
	jobID := p.JobAddress(args.PaymentReference)
	if err := requireAddress(accs[jobAccJobRecord], jobID, "job"); err != nil {
		return err
	}
	if err := requireAddress(accs[jobAccAgentRecord], p.AgentAddress(agent), "agent"); err != nil {
		return err
	}
	// Verify the payment.
	if err := checkTokenAccounts(ctx, clientToken, agentToken, client, agent); err != nil {
		return err
	}
	index := int(args.TransferIndex)
	amount, err := verifyTransfer(ctx, index, p.config.TokenProgram, clientToken, agentToken, client)
	if err != nil {
		return err
	}
	if !ctx.ClaimTransfer(index) {
		return fmt.Errorf("%w: instruction %d", ErrTransferAlreadyClaimed, index)
	}
	// Make sure the agent has a record, then write the job.
	_, rec, err := p.getOrCreateAgent(ctx, agent)
	if err != nil {
		return err
	}
	if err := p.checkActive(rec, "register_job"); err != nil {
		return err
	}
	job := &types.JobRecord{
		JobID:            jobID,
		Client:           client,
		Agent:            agent,
		PaymentReference: args.PaymentReference,
		PaymentAmount:    amount,
		CreatedAt:        ctx.Time(),
	}
	if err := ctx.CreateRecord(jobID, job); err != nil {
		return fmt.Errorf("job %x: %w", args.PaymentReference, err)
	}
	jobsMeter.Mark(1)
	p.emit(ctx, &JobRegistered{
		JobID:            jobID,
		Client:           client,
		Agent:            agent,
		PaymentReference: args.PaymentReference,
		PaymentAmount:    amount,
	})
	log.Debug("Registered job", "job", jobID, "client", client, "agent", agent, "amount", amount)
	return nil
}
