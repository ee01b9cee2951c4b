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

	"github.com/ethereum/go-ethereum/log"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/params"
)

// submitFeedback records the rating of a job by its client and folds it into
// the reputation of the agent, weighted by the job's payment.
func (p *Program) submitFeedback(ctx vm.Context, ix *types.Instruction) error {
	var args FeedbackArgs
	if err := decodeArgs(ix.Data, &args); err != nil {
		return err
	}
	if args.Rating < params.MinRating || args.Rating > params.MaxRating {
		return fmt.Errorf("%w: %d", ErrInvalidRating, args.Rating)
	}
	accs, err := accounts(ix, 4)
	if err != nil {
		return err
	}
	client := accs[fbAccClient]
	if !ctx.IsSigner(client) {
		return fmt.Errorf("%w: client %x", ErrMissingSignature, client)
	}
	if len(args.CommentURI) > params.MaxCommentLength {
		return ErrCommentTooLong
	}
	jobID := p.JobAddress(args.PaymentReference)
	if err := requireAddress(accs[fbAccJobRecord], jobID, "job"); err != nil {
		return err
	}
	job, err := loadJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Client != client {
		return fmt.Errorf("%w: %x, job client %x", ErrUnauthorizedClient, client, job.Client)
	}
	if job.PaymentReference != args.PaymentReference {
		return ErrInvalidProofOfPayment
	}
	agentAddr := p.AgentAddress(job.Agent)
	if err := requireAddress(accs[fbAccAgentRecord], agentAddr, "agent"); err != nil {
		return err
	}
	feedbackID := p.FeedbackAddress(job.JobID)
	if err := requireAddress(accs[fbAccFeedbackRecord], feedbackID, "feedback"); err != nil {
		return err
	}
	now := ctx.Time()
	feedback := &types.FeedbackRecord{
		FeedbackID:       feedbackID,
		JobID:            job.JobID,
		Client:           client,
		Agent:            job.Agent,
		Rating:           args.Rating,
		CommentURI:       args.CommentURI,
		PaymentReference: job.PaymentReference,
		PaymentAmount:    job.PaymentAmount,
		Timestamp:        now,
	}
	if err := ctx.CreateRecord(feedbackID, feedback); err != nil {
		return fmt.Errorf("feedback on job %x: %w", job.JobID, err)
	}
	// Fold the rating into the agent's reputation.
	rec, err := loadAgent(ctx, agentAddr)
	if err != nil {
		return err
	}
	if err := p.checkActive(rec, "submit_feedback"); err != nil {
		return err
	}
	if err := foldRating(rec, args.Rating, job.PaymentAmount); err != nil {
		return err
	}
	rec.LastUpdate = now
	if err := ctx.UpdateRecord(agentAddr, rec); err != nil {
		return err
	}
	feedbackMeter.Mark(1)
	p.emit(ctx, &FeedbackSubmitted{
		FeedbackID:    feedbackID,
		JobID:         job.JobID,
		Client:        client,
		Agent:         job.Agent,
		Rating:        args.Rating,
		PaymentAmount: job.PaymentAmount,
	})
	p.emit(ctx, &ReputationUpdated{
		Agent:               rec.Agent,
		AvgRating:           rec.AvgRating,
		TotalWeightedRating: rec.TotalWeightedRating.ToBig(),
		TotalWeight:         rec.TotalWeight.ToBig(),
	})
	log.Debug("Submitted feedback", "job", job.JobID, "agent", job.Agent, "rating", args.Rating, "avg", rec.AvgRating)
	return nil
}
