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
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/probeum/go-trustless/core/types"
)

// RPCMarshalRecord converts a record into the JSON representation served by
// the API.
func RPCMarshalRecord(rec types.Record) map[string]interface{} {
	fields := map[string]interface{}{"kind": rec.Kind().String()}
	switch rec := rec.(type) {
	case *types.AgentRecord:
		fields["agent"] = rec.Agent
		fields["metadataUri"] = rec.MetadataURI
		fields["createdAt"] = hexutil.Uint64(rec.CreatedAt)
		fields["active"] = rec.Active
		fields["autoCreated"] = rec.AutoCreated
		fields["totalWeightedRating"] = (*hexutil.Big)(rec.TotalWeightedRating.ToBig())
		fields["totalWeight"] = (*hexutil.Big)(rec.TotalWeight.ToBig())
		fields["avgRating"] = rec.AvgRating
		fields["lastUpdate"] = hexutil.Uint64(rec.LastUpdate)
	case *types.JobRecord:
		fields["jobId"] = rec.JobID
		fields["client"] = rec.Client
		fields["agent"] = rec.Agent
		fields["paymentReference"] = rec.PaymentReference
		fields["paymentAmount"] = hexutil.Uint64(rec.PaymentAmount)
		fields["createdAt"] = hexutil.Uint64(rec.CreatedAt)
	case *types.FeedbackRecord:
		fields["feedbackId"] = rec.FeedbackID
		fields["jobId"] = rec.JobID
		fields["client"] = rec.Client
		fields["agent"] = rec.Agent
		fields["rating"] = rec.Rating
		fields["commentUri"] = rec.CommentURI
		fields["paymentReference"] = rec.PaymentReference
		fields["paymentAmount"] = hexutil.Uint64(rec.PaymentAmount)
		fields["timestamp"] = hexutil.Uint64(rec.Timestamp)
	case *types.TokenAccount:
		fields["mint"] = rec.Mint
		fields["owner"] = rec.Owner
		fields["amount"] = hexutil.Uint64(rec.Amount)
	}
	return fields
}

// RPCMarshalReceipt converts a receipt into its JSON representation.
func RPCMarshalReceipt(receipt *types.Receipt) map[string]interface{} {
	fields := map[string]interface{}{
		"transactionHash": receipt.TxHash,
		"status":          hexutil.Uint64(receipt.Status),
		"stateRoot":       receipt.StateRoot,
		"logs":            receipt.Logs,
	}
	if receipt.Logs == nil {
		fields["logs"] = []*types.Log{}
	}
	if !receipt.Succeeded() {
		fields["error"] = receipt.Error
		fields["failedInstruction"] = receipt.FailedInstruction
	}
	return fields
}
