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

// Package trustapi implements the HTTP API of the trustless ledger.
package trustapi

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/params"
)

// Backend interface provides the common API services with access to the
// ledger.
type Backend interface {
	RegistryConfig() *params.RegistryConfig
	StateRoot() common.Hash

	// Transaction API
	SendTx(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	GetReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	// State API
	GetRecord(ctx context.Context, addr common.Address) (types.Record, error)

	// Filter API
	GetLogs(ctx context.Context, from uint64, limit int) ([]*types.Log, error)
	SubscribeLogsEvent(ch chan<- core.NewLogsEvent) event.Subscription
}
