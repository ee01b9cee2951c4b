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

package main

import (
	"context"
	"testing"
	"time"

	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/trustdb/leveldb"
)

func TestWatchLogsStops(t *testing.T) {
	db := leveldb.NewMemory()
	defer db.Close()
	if _, err := core.SetupGenesis(db, nil); err != nil {
		t.Fatalf("failed to write genesis: %v", err)
	}
	ledger, err := core.NewLedger(db, core.DefaultLedgerConfig)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	defer ledger.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchLogs(ctx, ledger) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watcher failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
