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

// Package trust implements the trustless ledger service.
package trust

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/internal/trustapi"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trust/trustconfig"
	"github.com/probeum/go-trustless/trustdb"
	"github.com/probeum/go-trustless/trustdb/leveldb"
)

// Trustless implements the ledger service: the database, the ledger applying
// transactions to it and the HTTP API serving both.
type Trustless struct {
	config *trustconfig.Config

	db     trustdb.Database
	ledger *core.Ledger

	APIBackend *APIBackend

	lock     sync.Mutex
	server   *http.Server
	listener net.Listener
}

// OpenDatabase opens the ledger database of config, in memory if it has no
// data directory.
func OpenDatabase(config *trustconfig.Config, readonly bool) (trustdb.Database, error) {
	path := config.ResolvePath("ledgerdata")
	if path == "" {
		return leveldb.NewMemory(), nil
	}
	db, err := leveldb.New(path, config.DatabaseCache, config.DatabaseHandles, readonly)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// New creates the ledger service, initialising the database from the
// configured genesis if it is empty.
func New(config *trustconfig.Config) (*Trustless, error) {
	if config.Registry != nil {
		if err := config.Registry.CheckCompatible(); err != nil {
			return nil, err
		}
	}
	db, err := OpenDatabase(config, false)
	if err != nil {
		return nil, err
	}
	genesisHash, err := core.SetupGenesis(db, config.Genesis)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Initialised ledger database", "genesis", genesisHash, "datadir", config.DataDir)

	ledger, err := core.NewLedger(db, config.LedgerConfig())
	if err != nil {
		db.Close()
		return nil, err
	}
	t := &Trustless{
		config: config,
		db:     db,
		ledger: ledger,
	}
	t.APIBackend = &APIBackend{t: t}
	return t, nil
}

func (t *Trustless) Ledger() *core.Ledger       { return t.ledger }
func (t *Trustless) Database() trustdb.Database { return t.db }

// HTTPEndpoint returns the address the API listens on, empty if it is not
// running.
func (t *Trustless) HTTPEndpoint() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

// Start opens the HTTP API if one is configured.
func (t *Trustless) Start() error {
	if t.config.HTTPHost == "" {
		return nil
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.server != nil {
		return errors.New("already started")
	}
	endpoint := net.JoinHostPort(t.config.HTTPHost, strconv.Itoa(t.config.HTTPPort))
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return fmt.Errorf("could not open HTTP endpoint %s: %v", endpoint, err)
	}
	handler := trustapi.NewHandler(t.APIBackend, trustapi.HTTPConfig{
		Cors:      t.config.HTTPCors,
		RateLimit: t.config.HTTPRateLimit,
		RateBurst: t.config.HTTPRateBurst,
		Metrics:   t.config.Metrics,
	})
	t.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	t.listener = listener
	go t.server.Serve(listener)

	log.Info("HTTP API started", "endpoint", "http://"+listener.Addr().String(), "cors", t.config.HTTPCors)
	return nil
}

// Stop shuts down the API, the ledger and the database.
func (t *Trustless) Stop() error {
	t.lock.Lock()
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		t.server.Shutdown(ctx)
		cancel()
		log.Info("HTTP API stopped", "endpoint", t.listener.Addr())
		t.server, t.listener = nil, nil
	}
	t.lock.Unlock()

	t.ledger.Stop()
	return t.db.Close()
}

// APIBackend implements trustapi.Backend for the ledger service.
type APIBackend struct {
	t *Trustless
}

func (b *APIBackend) RegistryConfig() *params.RegistryConfig {
	return b.t.ledger.Config().Registry
}

func (b *APIBackend) StateRoot() common.Hash {
	return b.t.ledger.StateRoot()
}

func (b *APIBackend) SendTx(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return b.t.ledger.Submit(ctx, tx)
}

func (b *APIBackend) GetReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return b.t.ledger.Receipt(hash), nil
}

func (b *APIBackend) GetRecord(ctx context.Context, addr common.Address) (types.Record, error) {
	return b.t.ledger.Record(addr)
}

func (b *APIBackend) GetLogs(ctx context.Context, from uint64, limit int) ([]*types.Log, error) {
	return b.t.ledger.Logs(from, limit), nil
}

func (b *APIBackend) SubscribeLogsEvent(ch chan<- core.NewLogsEvent) event.Subscription {
	return b.t.ledger.SubscribeLogsEvent(ch)
}
