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
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/probeum/go-trustless/core/rawdb"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/state"
	"github.com/probeum/go-trustless/core/token"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trustdb"
)

var (
	txMeter       = metrics.NewRegisteredMeter("ledger/tx/applied", nil)
	failedTxMeter = metrics.NewRegisteredMeter("ledger/tx/failed", nil)
	knownTxMeter  = metrics.NewRegisteredMeter("ledger/tx/known", nil)
	applyTimer    = metrics.NewRegisteredTimer("ledger/tx/apply", nil)
)

// LedgerConfig are the configuration parameters of the ledger.
type LedgerConfig struct {
	Registry    *params.RegistryConfig
	RecordCache int // Megabytes of clean record cache
	SignerCache int // Number of transactions whose signers are cached

	// Clock returns the execution time of transactions.
	Clock func() time.Time `toml:"-"`
}

// DefaultLedgerConfig contains the default ledger settings.
var DefaultLedgerConfig = LedgerConfig{
	Registry:    params.DefaultRegistryConfig,
	RecordCache: 32,
	SignerCache: 4096,
}

// NewLogsEvent is posted when a transaction emitted logs.
type NewLogsEvent struct{ Logs []*types.Log }

// NewReceiptEvent is posted for every applied transaction.
type NewReceiptEvent struct{ Receipt *types.Receipt }

// submitReq is a transaction waiting to be applied by the main loop.
type submitReq struct {
	tx      *types.Transaction
	signers mapset.Set
	result  chan submitResult
}

type submitResult struct {
	receipt *types.Receipt
	err     error
}

// Ledger applies transactions one at a time against the ledger state and
// commits each of them on its own. Submissions from any goroutine are
// serialised through the main loop, so every transaction sees the committed
// effects of all earlier ones.
type Ledger struct {
	config    LedgerConfig
	db        trustdb.Database
	statedb   *state.StateDB
	processor *StateProcessor
	validator *TxValidator
	registry  *registry.Program

	txIndex  int
	headLock sync.RWMutex
	headRoot common.Hash

	logsFeed    event.Feed
	receiptFeed event.Feed
	scope       event.SubscriptionScope

	submitCh chan *submitReq
	exitCh   chan struct{}
	closeMu  sync.Once
	wg       sync.WaitGroup
}

// NewLedger opens the ledger stored in db, which must hold a genesis.
func NewLedger(db trustdb.Database, config LedgerConfig) (*Ledger, error) {
	if config.Registry == nil {
		config.Registry = params.DefaultRegistryConfig
	}
	if err := config.Registry.CheckCompatible(); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if rawdb.ReadGenesisState(db) == (common.Hash{}) {
		return nil, errNoGenesis
	}
	registryProgram := registry.NewProgram(config.Registry)
	l := &Ledger{
		config:    config,
		db:        db,
		statedb:   state.New(state.NewDatabaseWithCache(db, config.RecordCache)),
		processor: NewStateProcessor(registryProgram, token.NewProgram(config.Registry.TokenProgram)),
		validator: NewTxValidator(config.SignerCache),
		registry:  registryProgram,
		submitCh:  make(chan *submitReq),
		exitCh:    make(chan struct{}),
	}
	l.headRoot = l.statedb.Root()

	l.wg.Add(1)
	go l.mainLoop()

	log.Info("Opened ledger", "root", l.headRoot, "registry", config.Registry)
	return l, nil
}

// Stop terminates the main loop and waits for the transaction in flight.
func (l *Ledger) Stop() {
	l.closeMu.Do(func() {
		close(l.exitCh)
		l.wg.Wait()
		l.scope.Close()
		log.Info("Ledger stopped")
	})
}

// Registry returns the registry program served by the ledger.
func (l *Ledger) Registry() *registry.Program {
	return l.registry
}

// Config returns the ledger configuration.
func (l *Ledger) Config() LedgerConfig {
	return l.config
}

// Submit validates tx, waits for it to be applied and returns its receipt.
// A transaction that fails during execution is still applied: its receipt
// reports the failure and none of its changes.
func (l *Ledger) Submit(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	signers, err := l.validator.ValidateTx(tx)
	if err != nil {
		return nil, err
	}
	req := &submitReq{tx: tx, signers: signers, result: make(chan submitResult, 1)}
	select {
	case l.submitCh <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.exitCh:
		return nil, ErrLedgerClosed
	}
	// Once accepted the transaction is applied regardless of the caller.
	res := <-req.result
	return res.receipt, res.err
}

// mainLoop is a standalone goroutine applying submitted transactions.
func (l *Ledger) mainLoop() {
	defer l.wg.Done()

	for {
		select {
		case req := <-l.submitCh:
			receipt, err := l.apply(req.tx, req.signers)
			req.result <- submitResult{receipt, err}
		case <-l.exitCh:
			return
		}
	}
}

// apply executes and commits a single transaction.
func (l *Ledger) apply(tx *types.Transaction, signers mapset.Set) (*types.Receipt, error) {
	hash, sigHash := tx.Hash(), tx.SigHash()
	if rawdb.HasReceipt(l.db, hash) || rawdb.ReadTxLookup(l.db, sigHash) != (common.Hash{}) {
		knownTxMeter.Mark(1)
		return nil, ErrAlreadyKnown
	}
	start := time.Now()
	now := uint64(l.config.Clock().Unix())
	receipt := l.processor.ApplyTransaction(l.statedb, tx, l.txIndex, signers, now)

	batch := l.db.NewBatch()
	root, err := l.statedb.CommitTo(batch)
	if err != nil {
		log.Crit("Failed to commit ledger state", "err", err)
	}
	receipt.StateRoot = root
	rawdb.WriteReceipt(batch, receipt)
	rawdb.WriteTxLookup(batch, sigHash, hash)
	if err := batch.Write(); err != nil {
		log.Crit("Failed to write ledger state", "err", err)
	}
	l.txIndex++
	l.headLock.Lock()
	l.headRoot = root
	l.headLock.Unlock()

	applyTimer.UpdateSince(start)
	txMeter.Mark(1)
	if !receipt.Succeeded() {
		failedTxMeter.Mark(1)
	}
	log.Debug("Applied transaction", "hash", hash, "status", receipt.Status, "logs", len(receipt.Logs), "root", root, "elapsed", common.PrettyDuration(time.Since(start)))

	l.receiptFeed.Send(NewReceiptEvent{Receipt: receipt})
	if len(receipt.Logs) > 0 {
		l.logsFeed.Send(NewLogsEvent{Logs: receipt.Logs})
	}
	return receipt, nil
}

// StateRoot returns the state root of the latest committed transaction.
func (l *Ledger) StateRoot() common.Hash {
	l.headLock.RLock()
	defer l.headLock.RUnlock()
	return l.headRoot
}

// Record returns the committed record stored at addr, nil if there is none.
func (l *Ledger) Record(addr common.Address) (types.Record, error) {
	enc := rawdb.ReadRecord(l.db, addr)
	if len(enc) == 0 {
		return nil, nil
	}
	return types.DecodeRecord(enc)
}

// Receipt returns the receipt of an applied transaction.
func (l *Ledger) Receipt(hash common.Hash) *types.Receipt {
	return rawdb.ReadReceipt(l.db, hash)
}

// Logs returns up to limit committed logs starting at sequence from.
func (l *Ledger) Logs(from uint64, limit int) []*types.Log {
	return rawdb.ReadLogs(l.db, from, limit)
}

// SubscribeLogsEvent registers a subscription of NewLogsEvent.
func (l *Ledger) SubscribeLogsEvent(ch chan<- NewLogsEvent) event.Subscription {
	return l.scope.Track(l.logsFeed.Subscribe(ch))
}

// SubscribeReceiptEvent registers a subscription of NewReceiptEvent.
func (l *Ledger) SubscribeReceiptEvent(ch chan<- NewReceiptEvent) event.Subscription {
	return l.scope.Track(l.receiptFeed.Subscribe(ch))
}
