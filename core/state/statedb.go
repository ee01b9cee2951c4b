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

// Package state provides a caching, journaled layer atop the ledger record
// store.
package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/probeum/go-trustless/core/rawdb"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/core/vm"
	"github.com/probeum/go-trustless/trustdb"
)

var (
	commitTimer        = metrics.NewRegisteredTimer("state/commit", nil)
	recordCommitMeter  = metrics.NewRegisteredMeter("state/commit/records", nil)
	recordCreatedMeter = metrics.NewRegisteredMeter("state/records/created", nil)
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB caches the records touched by transactions and writes them back on
// commit. Every change is journaled so a failing transaction can be reverted
// as a whole.
//
// The state root is the XOR of keccak(address || encoding) over all stored
// records and is maintained incrementally.
type StateDB struct {
	db   *Database
	root common.Hash // root of the committed state

	// This map holds 'live' objects, which will get modified while processing
	// a state transition.
	stateObjects      map[common.Address]*stateObject
	stateObjectsDirty map[common.Address]struct{}

	// DB error. Any error during a database read is memoized here and
	// returned by Commit.
	dbErr error

	thash   common.Hash
	txIndex int
	logs    map[common.Hash][]*types.Log
	logSize uint
	logSeq  uint64 // sequence number of the first uncommitted log

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a new state on top of the latest committed state of db.
func New(db *Database) *StateDB {
	diskdb := db.DiskDB()
	return &StateDB{
		db:                db,
		root:              rawdb.ReadHeadStateRoot(diskdb),
		stateObjects:      make(map[common.Address]*stateObject),
		stateObjectsDirty: make(map[common.Address]struct{}),
		logs:              make(map[common.Hash][]*types.Log),
		logSeq:            rawdb.ReadLogSequence(diskdb),
		journal:           newJournal(),
	}
}

// Database retrieves the low level database supporting the state.
func (s *StateDB) Database() *Database {
	return s.db
}

// setError remembers the first non-nil error it is called with.
func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the memorized database failure occurred earlier.
func (s *StateDB) Error() error {
	return s.dbErr
}

// getStateObject retrieves a live object, loading it from the database if
// necessary. Returns nil if no record is stored at addr.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	enc := s.db.record(addr)
	if enc == nil {
		return nil
	}
	rec, err := types.DecodeRecord(enc)
	if err != nil {
		log.Error("Failed to decode record", "addr", addr, "err", err)
		s.setError(fmt.Errorf("record %x: %w", addr, err))
		return nil
	}
	obj := newObject(addr, rec, enc)
	s.stateObjects[addr] = obj
	return obj
}

// Exist reports whether a record is stored at addr.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// GetRecord returns a copy of the record at addr, or nil if none exists.
func (s *StateDB) GetRecord(addr common.Address) types.Record {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.record.Copy()
	}
	return nil
}

// CreateRecord stores rec at addr, which must not hold a record yet.
func (s *StateDB) CreateRecord(addr common.Address, rec types.Record) error {
	if s.getStateObject(addr) != nil {
		return vm.ErrAddressCollision
	}
	s.journal.append(createObjectChange{account: &addr})
	s.stateObjects[addr] = newObject(addr, rec.Copy(), nil)
	recordCreatedMeter.Mark(1)
	return nil
}

// UpdateRecord replaces the record at addr. The record kind cannot change.
func (s *StateDB) UpdateRecord(addr common.Address, rec types.Record) error {
	obj := s.getStateObject(addr)
	if obj == nil {
		return vm.ErrRecordNotFound
	}
	if obj.record.Kind() != rec.Kind() {
		return fmt.Errorf("cannot replace %v record at %x with %v", obj.record.Kind(), addr, rec.Kind())
	}
	s.journal.append(recordChange{account: &addr, prev: obj.record})
	obj.record = rec.Copy()
	return nil
}

// Prepare sets the current transaction hash and index which are used when
// logs are emitted.
func (s *StateDB) Prepare(thash common.Hash, ti int) {
	s.thash = thash
	s.txIndex = ti
}

// AddLog appends a log to the current transaction, assigning its per
// transaction index and ledger wide sequence number.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{txhash: s.thash})

	log.TxHash = s.thash
	log.Index = uint(len(s.logs[s.thash]))
	log.Sequence = s.logSeq + uint64(s.logSize)
	s.logs[s.thash] = append(s.logs[s.thash], log)
	s.logSize++
}

// GetLogs returns the logs emitted by a transaction.
func (s *StateDB) GetLogs(hash common.Hash) []*types.Log {
	return s.logs[hash]
}

// Logs returns all uncommitted logs in sequence order.
func (s *StateDB) Logs() []*types.Log {
	var logs []*types.Log
	for _, lgs := range s.logs {
		logs = append(logs, lgs...)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Sequence < logs[j].Sequence })
	return logs
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Finalise marks every record touched by the journal dirty and clears the
// journal. Changes finalised this way can no longer be reverted.
func (s *StateDB) Finalise() {
	for addr := range s.journal.dirties {
		if _, exist := s.stateObjects[addr]; !exist {
			continue
		}
		s.stateObjectsDirty[addr] = struct{}{}
	}
	s.clearJournal()
}

func (s *StateDB) clearJournal() {
	if len(s.journal.entries) > 0 {
		s.journal = newJournal()
	}
	s.validRevisions = s.validRevisions[:0]
}

// IntermediateRoot finalises the state and computes the root it would commit
// to.
func (s *StateDB) IntermediateRoot() (common.Hash, error) {
	s.Finalise()

	root := s.root
	for addr := range s.stateObjectsDirty {
		obj := s.stateObjects[addr]
		enc, err := obj.encode()
		if err != nil {
			return common.Hash{}, err
		}
		if obj.origin != nil {
			root = xorHash(root, leafHash(addr, obj.origin))
		}
		root = xorHash(root, leafHash(addr, enc))
	}
	return root, nil
}

// CommitTo finalises the state and writes all dirty records, the new root
// and the log sequence into w. The state treats the changes as committed: the
// caller must flush w before using the database again.
func (s *StateDB) CommitTo(w trustdb.KeyValueWriter) (common.Hash, error) {
	if s.dbErr != nil {
		return common.Hash{}, fmt.Errorf("commit aborted due to earlier error: %v", s.dbErr)
	}
	defer func(start time.Time) { commitTimer.UpdateSince(start) }(time.Now())

	s.Finalise()
	root := s.root
	for addr := range s.stateObjectsDirty {
		obj := s.stateObjects[addr]
		enc, err := obj.encode()
		if err != nil {
			return common.Hash{}, err
		}
		if obj.origin != nil {
			root = xorHash(root, leafHash(addr, obj.origin))
		}
		root = xorHash(root, leafHash(addr, enc))

		rawdb.WriteRecord(w, addr, enc)
		s.db.cache(addr, enc)
	}
	recordCommitMeter.Mark(int64(len(s.stateObjectsDirty)))

	s.logSeq += uint64(s.logSize)
	rawdb.WriteHeadStateRoot(w, root)
	rawdb.WriteLogSequence(w, s.logSeq)

	s.root = root
	s.stateObjects = make(map[common.Address]*stateObject)
	s.stateObjectsDirty = make(map[common.Address]struct{})
	s.logs = make(map[common.Hash][]*types.Log)
	s.logSize = 0
	return root, nil
}

// Commit writes the state to the underlying database in a single batch.
func (s *StateDB) Commit() (common.Hash, error) {
	batch := s.db.DiskDB().NewBatch()
	root, err := s.CommitTo(batch)
	if err != nil {
		return common.Hash{}, err
	}
	if err := batch.Write(); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// Root returns the root of the committed state.
func (s *StateDB) Root() common.Hash {
	return s.root
}
