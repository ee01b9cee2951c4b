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

package state

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/probeum/go-trustless/core/rawdb"
	"github.com/probeum/go-trustless/trustdb"
)

var (
	cleanHitMeter   = metrics.NewRegisteredMeter("state/cache/clean/hit", nil)
	cleanMissMeter  = metrics.NewRegisteredMeter("state/cache/clean/miss", nil)
	cleanReadMeter  = metrics.NewRegisteredMeter("state/cache/clean/read", nil)
	cleanWriteMeter = metrics.NewRegisteredMeter("state/cache/clean/write", nil)
)

// Database is the read layer between the state database and the disk, keeping
// recently used record encodings in a clean cache.
type Database struct {
	diskdb trustdb.Database
	cleans *fastcache.Cache // nil if caching is disabled
}

// NewDatabase creates a state database without a clean cache.
func NewDatabase(diskdb trustdb.Database) *Database {
	return NewDatabaseWithCache(diskdb, 0)
}

// NewDatabaseWithCache creates a state database with a clean cache of the
// given size in megabytes.
func NewDatabaseWithCache(diskdb trustdb.Database, cache int) *Database {
	db := &Database{diskdb: diskdb}
	if cache > 0 {
		db.cleans = fastcache.New(cache * 1024 * 1024)
	}
	return db
}

// DiskDB retrieves the persistent storage backing the state database.
func (db *Database) DiskDB() trustdb.Database {
	return db.diskdb
}

// record retrieves the stored encoding of the record at addr from the clean
// cache or the disk, nil if none is stored.
func (db *Database) record(addr common.Address) []byte {
	if db.cleans != nil {
		if enc := db.cleans.Get(nil, addr[:]); enc != nil {
			cleanHitMeter.Mark(1)
			cleanReadMeter.Mark(int64(len(enc)))
			return enc
		}
	}
	enc := rawdb.ReadRecord(db.diskdb, addr)
	if len(enc) == 0 {
		return nil
	}
	if db.cleans != nil {
		db.cleans.Set(addr[:], enc)
		cleanMissMeter.Mark(1)
		cleanWriteMeter.Mark(int64(len(enc)))
	}
	return enc
}

// cache inserts a freshly committed encoding into the clean cache.
func (db *Database) cache(addr common.Address, enc []byte) {
	if db.cleans != nil {
		db.cleans.Set(addr[:], enc)
		cleanWriteMeter.Mark(int64(len(enc)))
	}
}
