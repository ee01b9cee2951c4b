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

package leveldb

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		db := NewMemory()
		defer db.Close()
		testDatabase(t, db)
	})
	t.Run("Disk", func(t *testing.T) {
		db, err := New(filepath.Join(t.TempDir(), "chaindata"), 0, 0, false)
		require.NoError(t, err)
		defer db.Close()
		testDatabase(t, db)
	})
}

func testDatabase(t *testing.T, db *Database) {
	_, err := db.Get([]byte("missing"))
	require.True(t, IsNotFound(err), "unexpected error %v", err)

	require.NoError(t, db.Put([]byte("a1"), []byte("one")))
	ok, err := db.Has([]byte("a1"))
	require.NoError(t, err)
	require.True(t, ok)

	b := db.NewBatch()
	require.NoError(t, b.Put([]byte("a2"), []byte("two")))
	require.NoError(t, b.Put([]byte("b1"), []byte("other")))
	require.NoError(t, b.Delete([]byte("a1")))
	require.Equal(t, 10, b.ValueSize())

	// Nothing lands before the batch is written.
	ok, _ = db.Has([]byte("a2"))
	require.False(t, ok)
	require.NoError(t, b.Write())

	it := db.NewIterator([]byte("a"))
	var keys [][]byte
	for it.Next() {
		keys = append(keys, append([]byte{}, it.Key()...))
	}
	it.Release()
	require.NoError(t, it.Error())
	require.Len(t, keys, 1)
	require.True(t, bytes.Equal(keys[0], []byte("a2")))

	b.Reset()
	require.Zero(t, b.ValueSize())
}
