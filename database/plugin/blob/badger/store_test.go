// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin/blob/badger"
	"github.com/blinklabs-io/internhub/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...badger.Option) *badger.Store {
	t.Helper()
	store, err := badger.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestSetGetDelete(t *testing.T) {
	store := newTestStore(t, badger.WithPromRegistry(prometheus.NewRegistry()))

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k1"), []byte("v1")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("k1")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("k1"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := store.Get(txn, []byte("k"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestTxnValidation(t *testing.T) {
	store := newTestStore(t)
	other := newTestStore(t)

	_, err := store.Get(nil, []byte("k"))
	require.ErrorIs(t, err, types.ErrNilTxn)

	foreign := other.NewTransaction(false)
	defer foreign.Rollback() //nolint:errcheck
	_, err = store.Get(foreign, []byte("k"))
	require.Error(t, err)

	finished := store.NewTransaction(true)
	require.NoError(t, finished.Commit())
	assert.Error(t, store.Set(finished, []byte("k"), []byte("v")))

	iter := store.NewIterator(nil, types.BlobIteratorOptions{})
	assert.False(t, iter.Valid())
	assert.ErrorIs(t, iter.Err(), types.ErrNilTxn)
}

func TestIteratorPrefixAndOrder(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	for i := range 3 {
		require.NoError(t, store.Set(txn, fmt.Appendf(nil, "a:%d", i), []byte{byte(i)}))
	}
	require.NoError(t, store.Set(txn, []byte("b:0"), []byte{9}))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck

	collect := func(reverse bool) []string {
		opts := types.BlobIteratorOptions{Prefix: []byte("a:"), Reverse: reverse}
		iter := store.NewIterator(txn, opts)
		defer iter.Close()
		var keys []string
		if reverse {
			// Reverse iteration seeks from the end of the prefix range
			iter.Seek([]byte("a:\xff"))
		} else {
			iter.Rewind()
		}
		for ; iter.ValidForPrefix(opts.Prefix); iter.Next() {
			keys = append(keys, string(iter.Item().Key()))
		}
		return keys
	}
	assert.Equal(t, []string{"a:0", "a:1", "a:2"}, collect(false))
	assert.Equal(t, []string{"a:2", "a:1", "a:0"}, collect(true))
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1_700_000_000_123, txn))
	require.NoError(t, txn.Commit())

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_123), ts)

	assert.ErrorIs(t, store.SetCommitTimestamp(1, nil), types.ErrNilTxn)
}

func TestPersistentStoreReopens(t *testing.T) {
	dir := t.TempDir()
	store, err := badger.New(badger.WithDataDir(dir), badger.WithGcInterval(0))
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())
	// Closing twice is harmless
	require.NoError(t, store.Close())

	store = newTestStore(t, badger.WithDataDir(dir), badger.WithGcInterval(0))
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestCorruptCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte(types.CommitTimestampKey), []byte{1, 2, 3}))
	require.NoError(t, txn.Commit())
	_, err := store.GetCommitTimestamp()
	assert.ErrorIs(t, err, types.ErrInvalidCommitTimestamp)
}

func TestSyncWritesWithGc(t *testing.T) {
	store := newTestStore(
		t,
		badger.WithDataDir(t.TempDir()),
		badger.WithSyncWrites(true),
		badger.WithGcInterval(time.Hour),
	)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	// Committing again is a no-op
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())
}
