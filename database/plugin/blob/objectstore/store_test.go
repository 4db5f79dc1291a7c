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

package objectstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/blinklabs-io/internhub/database/sops"
	"github.com/blinklabs-io/internhub/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapBackend struct {
	objects map[string][]byte
	putErr  error
	puts    int
	mu      sync.Mutex
}

func newMapBackend() *mapBackend {
	return &mapBackend{objects: make(map[string][]byte)}
}

func (b *mapBackend) GetObject(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	val, ok := b.objects[key]
	if !ok {
		return nil, types.ErrBlobKeyNotFound
	}
	return append([]byte(nil), val...), nil
}

func (b *mapBackend) PutObject(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.puts++
	b.objects[key] = append([]byte(nil), value...)
	return nil
}

func (b *mapBackend) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return types.ErrBlobKeyNotFound
	}
	delete(b.objects, key)
	return nil
}

func (b *mapBackend) ListKeys(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ret []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			ret = append(ret, key)
		}
	}
	return ret, nil
}

func newTestStore(t *testing.T) (*Store, *mapBackend) {
	t.Helper()
	t.Setenv(sops.EnvGcpKmsResourceId, "")
	t.Setenv(sops.EnvAwsKmsKeyArns, "")
	backend := newMapBackend()
	return New("test", backend, nil, nil, 0), backend
}

func TestWritesAreBufferedUntilCommit(t *testing.T) {
	store, backend := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))

	// Visible inside the transaction only
	val, err := store.Get(txn, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	assert.Empty(t, backend.objects)

	require.NoError(t, txn.Commit())
	assert.Equal(t, []byte("v"), backend.objects["k"])
}

func TestRollbackDropsWrites(t *testing.T) {
	store, backend := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())
	assert.Equal(t, 0, backend.puts)
	assert.Error(t, store.Set(txn, []byte("k"), []byte("v")))
}

func TestReadOnlyTxnRejectsWrites(t *testing.T) {
	store, _ := newTestStore(t)
	txn := store.NewTransaction(false)
	assert.Error(t, store.Set(txn, []byte("k"), []byte("v")))
	assert.Error(t, store.Delete(txn, []byte("k")))
}

func TestDeleteBufferedAndMissing(t *testing.T) {
	store, backend := newTestStore(t)
	backend.objects["gone"] = []byte("x")
	txn := store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("gone")))
	require.NoError(t, store.Delete(txn, []byte("never-existed")))
	_, err := store.Get(txn, []byte("gone"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Commit())
	assert.NotContains(t, backend.objects, "gone")
}

func TestIteratorMergesPendingWrites(t *testing.T) {
	store, backend := newTestStore(t)
	backend.objects["j:1"] = []byte("1")
	backend.objects["j:2"] = []byte("2")
	backend.objects["x:1"] = []byte("x")

	txn := store.NewTransaction(true)
	defer txn.Rollback() //nolint:errcheck
	require.NoError(t, store.Set(txn, []byte("j:3"), []byte("3")))
	require.NoError(t, store.Delete(txn, []byte("j:1")))

	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("j:")})
	defer iter.Close()
	var keys, vals []string
	for iter.Rewind(); iter.ValidForPrefix([]byte("j:")); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
		val, err := iter.Item().ValueCopy(nil)
		require.NoError(t, err)
		vals = append(vals, string(val))
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, []string{"j:2", "j:3"}, keys)
	assert.Equal(t, []string{"2", "3"}, vals)

	rev := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("j:"), Reverse: true})
	rev.Seek([]byte("j:\xff"))
	require.True(t, rev.Valid())
	assert.Equal(t, "j:3", string(rev.Item().Key()))
}

func TestCommitFailureIsReported(t *testing.T) {
	store, backend := newTestStore(t)
	backend.putErr = errors.New("bucket offline")
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	err := txn.Commit()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket offline")
}

func TestCommitTimestamp(t *testing.T) {
	store, _ := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1234567, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), ts)
}

func TestWrongTxnType(t *testing.T) {
	store, _ := newTestStore(t)
	other, _ := newTestStore(t)
	foreign := other.NewTransaction(true)
	_, err := store.Get(foreign, []byte("k"))
	assert.ErrorIs(t, err, types.ErrTxnWrongType)
	_, err = store.Get(nil, []byte("k"))
	assert.ErrorIs(t, err, types.ErrNilTxn)
	iter := store.NewIterator(nil, types.BlobIteratorOptions{})
	assert.ErrorIs(t, iter.Err(), types.ErrNilTxn)
}
