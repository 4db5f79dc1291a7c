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

// Package objectstore implements the blob store API on top of a remote
// object store. Writes are buffered in the transaction and flushed on
// commit, so a rolled back transaction leaves no objects behind.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin/blob/blobmetrics"
	"github.com/blinklabs-io/internhub/database/sops"
	"github.com/blinklabs-io/internhub/database/types"
)

const defaultTimeout = 60 * time.Second

// Backend is the minimal object API a cloud provider must offer. GetObject
// returns types.ErrBlobKeyNotFound for missing keys. ListKeys returns every
// key starting with prefix, in any order.
type Backend interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, value []byte) error
	DeleteObject(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Store adapts a Backend to the blob store API
type Store struct {
	backend Backend
	logger  *slog.Logger
	metrics *blobmetrics.Metrics
	name    string
	timeout time.Duration
	keys    sops.Keys
	// commit serializes flushes so that concurrent commits don't interleave
	commit sync.Mutex
}

// New wraps a backend. The name is used for logging and metrics labels.
func New(
	name string,
	backend Backend,
	logger *slog.Logger,
	metrics *blobmetrics.Metrics,
	timeout time.Duration,
) *Store {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		backend: backend,
		logger:  logger,
		metrics: metrics,
		name:    name,
		timeout: timeout,
		keys:    sops.KeysFromEnv(),
	}
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// pendingWrite is a buffered Set (value != nil) or Delete (value == nil)
type pendingWrite struct {
	value []byte
}

// objTxn buffers writes until Commit
type objTxn struct {
	store     *Store
	pending   map[string]pendingWrite
	lock      sync.Mutex
	finished  bool
	readWrite bool
}

// NewTransaction returns a transaction that buffers writes in memory
func (s *Store) NewTransaction(readWrite bool) types.Txn {
	return &objTxn{
		store:     s,
		readWrite: readWrite,
		pending:   make(map[string]pendingWrite),
	}
}

func (t *objTxn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	if len(t.pending) == 0 {
		return nil
	}
	return t.store.flush(t.pending)
}

func (t *objTxn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.finished = true
	t.pending = nil
	return nil
}

func (s *Store) validateTxn(txn types.Txn, write bool) (*objTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*objTxn)
	if !ok || t.store != s {
		return nil, types.ErrTxnWrongType
	}
	if s.backend == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil, errors.New("transaction already finished")
	}
	if write && !t.readWrite {
		return nil, errors.New("transaction is read-only")
	}
	return t, nil
}

// flush writes buffered changes in key order
func (s *Store) flush(pending map[string]pendingWrite) error {
	s.commit.Lock()
	defer s.commit.Unlock()
	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ctx, cancel := s.opContext()
	defer cancel()
	for _, key := range keys {
		write := pending[key]
		if write.value == nil {
			err := s.backend.DeleteObject(ctx, key)
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				err = nil
			}
			s.metrics.Observe(blobmetrics.OpDelete, 0, err)
			if err != nil {
				return fmt.Errorf("%s blob: delete %q: %w", s.name, key, err)
			}
			continue
		}
		value, err := s.keys.Seal(write.value)
		if err != nil {
			return fmt.Errorf("%s blob: encrypt %q: %w", s.name, key, err)
		}
		err = s.backend.PutObject(ctx, key, value)
		s.metrics.Observe(blobmetrics.OpSet, len(value), err)
		if err != nil {
			return fmt.Errorf("%s blob: put %q: %w", s.name, key, err)
		}
	}
	s.logger.Debug(
		fmt.Sprintf("%s blob: flushed %d changes", s.name, len(keys)),
		"component", "database",
	)
	return nil
}

// Get returns the value for key, including writes buffered in txn
func (s *Store) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := s.validateTxn(txn, false)
	if err != nil {
		return nil, err
	}
	t.lock.Lock()
	write, ok := t.pending[string(key)]
	t.lock.Unlock()
	if ok {
		if write.value == nil {
			return nil, types.ErrBlobKeyNotFound
		}
		return append([]byte(nil), write.value...), nil
	}
	return s.getObject(string(key))
}

func (s *Store) getObject(key string) ([]byte, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	data, err := s.backend.GetObject(ctx, key)
	if errors.Is(err, types.ErrBlobKeyNotFound) {
		s.metrics.Observe(blobmetrics.OpGet, 0, nil)
		return nil, err
	}
	s.metrics.Observe(blobmetrics.OpGet, len(data), err)
	if err != nil {
		s.logger.Error(
			fmt.Sprintf("%s blob: get %q failed: %s", s.name, key, err),
			"component", "database",
		)
		return nil, err
	}
	return sops.Unseal(data)
}

// Set buffers a write in txn
func (s *Store) Set(txn types.Txn, key, val []byte) error {
	t, err := s.validateTxn(txn, true)
	if err != nil {
		return err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending[string(key)] = pendingWrite{value: append([]byte{}, val...)}
	return nil
}

// Delete buffers a delete in txn
func (s *Store) Delete(txn types.Txn, key []byte) error {
	t, err := s.validateTxn(txn, true)
	if err != nil {
		return err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending[string(key)] = pendingWrite{}
	return nil
}

// NewIterator lists keys under the prefix, merged with writes buffered in txn.
//
// Items returned by the iterator read their value through txn, so they must
// only be accessed while it is still active.
func (s *Store) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	t, err := s.validateTxn(txn, false)
	if err != nil {
		return &errorIterator{err: err}
	}
	ctx, cancel := s.opContext()
	defer cancel()
	prefix := string(opts.Prefix)
	listed, err := s.backend.ListKeys(ctx, prefix)
	s.metrics.Observe(blobmetrics.OpList, 0, err)
	if err != nil {
		s.logger.Error(
			fmt.Sprintf("%s blob: list failed: %s", s.name, err),
			"component", "database",
		)
		return &errorIterator{err: err}
	}
	keySet := make(map[string]struct{}, len(listed))
	for _, key := range listed {
		keySet[key] = struct{}{}
	}
	t.lock.Lock()
	for key, write := range t.pending {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if write.value == nil {
			delete(keySet, key)
		} else {
			keySet[key] = struct{}{}
		}
	}
	t.lock.Unlock()
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if opts.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return &iterator{store: s, keys: keys, reverse: opts.Reverse, txn: txn}
}

// GetCommitTimestamp returns the stored commit timestamp, or 0 if none exists
func (s *Store) GetCommitTimestamp() (int64, error) {
	txn := s.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck // no-op for this backend

	val, err := s.Get(txn, []byte(types.CommitTimestampKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return new(big.Int).SetBytes(val).Int64(), nil
}

// SetCommitTimestamp buffers the commit timestamp in txn
func (s *Store) SetCommitTimestamp(ts int64, txn types.Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	raw := new(big.Int).SetInt64(ts).Bytes()
	return s.Set(txn, []byte(types.CommitTimestampKey), raw)
}
