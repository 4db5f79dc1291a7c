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

package badger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin/blob/blobmetrics"
	"github.com/blinklabs-io/internhub/database/types"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultCacheSize  = 64 << 20
	DefaultGcInterval = 10 * time.Minute

	gcDiscardRatio = 0.5
	memTableSize   = 16 << 20
)

// Store keeps the seat journal and the blob half of the commit timestamp in
// badger. Without a data directory it runs entirely in memory.
type Store struct {
	db           *badger.DB
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	metrics      *blobmetrics.Metrics
	dataDir      string
	cacheSize    uint64
	gcInterval   time.Duration
	syncWrites   bool
	stopGc       chan struct{}
	gcDone       sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// New opens the store
func New(opts ...Option) (*Store, error) {
	s := &Store{
		cacheSize:  DefaultCacheSize,
		gcInterval: DefaultGcInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	db, err := badger.Open(s.badgerOptions())
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	s.db = db
	s.metrics = blobmetrics.New(s.promRegistry, "badger")
	if s.gcInterval > 0 && s.dataDir != "" {
		s.stopGc = make(chan struct{})
		s.gcDone.Add(1)
		go s.gcLoop()
	}
	return s, nil
}

func (s *Store) badgerOptions() badger.Options {
	if s.dataDir == "" {
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithMemTableSize(memTableSize).
			WithLogger(newLogger(s.logger)).
			WithLoggingLevel(badger.WARNING)
	}
	return badger.DefaultOptions(filepath.Join(s.dataDir, "journal")).
		WithBlockCacheSize(int64(s.cacheSize)). //nolint:gosec
		WithMemTableSize(memTableSize).
		WithSyncWrites(s.syncWrites).
		WithCompression(options.Snappy).
		WithLogger(newLogger(s.logger)).
		WithLoggingLevel(badger.WARNING)
}

func (s *Store) gcLoop() {
	defer s.gcDone.Done()
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopGc:
			return
		case <-ticker.C:
			s.collectGarbage()
		}
	}
}

// collectGarbage rewrites value log files until badger reports nothing left
// to reclaim
func (s *Store) collectGarbage() {
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			s.logger.Warn(
				"journal value log GC failed",
				"component", "database",
				"error", err,
			)
		}
		return
	}
}

// Start implements plugin.Plugin. The store is already open after New.
func (s *Store) Start() error { return nil }

// Stop implements plugin.Plugin
func (s *Store) Stop() error { return s.Close() }

// Close stops background GC and closes badger. Later calls return the
// result of the first.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stopGc != nil {
			close(s.stopGc)
			s.gcDone.Wait()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) NewTransaction(update bool) types.Txn {
	return &txn{owner: s, tx: s.db.NewTransaction(update)}
}

func (s *Store) Get(t types.Txn, key []byte) ([]byte, error) {
	tx, err := s.unwrap(t)
	if err != nil {
		return nil, err
	}
	it, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		s.metrics.Observe(blobmetrics.OpGet, 0, nil)
		return nil, types.ErrBlobKeyNotFound
	}
	if err != nil {
		s.metrics.Observe(blobmetrics.OpGet, 0, err)
		return nil, err
	}
	val, err := it.ValueCopy(nil)
	s.metrics.Observe(blobmetrics.OpGet, len(val), err)
	return val, err
}

func (s *Store) Set(t types.Txn, key, val []byte) error {
	tx, err := s.unwrap(t)
	if err != nil {
		return err
	}
	err = tx.Set(key, val)
	s.metrics.Observe(blobmetrics.OpSet, len(val), err)
	return err
}

func (s *Store) Delete(t types.Txn, key []byte) error {
	tx, err := s.unwrap(t)
	if err != nil {
		return err
	}
	err = tx.Delete(key)
	s.metrics.Observe(blobmetrics.OpDelete, 0, err)
	return err
}

// NewIterator walks keys under opts.Prefix. Items are only usable while t
// is open.
func (s *Store) NewIterator(
	t types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	tx, err := s.unwrap(t)
	if err != nil {
		return &iterator{err: err}
	}
	s.metrics.Observe(blobmetrics.OpList, 0, nil)
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = opts.Prefix
	iterOpts.Reverse = opts.Reverse
	return &iterator{it: tx.NewIterator(iterOpts)}
}
