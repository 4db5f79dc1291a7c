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

package sqlite

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin/metadata/internal/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	DefaultBusyTimeout    = 5 * time.Second
	DefaultVacuumInterval = 24 * time.Hour

	dbFileName = "metadata.sqlite"
)

// Store keeps postings and applications in SQLite. It holds a single
// connection, so writers are serialized by the pool.
type Store struct {
	*gormstore.Store
	logger         *slog.Logger
	promRegistry   prometheus.Registerer
	dataDir        string
	busyTimeout    time.Duration
	vacuumInterval time.Duration
	stopVacuum     chan struct{}
	vacuumDone     sync.WaitGroup
	closeOnce      sync.Once
	closeErr       error
}

// New opens a store under dataDir, or in memory when dataDir is empty
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Store, error) {
	s := NewWithOptions(
		WithDataDir(dataDir),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithOptions configures a store without opening it
func NewWithOptions(opts ...Option) *Store {
	s := &Store{
		busyTimeout:    DefaultBusyTimeout,
		vacuumInterval: DefaultVacuumInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

func (s *Store) dsn() (string, error) {
	if s.dataDir == "" {
		// A unique name per store; cache=shared keeps the data alive across
		// pool reconnects
		return fmt.Sprintf(
			"file:internhub-%s?mode=memory&cache=shared&_pragma=foreign_keys(1)",
			uuid.NewString(),
		), nil
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		filepath.Join(s.dataDir, dbFileName),
		s.busyTimeout.Milliseconds(),
	), nil
}

// Start opens the database and migrates the schema
func (s *Store) Start() error {
	dsn, err := s.dsn()
	if err != nil {
		return err
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormstore.GormConfig())
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	store, err := gormstore.New(db, s.logger)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	s.Store = store
	s.logger.Debug(
		"opened sqlite metadata store",
		"component", "database",
		"data_dir", s.dataDir,
	)
	if s.dataDir != "" && s.vacuumInterval > 0 {
		s.stopVacuum = make(chan struct{})
		s.vacuumDone.Add(1)
		go s.vacuumLoop()
	}
	return nil
}

func (s *Store) Stop() error { return s.Close() }

// vacuumLoop periodically returns freed pages from deleted applications to
// the filesystem
func (s *Store) vacuumLoop() {
	defer s.vacuumDone.Done()
	ticker := time.NewTicker(s.vacuumInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopVacuum:
			return
		case <-ticker.C:
			if err := s.Vacuum(); err != nil {
				s.logger.Error(
					"sqlite vacuum failed",
					"component", "database",
					"error", err,
				)
			}
		}
	}
}

// Vacuum rebuilds the database file
func (s *Store) Vacuum() error {
	return s.DB().Exec("VACUUM").Error
}

// Close stops the vacuum loop and closes the connection. Later calls
// return the result of the first.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stopVacuum != nil {
			close(s.stopVacuum)
			s.vacuumDone.Wait()
		}
		s.closeErr = s.CloseDB()
	})
	return s.closeErr
}
