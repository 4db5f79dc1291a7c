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

package postgres

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/internhub/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var defaultConn = gormstore.Conn{
	Host:         "localhost",
	Port:         5432,
	User:         "postgres",
	Database:     "internhub",
	TLS:          "disable",
	TimeZone:     "UTC",
	MaxOpenConns: 100,
}

// Store keeps postings and applications in Postgres
type Store struct {
	*gormstore.Store
	conn         gormstore.Conn
	logger       *slog.Logger
	promRegistry prometheus.Registerer
}

// NewWithOptions configures a store without connecting
func NewWithOptions(
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
	opts ...gormstore.ConnOption,
) *Store {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Store{
		conn:         defaultConn.Apply(opts...),
		logger:       logger,
		promRegistry: promRegistry,
	}
}

func (s *Store) dsn() string {
	if dsn := strings.TrimSpace(s.conn.DSN); dsn != "" {
		return dsn
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.conn.Host,
		s.conn.Port,
		s.conn.User,
		s.conn.Password,
		s.conn.Database,
		s.conn.TLS,
	)
	if s.conn.TimeZone != "" {
		dsn += " TimeZone=" + s.conn.TimeZone
	}
	return dsn
}

// Start connects and migrates the schema
func (s *Store) Start() error {
	db, err := gorm.Open(postgres.Open(s.dsn()), gormstore.PreparedConfig())
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	store, err := gormstore.OpenPool(db, s.conn, s.logger)
	if err != nil {
		return err
	}
	s.Store = store
	s.logger.Info(
		"connected to postgres metadata store",
		"component", "database",
		"host", s.conn.Host,
		"database", s.conn.Database,
	)
	return nil
}

func (s *Store) Stop() error { return s.Close() }

// Close is a no-op for a store that never started
func (s *Store) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.CloseDB()
}
