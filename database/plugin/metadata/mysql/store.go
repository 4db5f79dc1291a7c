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

package mysql

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// errUnknownDatabase is the server error number for a missing schema
const errUnknownDatabase = 1049

var defaultConn = gormstore.Conn{
	Host:         "localhost",
	Port:         3306,
	User:         "root",
	Database:     "internhub",
	TimeZone:     "UTC",
	MaxOpenConns: 100,
}

// Store keeps postings and applications in MySQL. A missing database is
// created on first start.
type Store struct {
	*gormstore.Store
	conn         gormstore.Conn
	logger       *slog.Logger
	promRegistry prometheus.Registerer
}

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

// config returns the driver config to connect with. A configured DSN wins
// over the individual fields.
func (s *Store) config() (*mysql.Config, error) {
	if dsn := strings.TrimSpace(s.conn.DSN); dsn != "" {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		return cfg, nil
	}
	cfg := mysql.NewConfig()
	cfg.User = s.conn.User
	cfg.Passwd = s.conn.Password
	cfg.Net = "tcp"
	cfg.Addr = s.conn.Host + ":" + strconv.FormatUint(s.conn.Port, 10)
	cfg.DBName = s.conn.Database
	cfg.ParseTime = true
	if s.conn.TimeZone != "" {
		loc, err := time.LoadLocation(s.conn.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("mysql time zone: %w", err)
		}
		cfg.Loc = loc
	}
	if s.conn.TLS != "" {
		cfg.Params = map[string]string{"tls": s.conn.TLS}
	}
	return cfg, nil
}

func open(cfg *mysql.Config) (*gorm.DB, error) {
	return gorm.Open(gormmysql.Open(cfg.FormatDSN()), gormstore.PreparedConfig())
}

// Start connects, creating the database when the server reports it
// missing, and migrates the schema
func (s *Store) Start() error {
	cfg, err := s.config()
	if err != nil {
		return err
	}
	db, err := open(cfg)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errUnknownDatabase {
		if createErr := s.createDatabase(cfg); createErr != nil {
			return errors.Join(err, createErr)
		}
		db, err = open(cfg)
	}
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	store, err := gormstore.OpenPool(db, s.conn, s.logger)
	if err != nil {
		return err
	}
	s.Store = store
	s.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"addr", cfg.Addr,
		"database", cfg.DBName,
	)
	return nil
}

// createDatabase connects without a schema and creates cfg.DBName
func (s *Store) createDatabase(cfg *mysql.Config) error {
	if cfg.DBName == "" {
		return errors.New("mysql dsn names no database")
	}
	admin := cfg.Clone()
	admin.DBName = ""
	db, err := open(admin)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	s.logger.Info(
		"creating missing mysql database",
		"component", "database",
		"database", cfg.DBName,
	)
	return db.Exec(
		"CREATE DATABASE IF NOT EXISTS `" + strings.ReplaceAll(cfg.DBName, "`", "``") + "`",
	).Error
}

func (s *Store) Stop() error { return s.Close() }

func (s *Store) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.CloseDB()
}
