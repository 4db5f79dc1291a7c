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

package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/internhub/database/plugin/blob"
	"github.com/blinklabs-io/internhub/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"
)

// Config selects and configures the storage plugins
type Config struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	// BlobPlugin names the blob plugin (default "badger")
	BlobPlugin string
	// MetadataPlugin names the metadata plugin (default "sqlite")
	MetadataPlugin string
	// DataDir is the local data directory. An empty value keeps everything
	// in memory. A "s3://" or "gcs://" URL selects a cloud blob store and
	// keeps metadata in memory unless a remote metadata plugin is selected.
	DataDir string
}

type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	metrics  *txnMetrics
	dataDir  string
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(context.Background(), d, readWrite)
}

// TransactionContext is like Transaction but ties the metadata queries to
// ctx, which carries the caller's trace span and deadline
func (d *Database) TransactionContext(ctx context.Context, readWrite bool) *Txn {
	return NewTxn(ctx, d, readWrite)
}

// Ping checks that the metadata store is reachable
func (d *Database) Ping() error {
	if d == nil || d.metadata == nil {
		return ErrStoreUnavailable
	}
	return d.metadata.Ping()
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	// Close blob
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// localDataDir returns the directory local plugins should use
func localDataDir(dataDir string) string {
	if strings.HasPrefix(dataDir, "s3://") ||
		strings.HasPrefix(dataDir, "gcs://") {
		return ""
	}
	return dataDir
}

// New creates a new database instance with optional persistence using the
// provided data directory. A CommitTimestampError is returned along with a
// usable database when the stores have diverged.
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	metadataDb, err := metadata.New(
		config.MetadataPlugin,
		localDataDir(config.DataDir),
		config.Logger,
		config.PromRegistry,
	)
	if err != nil {
		return nil, err
	}
	blobDb, err := blob.New(
		config.BlobPlugin,
		config.DataDir,
		config.Logger,
		config.PromRegistry,
	)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:   config.Logger,
		blob:     blobDb,
		metadata: metadataDb,
		metrics:  newTxnMetrics(config.PromRegistry),
		dataDir:  config.DataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
