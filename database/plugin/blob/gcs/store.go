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

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/internhub/database/plugin/blob/blobmetrics"
	"github.com/blinklabs-io/internhub/database/plugin/blob/objectstore"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"
)

const defaultTimeout = 30 * time.Second

// Store keeps the seat journal in a Google Cloud Storage bucket
type Store struct {
	*objectstore.Store
	loc             objectstore.Location
	logger          *slog.Logger
	promRegistry    prometheus.Registerer
	client          *storage.Client
	bucket          *storage.BucketHandle
	credentialsFile string
	timeout         time.Duration
}

// New creates a store for a data dir of the form "gcs://bucket[/prefix]"
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Store, error) {
	loc, err := objectstore.ParseLocation("gcs", dataDir)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithBucket(loc.Bucket),
		WithPrefix(loc.Prefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	), nil
}

func NewWithOptions(opts ...Option) *Store {
	s := &Store{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("backend", "gcs")
	s.loc.Prefix = objectstore.NormalizePrefix(s.loc.Prefix)
	return s
}

// ValidateCredentials checks that a credentials file, if given, is a
// readable regular file
func ValidateCredentials(credentialsFile string) error {
	if credentialsFile == "" {
		return nil
	}
	info, err := os.Stat(credentialsFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("gcs blob: credentials file does not exist: %s", credentialsFile)
	case err != nil:
		return fmt.Errorf("gcs blob: read credentials file: %w", err)
	case info.IsDir():
		return fmt.Errorf("gcs blob: credentials file is a directory: %s", credentialsFile)
	}
	return nil
}

// Start creates the storage client. Application default credentials are
// used unless a credentials file is configured.
func (s *Store) Start() error {
	if s.loc.Bucket == "" {
		return errors.New("gcs blob: bucket not set")
	}
	if err := ValidateCredentials(s.credentialsFile); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if s.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(s.credentialsFile))
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf("gcs blob: create storage client: %w", err)
	}
	s.client = client
	s.bucket = client.Bucket(s.loc.Bucket)
	s.Store = objectstore.New(
		"gcs",
		s,
		s.logger,
		blobmetrics.New(s.promRegistry, "gcs"),
		s.timeout,
	)
	s.logger.Info(
		"seat journal stored in GCS",
		"component", "database",
		"location", s.loc.String(),
	)
	return nil
}

func (s *Store) Stop() error { return s.Close() }

// Close releases the storage client
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
