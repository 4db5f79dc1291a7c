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

package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/internhub/database/plugin/blob/blobmetrics"
	"github.com/blinklabs-io/internhub/database/plugin/blob/objectstore"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultTimeout = time.Minute

// Store keeps the seat journal in an S3 bucket. The bucket is not contacted
// until Start.
type Store struct {
	*objectstore.Store
	loc          objectstore.Location
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	client       *s3.Client
	region       string
	endpoint     string
	timeout      time.Duration
}

// New creates a store for a data dir of the form "s3://bucket[/prefix]"
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Store, error) {
	loc, err := objectstore.ParseLocation("s3", dataDir)
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
	s.logger = s.logger.With("backend", "s3")
	s.loc.Prefix = objectstore.NormalizePrefix(s.loc.Prefix)
	return s
}

// Start loads the AWS configuration and builds the S3 client
func (s *Store) Start() error {
	if s.loc.Bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load AWS config: %w", err)
	}
	if s.region != "" {
		awsCfg.Region = s.region
	}
	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.endpoint == "" {
			return
		}
		// minio and friends want path-style addressing
		o.BaseEndpoint = aws.String(s.endpoint)
		o.UsePathStyle = true
	})
	s.Store = objectstore.New(
		"s3",
		s,
		s.logger,
		blobmetrics.New(s.promRegistry, "s3"),
		s.timeout,
	)
	s.logger.Info(
		"seat journal stored in S3",
		"component", "database",
		"location", s.loc.String(),
	)
	return nil
}

// Stop implements plugin.Plugin. The S3 client holds nothing to release.
func (s *Store) Stop() error { return nil }

func (s *Store) Close() error { return s.Stop() }

func (s *Store) Bucket() string { return s.loc.Bucket }

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}
