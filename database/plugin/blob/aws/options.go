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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithPromRegistry(registry prometheus.Registerer) Option {
	return func(s *Store) { s.promRegistry = registry }
}

func WithBucket(bucket string) Option {
	return func(s *Store) { s.loc.Bucket = bucket }
}

// WithPrefix places every journal object under prefix
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.loc.Prefix = prefix }
}

// WithRegion overrides the region from the AWS default config chain
func WithRegion(region string) Option {
	return func(s *Store) { s.region = region }
}

// WithEndpoint points the client at an S3-compatible server such as minio
func WithEndpoint(endpoint string) Option {
	return func(s *Store) { s.endpoint = endpoint }
}

// WithTimeout bounds config loading and each object operation
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}
