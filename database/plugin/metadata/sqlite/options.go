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

// WithDataDir sets the directory holding metadata.sqlite. Empty keeps the
// database in memory.
func WithDataDir(dataDir string) Option {
	return func(s *Store) { s.dataDir = dataDir }
}

// WithBusyTimeout sets how long a connection waits on a locked database
func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.busyTimeout = timeout }
}

// WithVacuumInterval sets how often the file is vacuumed. Zero disables it.
func WithVacuumInterval(interval time.Duration) Option {
	return func(s *Store) { s.vacuumInterval = interval }
}
