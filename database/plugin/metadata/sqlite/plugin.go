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
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin"
)

const defaultDataDir = ".internhub"

var (
	flagOpts struct {
		dataDir       string
		busyTimeoutMs uint64
		vacuumHours   uint64
	}
	flagOptsMu sync.RWMutex
)

func init() {
	flagOpts.dataDir = defaultDataDir
	flagOpts.busyTimeoutMs = uint64(DefaultBusyTimeout.Milliseconds())
	flagOpts.vacuumHours = uint64(DefaultVacuumInterval / time.Hour)
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "postings and applications in SQLite",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "database directory (empty for in-memory)",
					DefaultValue: defaultDataDir,
					Dest:         &(flagOpts.dataDir),
				},
				{
					Name:         "busy-timeout",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "milliseconds to wait on a locked database",
					DefaultValue: uint64(DefaultBusyTimeout.Milliseconds()),
					Dest:         &(flagOpts.busyTimeoutMs),
				},
				{
					Name:         "vacuum-interval",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "hours between VACUUM runs (0 disables)",
					DefaultValue: uint64(DefaultVacuumInterval / time.Hour),
					Dest:         &(flagOpts.vacuumHours),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	flagOptsMu.RLock()
	defer flagOptsMu.RUnlock()
	return NewWithOptions(
		WithDataDir(flagOpts.dataDir),
		WithBusyTimeout(time.Duration(flagOpts.busyTimeoutMs)*time.Millisecond), //nolint:gosec
		WithVacuumInterval(time.Duration(flagOpts.vacuumHours)*time.Hour),       //nolint:gosec
	)
}
