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
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin"
)

const defaultDataDir = ".internhub"

var (
	flagOpts struct {
		dataDir    string
		cacheSize  uint64
		gcMinutes  uint64
		syncWrites bool
	}
	flagOptsMu sync.RWMutex
)

func init() {
	flagOpts.dataDir = defaultDataDir
	flagOpts.cacheSize = DefaultCacheSize
	flagOpts.gcMinutes = uint64(DefaultGcInterval / time.Minute)
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "badger",
			Description:        "seat journal in a local BadgerDB",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "journal directory (empty for in-memory)",
					DefaultValue: defaultDataDir,
					Dest:         &(flagOpts.dataDir),
				},
				{
					Name:         "cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "block cache size in bytes",
					DefaultValue: uint64(DefaultCacheSize),
					Dest:         &(flagOpts.cacheSize),
				},
				{
					Name:         "gc-interval",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "minutes between value log GC runs (0 disables)",
					DefaultValue: uint64(DefaultGcInterval / time.Minute),
					Dest:         &(flagOpts.gcMinutes),
				},
				{
					Name:         "sync-writes",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "fsync the journal on every commit",
					DefaultValue: false,
					Dest:         &(flagOpts.syncWrites),
				},
			},
		},
	)
}

// NewFromCmdlineOptions opens a store from the registered plugin options.
// Open errors surface from Start.
func NewFromCmdlineOptions() plugin.Plugin {
	flagOptsMu.RLock()
	opts := []Option{
		WithDataDir(flagOpts.dataDir),
		WithCacheSize(flagOpts.cacheSize),
		WithGcInterval(time.Duration(flagOpts.gcMinutes) * time.Minute), //nolint:gosec
		WithSyncWrites(flagOpts.syncWrites),
	}
	flagOptsMu.RUnlock()
	s, err := New(opts...)
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return s
}
