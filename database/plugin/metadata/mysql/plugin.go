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
	"sync"

	"github.com/blinklabs-io/internhub/database/plugin"
	"github.com/blinklabs-io/internhub/database/plugin/metadata/internal/gormstore"
)

var (
	flagConn   = defaultConn
	flagConnMu sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "mysql",
			Description:        "postings and applications in MySQL",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options:            flagConn.PluginOptions("MySQL"),
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	flagConnMu.RLock()
	conn := flagConn
	flagConnMu.RUnlock()
	return NewWithOptions(nil, nil, gormstore.WithConn(conn))
}
