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
	"sync"

	"github.com/blinklabs-io/internhub/database/plugin"
)

var (
	flagOpts struct {
		bucket          string
		prefix          string
		credentialsFile string
	}
	flagOptsMu sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "gcs",
			Description:        "seat journal in a Google Cloud Storage bucket",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:        "bucket",
					Type:        plugin.PluginOptionTypeString,
					Description: "bucket name",
					Dest:        &(flagOpts.bucket),
				},
				{
					Name:        "prefix",
					Type:        plugin.PluginOptionTypeString,
					Description: "object name prefix",
					Dest:        &(flagOpts.prefix),
				},
				{
					Name:        "credentials-file",
					Type:        plugin.PluginOptionTypeString,
					Description: "service account credentials file (default: application default credentials)",
					Dest:        &(flagOpts.credentialsFile),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	flagOptsMu.RLock()
	defer flagOptsMu.RUnlock()
	return NewWithOptions(
		WithBucket(flagOpts.bucket),
		WithPrefix(flagOpts.prefix),
		WithCredentialsFile(flagOpts.credentialsFile),
	)
}
