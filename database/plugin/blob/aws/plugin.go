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
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin"
)

var (
	flagOpts struct {
		bucket         string
		prefix         string
		region         string
		endpoint       string
		timeoutSeconds uint64
	}
	flagOptsMu sync.RWMutex
)

func init() {
	flagOpts.timeoutSeconds = uint64(defaultTimeout / time.Second)
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "s3",
			Description:        "seat journal in an AWS S3 bucket",
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
					Description: "object key prefix",
					Dest:        &(flagOpts.prefix),
				},
				{
					Name:        "region",
					Type:        plugin.PluginOptionTypeString,
					Description: "region override",
					Dest:        &(flagOpts.region),
				},
				{
					Name:        "endpoint",
					Type:        plugin.PluginOptionTypeString,
					Description: "endpoint URL of an S3-compatible server",
					Dest:        &(flagOpts.endpoint),
				},
				{
					Name:         "timeout",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "per-operation timeout in seconds",
					DefaultValue: uint64(defaultTimeout / time.Second),
					Dest:         &(flagOpts.timeoutSeconds),
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
		WithRegion(flagOpts.region),
		WithEndpoint(flagOpts.endpoint),
		WithTimeout(time.Duration(flagOpts.timeoutSeconds)*time.Second), //nolint:gosec
	)
}
