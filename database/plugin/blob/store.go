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

package blob

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/internhub/database/plugin"
	"github.com/blinklabs-io/internhub/database/plugin/blob/aws"
	"github.com/blinklabs-io/internhub/database/plugin/blob/badger"
	"github.com/blinklabs-io/internhub/database/plugin/blob/gcs"
	"github.com/blinklabs-io/internhub/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultPlugin is the blob plugin used when none is configured
const DefaultPlugin = "badger"

type BlobStore interface {
	Close() error
	NewTransaction(bool) types.Txn
	Get(types.Txn, []byte) ([]byte, error)
	Set(types.Txn, []byte, []byte) error
	Delete(types.Txn, []byte) error
	NewIterator(types.Txn, types.BlobIteratorOptions) types.BlobIterator

	// Our specific functions
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
}

type cloudStore interface {
	BlobStore
	Start() error
}

// New returns the started blob plugin selected by name. A dataDir of the
// form "s3://bucket[/prefix]" or "gcs://bucket[/prefix]" selects the matching
// cloud plugin regardless of pluginName.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (BlobStore, error) {
	var (
		cloud cloudStore
		err   error
	)
	switch {
	case strings.HasPrefix(dataDir, "s3://"):
		cloud, err = aws.New(dataDir, logger, promRegistry)
	case strings.HasPrefix(dataDir, "gcs://"):
		cloud, err = gcs.New(dataDir, logger, promRegistry)
	}
	if err != nil {
		return nil, err
	}
	if cloud != nil {
		if err := cloud.Start(); err != nil {
			return nil, err
		}
		return cloud, nil
	}
	if pluginName == "" {
		pluginName = DefaultPlugin
	}
	if pluginName == "badger" {
		return badger.New(
			badger.WithDataDir(dataDir),
			badger.WithLogger(logger),
			badger.WithPromRegistry(promRegistry),
		)
	}
	p, err := plugin.StartPlugin(plugin.PluginTypeBlob, pluginName)
	if err != nil {
		return nil, err
	}
	store, ok := p.(BlobStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin %q does not implement BlobStore",
			pluginName,
		)
	}
	return store, nil
}
