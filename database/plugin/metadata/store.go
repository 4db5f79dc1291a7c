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

package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/database/plugin"
	_ "github.com/blinklabs-io/internhub/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/internhub/database/plugin/metadata/postgres"
	"github.com/blinklabs-io/internhub/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/internhub/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// DefaultPlugin is the metadata plugin used when none is configured
const DefaultPlugin = "sqlite"

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	Ping() error
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction(context.Context) types.Txn

	// Postings
	GetPosting(string, types.Txn) (*models.Posting, error)
	ListPostings(models.PostingFilter, types.Txn) ([]models.Posting, error)
	ListPostingIDs(types.Txn) ([]string, error)
	CreatePosting(*models.Posting, types.Txn) error
	UpdatePosting(
		*models.Posting,
		uint64, // expected version
		types.Txn,
	) error
	DeletePosting(string, types.Txn) error
	CountApplicationsForPosting(
		string, // posting ID
		bool, // seat holders only
		types.Txn,
	) (int64, error)

	// Applications
	GetApplication(string, types.Txn) (*models.Application, error)
	FindApplication(
		string, // applicant ID
		string, // posting ID
		types.Txn,
	) (*models.Application, error)
	ListApplications(
		models.ApplicationFilter,
		types.Txn,
	) ([]models.Application, error)
	CreateApplication(*models.Application, types.Txn) error
	UpdateApplicationStatus(
		*models.Application,
		string, // expected current status
		types.Txn,
	) error
	DeleteApplication(string, types.Txn) error
}

// New returns a started metadata store. The sqlite plugin is built directly
// so that it shares the caller's logger and data directory. Other plugins
// come from the plugin registry and use their configured options.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	if pluginName == "" {
		pluginName = DefaultPlugin
	}
	if pluginName == "sqlite" {
		store, err := sqlite.New(dataDir, logger, promRegistry)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	p := plugin.GetPlugin(plugin.PluginTypeMetadata, pluginName)
	if p == nil {
		return nil, fmt.Errorf("metadata plugin '%s' not found", pluginName)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start metadata plugin '%s': %w",
			pluginName,
			err,
		)
	}
	store, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, errors.New("plugin is not a metadata store")
	}
	return store, nil
}
