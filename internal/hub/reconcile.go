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

package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/internal/config"
	"github.com/blinklabs-io/internhub/ledger"
)

// Reconcile opens the configured stores and repairs the seat count of one
// posting, or of every posting when postingId is empty
func Reconcile(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	postingId string,
) ([]ledger.ReconcileResult, error) {
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		Logger:         logger,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if db == nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err != nil {
		var tsErr database.CommitTimestampError
		if !errors.As(err, &tsErr) {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		// A commit timestamp mismatch is what reconciling repairs
		logger.Warn(
			"database initialization error, reconciling anyway",
			"error", err,
			"component", "hub",
		)
	}
	l := ledger.New(ledger.LedgerConfig{
		Logger:   logger,
		Database: db,
	})
	if postingId == "" {
		return l.ReconcileAll(ctx)
	}
	result, err := l.Reconcile(ctx, postingId)
	if err != nil {
		return nil, err
	}
	return []ledger.ReconcileResult{*result}, nil
}
