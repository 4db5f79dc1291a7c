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

package internhub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/api"
	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/event"
	"github.com/blinklabs-io/internhub/ledger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultShutdownTimeout  = 30 * time.Second
	defaultReconcileTimeout = 5 * time.Minute
)

var ErrHubStopped = errors.New("hub has been stopped")

type Hub struct {
	db            *database.Database
	eventBus      *event.EventBus
	ledger        *ledger.Ledger
	scheduler     *ledger.Scheduler
	api           *api.API
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	ready         chan struct{}
	logger        *slog.Logger
	shutdownOnce  sync.Once
	shutdownErr   error
}

func New(cfg Config) (*Hub, error) {
	h := &Hub{
		config: cfg,
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
	}
	if err := h.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if h.config.logger == nil {
		h.config.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	h.eventBus = event.NewEventBus(cfg.promRegistry, h.config.logger)
	h.logger = h.config.logger.With("component", "hub")
	return h, nil
}

// Ready is closed once the hub is serving requests
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// Ledger returns the capacity ledger. It is nil until Ready is closed
func (h *Hub) Ledger() *ledger.Ledger {
	select {
	case <-h.ready:
		return h.ledger
	default:
		return nil
	}
}

// EventBus returns the event bus carrying ledger events
func (h *Hub) EventBus() *event.EventBus {
	return h.eventBus
}

// Run opens the stores and serves the API until ctx is done or Stop is called.
// Stop must be called to release resources when Run fails.
func (h *Hub) Run(ctx context.Context) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	// Configure tracing
	if h.config.tracing {
		if err := h.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbNeedsRecovery := false
	db, err := database.New(&database.Config{
		DataDir:        h.config.dataDir,
		BlobPlugin:     h.config.blobPlugin,
		MetadataPlugin: h.config.metadataPlugin,
		Logger:         h.config.logger,
		PromRegistry:   h.config.promRegistry,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	h.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			h.closeDatabase()
			return fmt.Errorf("failed to open database: %w", err)
		}
		h.logger.Warn(
			"database initialization error, needs recovery",
			"error",
			err,
		)
		dbNeedsRecovery = true
	}
	h.subscribeAudit()
	h.ledger = ledger.New(ledger.LedgerConfig{
		Logger:       h.config.logger,
		Database:     h.db,
		EventBus:     h.eventBus,
		PromRegistry: h.config.promRegistry,
	})
	// The stores disagree on the last commit, so rebuild seat counts from
	// the application records
	if dbNeedsRecovery {
		results, err := h.ledger.ReconcileAll(ctx)
		if err != nil {
			h.closeDatabase()
			return fmt.Errorf("failed to recover database: %w", err)
		}
		h.logger.Info(
			"recovered seat counts",
			"postings", len(results),
		)
	}
	if h.config.reconcileSchedule != "" {
		h.scheduler, err = ledger.NewScheduler(
			h.ledger,
			h.config.reconcileSchedule,
			defaultReconcileTimeout,
			h.config.logger,
		)
		if err != nil {
			h.closeDatabase()
			return err
		}
		h.scheduler.Start()
	}
	h.api = api.New(api.APIConfig{
		Logger:          h.config.logger,
		Ledger:          h.ledger,
		PromRegistry:    h.config.promRegistry,
		Host:            h.config.bindAddr,
		Port:            h.config.apiPort,
		Listener:        h.config.apiListener,
		TlsCertFilePath: h.config.tlsCertFilePath,
		TlsKeyFilePath:  h.config.tlsKeyFilePath,
		JWTSecret:       h.config.jwtSecret,
		RateLimit:       h.config.rateLimit,
		RateBurst:       h.config.rateBurst,
	})
	close(h.ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(h.api.Start)
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-h.done:
		}
		return h.Stop()
	})
	return g.Wait()
}

func (h *Hub) Stop() error {
	h.shutdownOnce.Do(func() {
		h.shutdownErr = h.shutdown()
	})
	return h.shutdownErr
}

func (h *Hub) shutdown() error {
	shutdownTimeout := defaultShutdownTimeout
	if h.config.shutdownTimeout > 0 {
		shutdownTimeout = h.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	h.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	if h.api != nil {
		if stopErr := h.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if h.scheduler != nil {
		if stopErr := h.scheduler.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("scheduler shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain events and close the stores
	if h.eventBus != nil {
		h.eventBus.Stop()
	}
	if closeErr := h.closeDatabase(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
	}

	// Phase 3: Call registered shutdown functions
	for _, fn := range h.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	h.shutdownFuncs = nil

	h.logger.Debug("graceful shutdown complete")
	close(h.done)
	return err
}

func (h *Hub) closeDatabase() error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
