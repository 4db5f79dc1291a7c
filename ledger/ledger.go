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

package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/internhub/ledger"

type LedgerConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// Now overrides the clock used for timestamps
	Now func() time.Time
}

// Ledger owns seat accounting for postings and the application lifecycle.
// Every mutation of a posting's seat state runs under that posting's lock
// inside a single database transaction.
type Ledger struct {
	config       LedgerConfig
	db           *database.Database
	postingLocks *keyedMutex
	tracer       trace.Tracer
	metrics      ledgerMetrics
}

func New(cfg LedgerConfig) *Ledger {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := &Ledger{
		config:       cfg,
		db:           cfg.Database,
		postingLocks: newKeyedMutex(),
		tracer:       otel.Tracer(tracerName),
	}
	l.metrics.init(cfg.PromRegistry)
	return l
}

func (l *Ledger) now() time.Time {
	return l.config.Now().UTC()
}

// Health reports whether the record store is reachable
func (l *Ledger) Health(ctx context.Context) error {
	_, span := l.tracer.Start(ctx, "ledger.Health")
	defer span.End()
	if l.db == nil {
		return errStoreUnavailable
	}
	if err := l.db.Ping(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return &Error{
			Kind:    KindStoreUnavailable,
			Message: "database unavailable",
			Err:     err,
		}
	}
	return nil
}

// begin starts tracing for an operation and checks the store is configured
func (l *Ledger) begin(
	ctx context.Context,
	op string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span, time.Time, error) {
	ctx, span := l.tracer.Start(
		ctx,
		"ledger."+op,
		trace.WithAttributes(attrs...),
	)
	start := time.Now()
	if l.db == nil {
		return ctx, span, start, errStoreUnavailable
	}
	if err := ctx.Err(); err != nil {
		return ctx, span, start, err
	}
	return ctx, span, start, nil
}

// view runs fn in a read-only transaction whose queries carry ctx
func (l *Ledger) view(ctx context.Context, fn func(*database.Txn) error) error {
	return l.db.TransactionContext(ctx, false).Do(fn)
}

// finish records the outcome of an operation and returns err
func (l *Ledger) finish(
	span trace.Span,
	op string,
	start time.Time,
	err error,
) error {
	defer span.End()
	result := "ok"
	if err != nil {
		result = string(KindOf(err))
		if result == "" {
			result = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var lerr *Error
		if !errors.As(err, &lerr) || lerr.Kind == KindStoreUnavailable {
			l.config.Logger.Error(
				"ledger operation failed",
				"component", "ledger",
				"op", op,
				"error", err,
			)
		}
	}
	l.metrics.operations.WithLabelValues(op, result).Inc()
	l.metrics.operationDuration.WithLabelValues(op).
		Observe(time.Since(start).Seconds())
	return err
}

// publish queues an event when an event bus is configured
func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.config.EventBus == nil {
		return
	}
	l.config.EventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}

// lockPosting serializes seat changes on a posting within this process
func (l *Ledger) lockPosting(postingId string) func() {
	return l.postingLocks.Lock(postingId)
}
