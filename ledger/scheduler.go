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
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReconcileSchedule runs a full reconcile at the top of every hour
const DefaultReconcileSchedule = "@hourly"

// Scheduler runs ReconcileAll on a cron schedule
type Scheduler struct {
	ledger   *Ledger
	logger   *slog.Logger
	cron     *cron.Cron
	timeout  time.Duration
	schedule string
	mu       sync.Mutex
	running  bool
}

// NewScheduler validates schedule and returns a stopped scheduler. Each run is
// bounded by timeout when it is positive.
func NewScheduler(
	l *Ledger,
	schedule string,
	timeout time.Duration,
	logger *slog.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	cronLogger := cronLogger{logger: logger}
	s := &Scheduler{
		ledger:   l,
		logger:   logger,
		timeout:  timeout,
		schedule: schedule,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(
				cron.Recover(cronLogger),
				cron.SkipIfStillRunning(cronLogger),
			),
		),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running scheduled reconciles in the background
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info(
		"scheduled seat reconcile",
		"component", "ledger",
		"schedule", s.schedule,
	)
}

// Stop stops the scheduler and waits for a running reconcile to finish or
// for ctx to end
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow performs a reconcile immediately on the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context) ([]ReconcileResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.ledger.ReconcileAll(ctx)
}

func (s *Scheduler) run() {
	results, err := s.RunNow(context.Background())
	if err != nil {
		s.logger.Error(
			"scheduled reconcile failed",
			"component", "ledger",
			"error", err,
		)
	}
	repaired := 0
	for _, r := range results {
		if r.Repaired {
			repaired++
		}
	}
	s.logger.Debug(
		"scheduled reconcile finished",
		"component", "ledger",
		"postings", len(results),
		"repaired", repaired,
	)
}

// cronLogger adapts slog to the cron logging interface
type cronLogger struct {
	logger *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug(msg, append(keysAndValues, "component", "ledger")...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.logger.Error(
		msg,
		append(keysAndValues, "component", "ledger", "error", err)...,
	)
}
