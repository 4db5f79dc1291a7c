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
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blinklabs-io/internhub"
	"github.com/blinklabs-io/internhub/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Options builds the hub options described by cfg
func Options(
	cfg *config.Config,
	logger *slog.Logger,
	registry prometheus.Registerer,
) []internhub.ConfigOptionFunc {
	return []internhub.ConfigOptionFunc{
		internhub.WithLogger(logger),
		internhub.WithDatabasePath(cfg.DatabasePath),
		internhub.WithBlobPlugin(cfg.BlobPlugin),
		internhub.WithMetadataPlugin(cfg.MetadataPlugin),
		internhub.WithBindAddr(cfg.BindAddr),
		internhub.WithAPIPort(cfg.ApiPort),
		internhub.WithTlsCertFilePath(cfg.TlsCertFilePath),
		internhub.WithTlsKeyFilePath(cfg.TlsKeyFilePath),
		internhub.WithJWTSecret([]byte(cfg.JWTSecret)),
		internhub.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		internhub.WithReconcileSchedule(cfg.ReconcileSchedule),
		internhub.WithShutdownTimeout(cfg.ShutdownTimeoutDuration()),
		internhub.WithPrometheusRegistry(registry),
		internhub.WithTracing(cfg.Tracing),
		internhub.WithTracingStdout(cfg.TracingStdout),
	}
}

func newMetricsServer(cfg *config.Config, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr: net.JoinHostPort(
			cfg.BindAddr,
			strconv.FormatUint(uint64(cfg.MetricsPort), 10),
		),
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves the hub and its metrics listener until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(
		fmt.Sprintf(
			"config: bindAddr=%s apiPort=%d metricsPort=%d databasePath=%s blob=%s metadata=%s",
			cfg.BindAddr,
			cfg.ApiPort,
			cfg.MetricsPort,
			cfg.DatabasePath,
			cfg.BlobPlugin,
			cfg.MetadataPlugin,
		),
		"component", "hub",
	)
	h, err := internhub.New(
		internhub.NewConfig(
			Options(cfg, logger, prometheus.DefaultRegisterer)...,
		),
	)
	if err != nil {
		return err
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	metricsServer := newMetricsServer(cfg, prometheus.DefaultGatherer)
	g, gctx := errgroup.WithContext(signalCtx)
	if cfg.MetricsPort > 0 {
		g.Go(func() error {
			logger.Info(
				"serving prometheus metrics on "+metricsServer.Addr,
				"component", "hub",
			)
			err := metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				cfg.ShutdownTimeoutDuration(),
			)
			defer cancel()
			//nolint:contextcheck
			return metricsServer.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		err := h.Run(gctx)
		if stopErr := h.Stop(); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
		if err != nil {
			return err
		}
		// Take the metrics listener down with the hub
		signalCtxStop()
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("shutdown errors occurred", "error", err, "component", "hub")
		return err
	}
	logger.Info("shutdown complete", "component", "hub")
	return nil
}
