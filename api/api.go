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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"
)

const (
	DefaultPort      = 8080
	DefaultRateLimit = 50
	DefaultRateBurst = 100

	maxRequestBodyBytes = 1 << 20
)

type APIConfig struct {
	Logger          *slog.Logger
	Ledger          *ledger.Ledger
	PromRegistry    prometheus.Registerer
	Host            string
	TlsCertFilePath string
	TlsKeyFilePath  string
	JWTSecret       []byte
	// Listener is used instead of Host and Port when set
	Listener net.Listener
	Port     uint
	// RateLimit is the sustained request rate allowed across all clients.
	// Zero selects the default and a negative value disables limiting.
	RateLimit float64
	RateBurst int
}

// API serves the ledger over HTTP with JSON bodies
type API struct {
	config  APIConfig
	limiter *rate.Limiter
	metrics *apiMetrics
	server  *http.Server
	mu      sync.Mutex
	stopped bool
}

func New(cfg APIConfig) *API {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "api")
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	a := &API{
		config:  cfg,
		metrics: newAPIMetrics(cfg.PromRegistry),
	}
	if cfg.RateLimit > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	return a
}

// Handler returns the routed handler with middleware applied
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerRoutes(mux)
	return a.recoverPanics(a.instrument(a.rateLimit(mux)))
}

// Start listens on the configured address and serves until Stop is called.
// It returns nil after a clean shutdown.
func (a *API) Start() error {
	addr := net.JoinHostPort(a.config.Host, fmt.Sprintf("%d", a.config.Port))
	useTls := a.config.TlsCertFilePath != "" && a.config.TlsKeyFilePath != ""
	handler := a.Handler()
	if !useTls {
		// Cleartext HTTP/2 for clients that ask for it
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	if a.server != nil {
		a.mu.Unlock()
		return errors.New("API server already started")
	}
	a.server = server
	a.mu.Unlock()
	listener := a.config.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}
	var err error
	if useTls {
		a.config.Logger.Info("starting API TLS listener on " + listener.Addr().String())
		err = server.ServeTLS(
			listener,
			a.config.TlsCertFilePath,
			a.config.TlsKeyFilePath,
		)
	} else {
		a.config.Logger.Info("starting API listener on " + listener.Addr().String())
		err = server.Serve(listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server, waiting for in-flight requests until
// ctx is done
func (a *API) Stop(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	a.stopped = true
	a.mu.Unlock()
	if server == nil {
		return nil
	}
	a.config.Logger.Info("stopping API listener")
	return server.Shutdown(ctx)
}
