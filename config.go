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
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry      prometheus.Registerer
	logger            *slog.Logger
	apiListener       net.Listener
	dataDir           string
	blobPlugin        string
	metadataPlugin    string
	bindAddr          string
	tlsCertFilePath   string
	tlsKeyFilePath    string
	reconcileSchedule string
	jwtSecret         []byte
	apiPort           uint
	rateLimit         float64
	rateBurst         int
	shutdownTimeout   time.Duration
	tracing           bool
	tracingStdout     bool
}

func (h *Hub) configValidate() error {
	if len(h.config.jwtSecret) == 0 {
		return errors.New("a JWT secret is required")
	}
	if (h.config.tlsCertFilePath == "") != (h.config.tlsKeyFilePath == "") {
		return errors.New("TLS certificate and key must be provided together")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the hub config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new hub config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithBindAddr specifies the address the API listener binds to
func WithBindAddr(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.bindAddr = addr
	}
}

// WithAPIPort specifies the port to use for the HTTP API listener. This defaults to port 8080
func WithAPIPort(port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.apiPort = port
	}
}

// WithAPIListener provides an already open listener for the HTTP API. It takes precedence over the bind address and port
func WithAPIListener(listener net.Listener) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListener = listener
	}
}

// WithTlsCertFilePath specifies the path to the TLS certificate for the HTTP API listener. This defaults to empty
func WithTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithTlsKeyFilePath specifies the path to the TLS key for the HTTP API listener. This defaults to empty
func WithTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithJWTSecret specifies the HMAC secret used to verify bearer tokens
func WithJWTSecret(secret []byte) ConfigOptionFunc {
	return func(c *Config) {
		c.jwtSecret = secret
	}
}

// WithRateLimit specifies the sustained request rate and burst size for the API. A negative rate disables limiting
func WithRateLimit(limit float64, burst int) ConfigOptionFunc {
	return func(c *Config) {
		c.rateLimit = limit
		c.rateBurst = burst
	}
}

// WithReconcileSchedule specifies the cron schedule for seat reconciliation. An empty schedule disables it
func WithReconcileSchedule(schedule string) ConfigOptionFunc {
	return func(c *Config) {
		c.reconcileSchedule = schedule
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithShutdownTimeout specifies how long graceful shutdown may take. This defaults to 30s
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
