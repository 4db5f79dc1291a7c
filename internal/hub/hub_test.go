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
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blinklabs-io/internhub"
	"github.com/blinklabs-io/internhub/internal/config"
	"github.com/blinklabs-io/internhub/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsBuildValidHub(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:       "secret",
		ShutdownTimeout: "5s",
		RateLimit:       -1,
	}
	h, err := internhub.New(
		internhub.NewConfig(Options(cfg, nil, prometheus.NewRegistry())...),
	)
	require.NoError(t, err)
	require.NoError(t, h.Stop())
}

func TestOptionsWithoutSecret(t *testing.T) {
	_, err := internhub.New(
		internhub.NewConfig(Options(&config.Config{}, nil, prometheus.NewRegistry())...),
	)
	require.Error(t, err)
}

func TestMetricsServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "internhub_test_total",
		Help: "test counter",
	})
	registry.MustRegister(counter)
	counter.Inc()
	srv := newMetricsServer(&config.Config{BindAddr: "127.0.0.1", MetricsPort: 9999}, registry)
	assert.Equal(t, "127.0.0.1:9999", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "internhub_test_total 1")
}

func TestReconcileEmptyStore(t *testing.T) {
	cfg := &config.Config{}
	results, err := Reconcile(context.Background(), cfg, slog.Default(), "")
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = Reconcile(
		context.Background(),
		cfg,
		slog.Default(),
		"3f1b7f0e-4a55-4d8e-9a34-5b7c2f9d1e00",
	)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
