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

package database

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	txnResultCommit   = "commit"
	txnResultRollback = "rollback"
	txnResultError    = "error"
)

type txnMetrics struct {
	txns     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newTxnMetrics(promRegistry prometheus.Registerer) *txnMetrics {
	m := &txnMetrics{
		txns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "internhub_database_transactions_total",
				Help: "finished database transactions by mode and result",
			},
			[]string{"mode", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "internhub_database_transaction_duration_seconds",
				Help:    "time from transaction start to commit or rollback",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"mode"},
		),
	}
	if promRegistry == nil {
		return m
	}
	// Reuse collectors when several databases share a registry
	if err := promRegistry.Register(m.txns); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				m.txns = existing
			}
		}
	}
	if err := promRegistry.Register(m.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				m.duration = existing
			}
		}
	}
	return m
}

func (m *txnMetrics) observe(readWrite bool, result string, started time.Time) {
	if m == nil {
		return
	}
	mode := "ro"
	if readWrite {
		mode = "rw"
	}
	m.txns.WithLabelValues(mode, result).Inc()
	m.duration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}
