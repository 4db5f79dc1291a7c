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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	operations         *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	seatsConsumed      prometheus.Counter
	seatsReleased      prometheus.Counter
	postingsLocked     prometheus.Counter
	postingsUnlocked   prometheus.Counter
	reconcileRepairs   prometheus.Counter
	applicationsDenied prometheus.Counter
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internhub_ledger_operations_total",
			Help: "ledger operations by name and result",
		},
		[]string{"op", "result"},
	)
	m.operationDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "internhub_ledger_operation_duration_seconds",
			Help:    "ledger operation latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"op"},
	)
	m.seatsConsumed = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "internhub_ledger_seats_consumed_total",
		Help: "seats taken by submitted or restored applications",
	})
	m.seatsReleased = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "internhub_ledger_seats_released_total",
		Help: "seats freed by rejected or deleted applications",
	})
	m.postingsLocked = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "internhub_ledger_postings_locked_total",
		Help: "times a posting filled up",
	})
	m.postingsUnlocked = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "internhub_ledger_postings_unlocked_total",
		Help: "times a full posting reopened",
	})
	m.reconcileRepairs = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "internhub_ledger_reconcile_repairs_total",
		Help: "postings whose seat state was corrected by reconcile",
	})
	m.applicationsDenied = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "internhub_ledger_applications_denied_total",
		Help: "applications refused because the posting was full",
	})
}

// seatChange records the metrics for a seat delta and lock transition
func (m *ledgerMetrics) seatChange(delta int, lockChanged bool, locked bool) {
	switch {
	case delta > 0:
		m.seatsConsumed.Add(float64(delta))
	case delta < 0:
		m.seatsReleased.Add(float64(-delta))
	}
	if !lockChanged {
		return
	}
	if locked {
		m.postingsLocked.Inc()
	} else {
		m.postingsUnlocked.Inc()
	}
}
