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

package event

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type eventMetrics struct {
	eventsTotal    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
	dropped        *prometheus.CounterVec
}

func newEventMetrics(promRegistry prometheus.Registerer) *eventMetrics {
	return &eventMetrics{
		eventsTotal: registerCounterVec(
			promRegistry,
			prometheus.CounterOpts{
				Name: "event_bus_events_total",
				Help: "total events published by type",
			},
			[]string{"type"},
		),
		subscribers: registerGaugeVec(
			promRegistry,
			prometheus.GaugeOpts{
				Name: "event_bus_subscribers",
				Help: "current subscribers by event type and kind",
			},
			[]string{"type", "kind"},
		),
		deliveryErrors: registerCounterVec(
			promRegistry,
			prometheus.CounterOpts{
				Name: "event_bus_delivery_errors_total",
				Help: "failed deliveries by event type and subscriber kind",
			},
			[]string{"type", "kind"},
		),
		dropped: registerCounterVec(
			promRegistry,
			prometheus.CounterOpts{
				Name: "event_bus_dropped_total",
				Help: "events dropped on full subscriber buffers by type",
			},
			[]string{"type"},
		),
	}
}

// registerCounterVec reuses an already registered collector so that several
// buses can share one registry
func registerCounterVec(
	reg prometheus.Registerer,
	opts prometheus.CounterOpts,
	labels []string,
) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		return promauto.With(nil).NewCounterVec(opts, labels)
	}
	return vec
}

func registerGaugeVec(
	reg prometheus.Registerer,
	opts prometheus.GaugeOpts,
	labels []string,
) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(opts, labels)
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing
			}
		}
		return promauto.With(nil).NewGaugeVec(opts, labels)
	}
	return vec
}
