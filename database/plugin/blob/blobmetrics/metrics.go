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

// Package blobmetrics holds the prometheus collectors shared by the blob
// store plugins.
package blobmetrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamePrefix = "database_blob_"

// Operation labels
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpList   = "list"
)

// Metrics counts blob store operations. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	ops    *prometheus.CounterVec
	errors *prometheus.CounterVec
	bytes  *prometheus.CounterVec
}

// New registers the blob collectors on the given registry. Collectors that
// are already registered, for example by a previous store instance, are
// reused.
func New(reg prometheus.Registerer, backend string) *Metrics {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"backend": backend}
	return &Metrics{
		ops: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        metricNamePrefix + "ops_total",
				Help:        "Total number of blob operations",
				ConstLabels: labels,
			},
			[]string{"op"},
		)),
		errors: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        metricNamePrefix + "errors_total",
				Help:        "Total number of failed blob operations",
				ConstLabels: labels,
			},
			[]string{"op"},
		)),
		bytes: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        metricNamePrefix + "bytes_total",
				Help:        "Total bytes read/written for blob operations",
				ConstLabels: labels,
			},
			[]string{"op"},
		)),
	}
}

func register(
	reg prometheus.Registerer,
	c *prometheus.CounterVec,
) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Observe records the outcome of a single operation
func (m *Metrics) Observe(op string, size int, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op).Inc()
	if err != nil {
		m.errors.WithLabelValues(op).Inc()
		return
	}
	if size > 0 {
		m.bytes.WithLabelValues(op).Add(float64(size))
	}
}
