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

package blobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe(OpGet, 10, nil)
	})
	assert.Nil(t, New(nil, "badger"))
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "badger")
	require.NotNil(t, m)
	m.Observe(OpSet, 42, nil)
	m.Observe(OpGet, 0, errors.New("boom"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.ops.WithLabelValues(OpSet)), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.bytes.WithLabelValues(OpSet)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errors.WithLabelValues(OpGet)), 0)
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg, "badger")
	second := New(reg, "badger")
	second.Observe(OpDelete, 0, nil)
	assert.InDelta(t, 1, testutil.ToFloat64(first.ops.WithLabelValues(OpDelete)), 0)
}
