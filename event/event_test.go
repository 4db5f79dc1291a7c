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

package event_test

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/internhub/event"
	"github.com/blinklabs-io/internhub/internal/test/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.PostingCreatedEventType)
	eb.Publish(
		event.PostingCreatedEventType,
		event.NewEvent(
			event.PostingCreatedEventType,
			event.PostingCreatedEvent{PostingID: "p1"},
		),
	)
	evt := receive(t, subCh)
	data, ok := evt.Data.(event.PostingCreatedEvent)
	require.True(t, ok, "unexpected event data type %T", evt.Data)
	assert.Equal(t, "p1", data.PostingID)
	assert.Equal(t, event.PostingCreatedEventType, evt.Type)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(event.PostingDeletedEventType)
	_, sub2Ch := eb.Subscribe(event.PostingDeletedEventType)
	eb.Publish(
		event.PostingDeletedEventType,
		event.NewEvent(event.PostingDeletedEventType, 999),
	)
	assert.Equal(t, 999, receive(t, sub1Ch).Data)
	assert.Equal(t, 999, receive(t, sub2Ch).Data)
}

func TestEventBusOtherTypeNotDelivered(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.PostingUpdatedEventType)
	eb.Publish(
		event.PostingDeletedEventType,
		event.NewEvent(event.PostingDeletedEventType, nil),
	)
	testutil.RequireNoReceive(t, subCh, 50*time.Millisecond, "wrong event type")
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(event.ApplicationDeletedEventType)
	eb.Unsubscribe(event.ApplicationDeletedEventType, subId)
	eb.Publish(
		event.ApplicationDeletedEventType,
		event.NewEvent(event.ApplicationDeletedEventType, nil),
	)
	_, ok := <-subCh
	assert.False(t, ok, "expected closed channel")
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var calls atomic.Int32
	eb.SubscribeFunc(
		event.ApplicationSubmittedEventType,
		func(evt event.Event) {
			calls.Add(1)
		},
	)
	for range 3 {
		eb.Publish(
			event.ApplicationSubmittedEventType,
			event.NewEvent(event.ApplicationSubmittedEventType, nil),
		)
	}
	require.Eventually(
		t,
		func() bool { return calls.Load() == 3 },
		time.Second,
		5*time.Millisecond,
	)
	eb.Stop()
}

func TestEventBusSubscribeFuncPanicContained(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var calls atomic.Int32
	eb.SubscribeFunc(
		event.SeatsReconciledEventType,
		func(evt event.Event) {
			if calls.Add(1) == 1 {
				panic("boom")
			}
		},
	)
	for range 2 {
		eb.Publish(
			event.SeatsReconciledEventType,
			event.NewEvent(event.SeatsReconciledEventType, nil),
		)
	}
	require.Eventually(
		t,
		func() bool { return calls.Load() == 2 },
		time.Second,
		5*time.Millisecond,
	)
	eb.Stop()
}

func TestEventBusPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.PostingLockChangedEventType)
	ok := eb.PublishAsync(
		event.PostingLockChangedEventType,
		event.NewEvent(
			event.PostingLockChangedEventType,
			event.PostingLockChangedEvent{PostingID: "p1", Locked: true},
		),
	)
	require.True(t, ok)
	data, ok := receive(t, subCh).Data.(event.PostingLockChangedEvent)
	require.True(t, ok)
	assert.True(t, data.Locked)
}

func TestEventBusStopped(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(event.PostingCreatedEventType)
	eb.Stop()
	eb.Stop()
	_, ok := <-subCh
	assert.False(t, ok)
	assert.False(
		t,
		eb.PublishAsync(
			event.PostingCreatedEventType,
			event.NewEvent(event.PostingCreatedEventType, nil),
		),
	)
	_, lateCh := eb.Subscribe(event.PostingCreatedEventType)
	_, ok = <-lateCh
	assert.False(t, ok)
	assert.Equal(
		t,
		event.EventSubscriberId(0),
		eb.SubscribeFunc(event.PostingCreatedEventType, func(event.Event) {}),
	)
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.PostingUpdatedEventType)
	// Overflow the subscriber buffer without draining
	for range event.EventQueueSize + 5 {
		eb.Publish(
			event.PostingUpdatedEventType,
			event.NewEvent(event.PostingUpdatedEventType, nil),
		)
	}
	assert.Len(t, subCh, event.EventQueueSize)
	expected := `
# HELP event_bus_dropped_total events dropped on full subscriber buffers by type
# TYPE event_bus_dropped_total counter
event_bus_dropped_total{type="posting.updated"} 5
`
	require.NoError(
		t,
		promtestutil.GatherAndCompare(
			reg,
			strings.NewReader(expected),
			"event_bus_dropped_total",
		),
	)
	// A second bus on the same registry shares the collectors
	eb2 := event.NewEventBus(reg, nil)
	eb2.Stop()
}
