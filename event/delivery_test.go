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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	err    error
	closed atomic.Bool
	panics bool
}

func (m *mockSubscriber) Deliver(evt Event) error {
	if m.panics {
		panic("deliver")
	}
	return m.err
}

func (m *mockSubscriber) Close() {
	m.closed.Store(true)
}

func TestDeliverFailureUnregisters(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	for _, sub := range []*mockSubscriber{
		{err: errors.New("deliver failed")},
		{panics: true},
	} {
		subId := eb.RegisterSubscriber("test.fail", sub)
		require.NotZero(t, subId)
		eb.Publish("test.fail", NewEvent("test.fail", "x"))
		eb.mu.RLock()
		_, exists := eb.subscribers["test.fail"][subId]
		eb.mu.RUnlock()
		assert.False(t, exists, "subscriber should be removed after failure")
		assert.True(t, sub.closed.Load())
	}
}

func TestChannelSubscriberDeliverNonBlocking(t *testing.T) {
	const bufferSize = 5
	var dropped atomic.Int32
	sub := newChannelSubscriber(bufferSize, func() { dropped.Add(1) })
	for i := range bufferSize {
		require.NoError(t, sub.Deliver(NewEvent("test", i)))
	}
	done := make(chan error, 1)
	go func() {
		done <- sub.Deliver(NewEvent("test", "overflow"))
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on full channel buffer")
	}
	assert.Equal(t, int32(1), dropped.Load())
	for i := range bufferSize {
		assert.Equal(t, i, (<-sub.ch).Data)
	}
	assert.Empty(t, sub.ch)
}

func TestChannelSubscriberDeliverAfterClose(t *testing.T) {
	sub := newChannelSubscriber(5, nil)
	sub.Close()
	sub.Close()
	assert.NoError(t, sub.Deliver(NewEvent("test", "after-close")))
}

// Publishing while subscribers are torn down must neither panic nor leak
func TestPublishUnsubscribeRace(t *testing.T) {
	for range 200 {
		eb := NewEventBus(nil, nil)
		typ := EventType("race.test")
		subId, ch := eb.Subscribe(typ)
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := range 10 {
				eb.Publish(typ, NewEvent(typ, j))
				eb.PublishAsync(typ, NewEvent(typ, j))
			}
		}()
		go func() {
			defer wg.Done()
			eb.Unsubscribe(typ, subId)
			eb.Stop()
		}()
		go func() {
			defer wg.Done()
			for range ch { //nolint:revive
			}
		}()
		wg.Wait()
	}
}

func TestSubscribeFuncStopRace(t *testing.T) {
	for range 200 {
		eb := NewEventBus(nil, nil)
		typ := EventType("race.subscribefunc")
		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				eb.SubscribeFunc(typ, func(Event) {})
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			eb.Stop()
		}()
		wg.Wait()
		// Every handler goroutine has exited once Stop returns
		eb.Stop()
	}
}
