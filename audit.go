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
	"github.com/blinklabs-io/internhub/event"
)

// subscribeAudit logs seat lock changes and reconcile repairs
func (h *Hub) subscribeAudit() {
	logger := h.config.logger.With("component", "audit")
	h.eventBus.SubscribeFunc(
		event.PostingLockChangedEventType,
		func(evt event.Event) {
			data, ok := evt.Data.(event.PostingLockChangedEvent)
			if !ok {
				return
			}
			msg := "posting reopened"
			if data.Locked {
				msg = "posting filled"
			}
			logger.Info(
				msg,
				"posting_id", data.PostingID,
				"consumed_seats", data.ConsumedSeats,
				"seat_limit", data.SeatLimit,
				"at", evt.Timestamp,
			)
		},
	)
	h.eventBus.SubscribeFunc(
		event.SeatsReconciledEventType,
		func(evt event.Event) {
			data, ok := evt.Data.(event.SeatsReconciledEvent)
			if !ok {
				return
			}
			logger.Warn(
				"seat count repaired",
				"posting_id", data.PostingID,
				"previous_seats", data.PreviousSeats,
				"consumed_seats", data.ConsumedSeats,
				"previous_locked", data.PreviousLocked,
				"locked", data.Locked,
			)
		},
	)
}
