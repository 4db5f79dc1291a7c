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

import "github.com/blinklabs-io/internhub/database/models"

// A posting is full when it has a seat limit and every seat is consumed.
// The stored locked flag is never consulted.
func isFull(posting *models.Posting) bool {
	if !posting.HasSeatLimit() {
		return false
	}
	return posting.ConsumedSeats >= *posting.SeatLimit
}

// seatDelta returns the change in seat consumption caused by moving an
// application from oldStatus to newStatus
func seatDelta(oldStatus, newStatus string) int {
	wasRejected := oldStatus == models.ApplicationStatusRejected
	isRejected := newStatus == models.ApplicationStatusRejected
	switch {
	case !wasRejected && isRejected:
		return -1
	case wasRejected && !isRejected:
		return 1
	default:
		return 0
	}
}

// applySeatDelta adjusts consumed seats by delta, never going below zero, and
// recomputes the lock. It returns true if the lock state changed. Postings
// without a seat limit are left untouched.
func applySeatDelta(posting *models.Posting, delta int) bool {
	if !posting.HasSeatLimit() {
		return false
	}
	posting.ConsumedSeats = max(0, posting.ConsumedSeats+delta)
	return recomputeLocked(posting)
}

// recomputeLocked sets the lock from the seat counts and reports whether it
// changed
func recomputeLocked(posting *models.Posting) bool {
	locked := isFull(posting)
	changed := locked != posting.Locked
	posting.Locked = locked
	return changed
}
