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

package models

import "time"

// Seat movement kinds recorded in the seat journal
const (
	SeatMovementConsume   = "consume"
	SeatMovementRelease   = "release"
	SeatMovementLock      = "lock"
	SeatMovementUnlock    = "unlock"
	SeatMovementReconcile = "reconcile"
)

// SeatMovement is a journal entry describing one change to a posting's seat
// accounting. It is stored in the blob store, not the metadata store.
type SeatMovement struct {
	At            time.Time `json:"at"`
	ID            string    `json:"id"`
	PostingID     string    `json:"postingId"`
	ApplicationID string    `json:"applicationId,omitempty"`
	Kind          string    `json:"kind"`
	Delta         int       `json:"delta"`
	ConsumedSeats int       `json:"consumedSeats"`
	Locked        bool      `json:"locked"`
}
