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

const (
	ApplicationSubmittedEventType     EventType = "application.submitted"
	ApplicationStatusChangedEventType EventType = "application.status_changed"
	ApplicationDeletedEventType       EventType = "application.deleted"
	PostingCreatedEventType           EventType = "posting.created"
	PostingUpdatedEventType           EventType = "posting.updated"
	PostingDeletedEventType           EventType = "posting.deleted"
	// PostingLockChangedEventType fires when a posting fills up or frees a seat
	PostingLockChangedEventType EventType = "posting.lock_changed"
	SeatsReconciledEventType    EventType = "posting.reconciled"
)

type ApplicationSubmittedEvent struct {
	ApplicationID string
	PostingID     string
	ApplicantID   string
	ConsumedSeats int
}

type ApplicationStatusChangedEvent struct {
	ApplicationID string
	PostingID     string
	OldStatus     string
	NewStatus     string
	// SeatDelta is -1 when a seat was released, 1 when one was taken back
	SeatDelta int
}

type ApplicationDeletedEvent struct {
	ApplicationID string
	PostingID     string
	DeletedBy     string
	SeatReleased  bool
}

type PostingCreatedEvent struct {
	PostingID string
	Title     string
	SeatLimit *int
}

type PostingUpdatedEvent struct {
	PostingID string
	Version   uint64
}

type PostingDeletedEvent struct {
	PostingID string
}

type PostingLockChangedEvent struct {
	PostingID     string
	ConsumedSeats int
	SeatLimit     int
	Locked        bool
}

// SeatsReconciledEvent reports a repaired seat count
type SeatsReconciledEvent struct {
	PostingID      string
	PreviousSeats  int
	ConsumedSeats  int
	PreviousLocked bool
	Locked         bool
}
