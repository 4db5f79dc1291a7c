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
	"testing"

	"github.com/blinklabs-io/internhub/database/models"
	"github.com/stretchr/testify/assert"
)

func TestSeatDelta(t *testing.T) {
	testDefs := []struct {
		from     string
		to       string
		expected int
	}{
		{models.ApplicationStatusPending, models.ApplicationStatusRejected, -1},
		{models.ApplicationStatusAccepted, models.ApplicationStatusRejected, -1},
		{models.ApplicationStatusRejected, models.ApplicationStatusPending, 1},
		{models.ApplicationStatusRejected, models.ApplicationStatusUnderReview, 1},
		{models.ApplicationStatusRejected, models.ApplicationStatusRejected, 0},
		{models.ApplicationStatusPending, models.ApplicationStatusAccepted, 0},
		{models.ApplicationStatusUnderReview, models.ApplicationStatusPending, 0},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.expected,
			seatDelta(testDef.from, testDef.to),
			"%s -> %s",
			testDef.from,
			testDef.to,
		)
	}
}

func TestApplySeatDelta(t *testing.T) {
	limit := 2
	posting := &models.Posting{SeatLimit: &limit, ConsumedSeats: 1}
	assert.True(t, applySeatDelta(posting, 1))
	assert.Equal(t, 2, posting.ConsumedSeats)
	assert.True(t, posting.Locked)

	assert.False(t, applySeatDelta(posting, 1))
	assert.Equal(t, 3, posting.ConsumedSeats)
	assert.True(t, posting.Locked)

	applySeatDelta(posting, -1)
	assert.True(t, posting.Locked)
	assert.True(t, applySeatDelta(posting, -1))
	assert.False(t, posting.Locked)

	// Floor at zero
	posting.ConsumedSeats = 0
	applySeatDelta(posting, -1)
	assert.Equal(t, 0, posting.ConsumedSeats)
}

func TestApplySeatDeltaUnlimited(t *testing.T) {
	posting := &models.Posting{}
	assert.False(t, applySeatDelta(posting, 1))
	assert.Equal(t, 0, posting.ConsumedSeats)
	assert.False(t, isFull(posting))

	zero := 0
	posting.SeatLimit = &zero
	assert.False(t, isFull(posting))
}

func TestRecomputeLockedIgnoresStoredFlag(t *testing.T) {
	limit := 1
	posting := &models.Posting{SeatLimit: &limit, Locked: true}
	assert.True(t, recomputeLocked(posting))
	assert.False(t, posting.Locked)
}
