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
	"context"
	"testing"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/database/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*Ledger, *database.Database) {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return New(LedgerConfig{Database: db}), db
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func postingRequest(seatLimit *int) CreatePostingRequest {
	return CreatePostingRequest{
		Title:        "Backend Intern",
		Description:  "Work on the API",
		Organization: "Acme",
		Location:     "Remote",
		Duration:     "3 months",
		SeatLimit:    seatLimit,
		Requirements: []string{"go", " ", "sql "},
	}
}

func applicationRequest(postingId string) SubmitApplicationRequest {
	return SubmitApplicationRequest{
		PostingID:          postingId,
		FullName:           " Jane Doe ",
		Email:              " Jane@Example.COM ",
		Phone:              "555-0100",
		DateOfBirth:        "2003-04-05",
		Address:            "1 Main St",
		CurrentInstitution: "State University",
		Course:             "Computer Science",
		YearOfStudy:        "3",
		Skills:             []string{"go", ""},
	}
}

func createPosting(t *testing.T, l *Ledger, seatLimit *int) *models.Posting {
	t.Helper()
	posting, err := l.CreatePosting(context.Background(), postingRequest(seatLimit))
	require.NoError(t, err)
	return posting
}

func submit(
	t *testing.T,
	l *Ledger,
	postingId string,
	applicantId string,
) *models.Application {
	t.Helper()
	app, err := l.SubmitApplication(
		context.Background(),
		applicantId,
		applicationRequest(postingId),
	)
	require.NoError(t, err)
	return app
}

func setStatus(t *testing.T, l *Ledger, applicationId, status string) {
	t.Helper()
	_, err := l.UpdateApplicationStatus(
		context.Background(),
		applicationId,
		UpdateStatusRequest{Status: status},
	)
	require.NoError(t, err)
}

func reload(t *testing.T, db *database.Database, postingId string) *models.Posting {
	t.Helper()
	posting, err := db.GetPosting(postingId, nil)
	require.NoError(t, err)
	return posting
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

// requireSeatState checks the stored seat count against the live applications
func requireSeatState(t *testing.T, db *database.Database, postingId string) {
	t.Helper()
	posting := reload(t, db, postingId)
	if !posting.HasSeatLimit() {
		require.Zero(t, posting.ConsumedSeats)
		require.False(t, posting.Locked)
		return
	}
	live, err := db.CountApplications(postingId, true, nil)
	require.NoError(t, err)
	require.Equal(t, int(live), posting.ConsumedSeats)
	require.Equal(t, posting.ConsumedSeats >= *posting.SeatLimit, posting.Locked)
}

// forceSeatState overwrites a posting's seat counters to simulate drift
func forceSeatState(
	t *testing.T,
	db *database.Database,
	postingId string,
	consumed int,
	locked bool,
) {
	t.Helper()
	posting := reload(t, db, postingId)
	version := posting.Version
	posting.ConsumedSeats = consumed
	posting.Locked = locked
	require.NoError(t, db.UpdatePosting(posting, version, nil))
}

func newApplicantID() string {
	return "user-" + uuid.NewString()
}
