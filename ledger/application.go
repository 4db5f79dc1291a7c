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
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/event"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SubmitApplication files an application for applicantId. The posting must
// exist and have a free seat, and the applicant must not have applied to it
// before. A posting found full is locked before the request is refused.
func (l *Ledger) SubmitApplication(
	ctx context.Context,
	applicantId string,
	req SubmitApplicationRequest,
) (_ *models.Application, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"SubmitApplication",
		attribute.String("applicant.id", applicantId),
	)
	defer func() { err = l.finish(span, "SubmitApplication", start, err) }()
	if err != nil {
		return nil, err
	}
	req.normalize()
	var extra []string
	if strings.TrimSpace(applicantId) == "" {
		extra = append(extra, "applicant is required")
	}
	if req.PostingID != "" {
		if _, err := uuid.Parse(req.PostingID); err != nil {
			extra = append(extra, "invalid internship id format")
		}
	}
	dateOfBirth, dobOk := parseDate(req.DateOfBirth)
	if req.DateOfBirth != "" && !dobOk {
		extra = append(extra, "invalid date of birth format")
	}
	if err := validateStruct(&req, extra...); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("posting.id", req.PostingID))
	now := l.now()
	app := &models.Application{
		ID:                 uuid.NewString(),
		PostingID:          req.PostingID,
		ApplicantID:        applicantId,
		Status:             models.ApplicationStatusPending,
		FullName:           req.FullName,
		Email:              req.Email,
		Phone:              req.Phone,
		DateOfBirth:        dateOfBirth,
		Address:            req.Address,
		CurrentInstitution: req.CurrentInstitution,
		Course:             req.Course,
		YearOfStudy:        req.YearOfStudy,
		CGPA:               req.CGPA,
		PreviousExperience: req.PreviousExperience,
		CoverLetter:        req.CoverLetter,
		Skills:             req.Skills,
		SubmittedAt:        now,
		UpdatedAt:          now,
	}
	unlock := l.lockPosting(req.PostingID)
	defer unlock()
	var posting *models.Posting
	var full, lockChanged bool
	txn := l.db.TransactionContext(ctx, true)
	err = txn.Do(func(txn *database.Txn) error {
		var err error
		posting, err = l.db.GetPosting(req.PostingID, txn)
		if err != nil {
			return err
		}
		_, err = l.db.FindApplication(applicantId, posting.ID, txn)
		if err == nil {
			return conflictError("you have already applied for this internship")
		}
		if !errors.Is(err, models.ErrApplicationNotFound) {
			return err
		}
		expectedVersion := posting.Version
		if isFull(posting) {
			full = true
			if posting.Locked {
				return nil
			}
			// Persist the lock we just discovered, then refuse
			posting.Locked = true
			lockChanged = true
			if err := l.db.UpdatePosting(posting, expectedVersion, txn); err != nil {
				return err
			}
			return l.db.AppendSeatMovement(
				l.seatMovement(posting, "", models.SeatMovementLock, 0),
				txn,
			)
		}
		if err := l.db.CreateApplication(app, txn); err != nil {
			return err
		}
		if !posting.HasSeatLimit() {
			return nil
		}
		lockChanged = applySeatDelta(posting, 1)
		if err := l.db.UpdatePosting(posting, expectedVersion, txn); err != nil {
			return err
		}
		return l.journalSeatChange(posting, app.ID, 1, lockChanged, txn)
	})
	if err != nil {
		return nil, storeError(err)
	}
	if lockChanged {
		l.publishLockChange(posting)
	}
	if full {
		l.metrics.applicationsDenied.Inc()
		if lockChanged {
			l.metrics.seatChange(0, true, true)
		}
		l.config.Logger.Debug(
			"refused application to full posting",
			"component", "ledger",
			"posting_id", posting.ID,
			"applicant_id", applicantId,
		)
		return nil, forbiddenError(
			"this internship is no longer accepting applications, all seats have been filled",
		)
	}
	if posting.HasSeatLimit() {
		l.metrics.seatChange(1, lockChanged, posting.Locked)
	}
	app.Posting = posting
	l.config.Logger.Info(
		"submitted application",
		"component", "ledger",
		"application_id", app.ID,
		"posting_id", posting.ID,
		"consumed_seats", posting.ConsumedSeats,
		"locked", posting.Locked,
	)
	l.publish(
		event.ApplicationSubmittedEventType,
		event.ApplicationSubmittedEvent{
			ApplicationID: app.ID,
			PostingID:     posting.ID,
			ApplicantID:   applicantId,
			ConsumedSeats: posting.ConsumedSeats,
		},
	)
	return app, nil
}

// UpdateApplicationStatus sets an application's status and notes. Moving
// into or out of rejected releases or retakes the application's seat.
func (l *Ledger) UpdateApplicationStatus(
	ctx context.Context,
	applicationId string,
	req UpdateStatusRequest,
) (_ *models.Application, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"UpdateApplicationStatus",
		attribute.String("application.id", applicationId),
	)
	defer func() { err = l.finish(span, "UpdateApplicationStatus", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(applicationId, "application"); err != nil {
		return nil, err
	}
	req.Status = strings.TrimSpace(req.Status)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	// The posting lock is keyed by posting, so look that up first
	current, err := l.getApplication(ctx, applicationId)
	if err != nil {
		return nil, storeError(err)
	}
	unlock := l.lockPosting(current.PostingID)
	defer unlock()
	var app *models.Application
	var posting *models.Posting
	var oldStatus string
	var applied int
	var lockChanged bool
	txn := l.db.TransactionContext(ctx, true)
	err = txn.Do(func(txn *database.Txn) error {
		var err error
		app, err = l.db.GetApplication(applicationId, txn)
		if err != nil {
			return err
		}
		posting, err = l.db.GetPosting(app.PostingID, txn)
		if err != nil {
			return err
		}
		oldStatus = app.Status
		delta := seatDelta(oldStatus, req.Status)
		if delta != 0 && posting.HasSeatLimit() {
			expectedVersion := posting.Version
			prevSeats := posting.ConsumedSeats
			lockChanged = applySeatDelta(posting, delta)
			applied = posting.ConsumedSeats - prevSeats
			if applied != 0 || lockChanged {
				if err := l.db.UpdatePosting(posting, expectedVersion, txn); err != nil {
					return err
				}
				if err := l.journalSeatChange(posting, app.ID, applied, lockChanged, txn); err != nil {
					return err
				}
			}
		}
		app.Status = req.Status
		if req.AdminNotes != nil {
			app.AdminNotes = strings.TrimSpace(*req.AdminNotes)
		}
		app.UpdatedAt = l.now()
		return l.db.UpdateApplicationStatus(app, oldStatus, txn)
	})
	if err != nil {
		return nil, storeError(err)
	}
	app.Posting = posting
	l.metrics.seatChange(applied, lockChanged, posting.Locked)
	l.config.Logger.Info(
		"updated application status",
		"component", "ledger",
		"application_id", app.ID,
		"posting_id", app.PostingID,
		"old_status", oldStatus,
		"new_status", app.Status,
		"consumed_seats", posting.ConsumedSeats,
	)
	l.publish(
		event.ApplicationStatusChangedEventType,
		event.ApplicationStatusChangedEvent{
			ApplicationID: app.ID,
			PostingID:     app.PostingID,
			OldStatus:     oldStatus,
			NewStatus:     app.Status,
			SeatDelta:     applied,
		},
	)
	if lockChanged {
		l.publishLockChange(posting)
	}
	return app, nil
}

// DeleteApplication removes an application on behalf of its owner or staff
// and releases its seat if it held one
func (l *Ledger) DeleteApplication(
	ctx context.Context,
	applicationId string,
	requesterId string,
	requesterIsStaff bool,
) (err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"DeleteApplication",
		attribute.String("application.id", applicationId),
	)
	defer func() { err = l.finish(span, "DeleteApplication", start, err) }()
	if err != nil {
		return err
	}
	if err := parseID(applicationId, "application"); err != nil {
		return err
	}
	current, err := l.getApplication(ctx, applicationId)
	if err != nil {
		return storeError(err)
	}
	if !requesterIsStaff && current.ApplicantID != requesterId {
		return forbiddenError("access denied")
	}
	unlock := l.lockPosting(current.PostingID)
	defer unlock()
	var posting *models.Posting
	var applied int
	var lockChanged bool
	txn := l.db.TransactionContext(ctx, true)
	err = txn.Do(func(txn *database.Txn) error {
		app, err := l.db.GetApplication(applicationId, txn)
		if err != nil {
			return err
		}
		posting, err = l.db.GetPosting(app.PostingID, txn)
		if err != nil {
			return err
		}
		if err := l.db.DeleteApplication(app.ID, txn); err != nil {
			return err
		}
		if !app.ConsumesSeat() || !posting.HasSeatLimit() {
			return nil
		}
		expectedVersion := posting.Version
		prevSeats := posting.ConsumedSeats
		lockChanged = applySeatDelta(posting, -1)
		applied = posting.ConsumedSeats - prevSeats
		if applied == 0 && !lockChanged {
			return nil
		}
		if err := l.db.UpdatePosting(posting, expectedVersion, txn); err != nil {
			return err
		}
		return l.journalSeatChange(posting, app.ID, applied, lockChanged, txn)
	})
	if err != nil {
		return storeError(err)
	}
	l.metrics.seatChange(applied, lockChanged, posting.Locked)
	l.config.Logger.Info(
		"deleted application",
		"component", "ledger",
		"application_id", applicationId,
		"posting_id", posting.ID,
		"requester_id", requesterId,
		"seat_released", applied < 0,
	)
	l.publish(
		event.ApplicationDeletedEventType,
		event.ApplicationDeletedEvent{
			ApplicationID: applicationId,
			PostingID:     posting.ID,
			DeletedBy:     requesterId,
			SeatReleased:  applied < 0,
		},
	)
	if lockChanged {
		l.publishLockChange(posting)
	}
	return nil
}

// GetApplication returns an application to its owner or to staff
func (l *Ledger) GetApplication(
	ctx context.Context,
	applicationId string,
	requesterId string,
	requesterIsStaff bool,
) (_ *models.Application, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"GetApplication",
		attribute.String("application.id", applicationId),
	)
	defer func() { err = l.finish(span, "GetApplication", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(applicationId, "application"); err != nil {
		return nil, err
	}
	app, err := l.getApplication(ctx, applicationId)
	if err != nil {
		return nil, storeError(err)
	}
	if !requesterIsStaff && app.ApplicantID != requesterId {
		return nil, forbiddenError("access denied")
	}
	return app, nil
}

// ListApplicationsForApplicant returns an applicant's applications, newest
// first
func (l *Ledger) ListApplicationsForApplicant(
	ctx context.Context,
	applicantId string,
) (_ []models.Application, err error) {
	ctx, span, start, err := l.begin(ctx, "ListApplicationsForApplicant")
	defer func() { err = l.finish(span, "ListApplicationsForApplicant", start, err) }()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(applicantId) == "" {
		return nil, validationError("applicant is required")
	}
	apps, err := l.listApplications(
		ctx,
		models.ApplicationFilter{ApplicantID: applicantId},
	)
	if err != nil {
		return nil, storeError(err)
	}
	return apps, nil
}

// ListApplicationsForPosting returns every application on a posting, newest
// first
func (l *Ledger) ListApplicationsForPosting(
	ctx context.Context,
	postingId string,
) (_ []models.Application, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"ListApplicationsForPosting",
		attribute.String("posting.id", postingId),
	)
	defer func() { err = l.finish(span, "ListApplicationsForPosting", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(postingId, "internship"); err != nil {
		return nil, err
	}
	var apps []models.Application
	err = l.view(ctx, func(txn *database.Txn) error {
		if _, err := l.db.GetPosting(postingId, txn); err != nil {
			return err
		}
		var err error
		apps, err = l.db.ListApplications(
			models.ApplicationFilter{PostingID: postingId},
			txn,
		)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return apps, nil
}

// ListApplications returns applications matching filter, newest first
func (l *Ledger) ListApplications(
	ctx context.Context,
	filter models.ApplicationFilter,
) (_ []models.Application, err error) {
	ctx, span, start, err := l.begin(ctx, "ListApplications")
	defer func() { err = l.finish(span, "ListApplications", start, err) }()
	if err != nil {
		return nil, err
	}
	var msgs []string
	if filter.Status != "" && !slices.Contains(models.ApplicationStatuses, filter.Status) {
		msgs = append(msgs, "status filter is invalid")
	}
	if filter.PostingID != "" {
		if _, err := uuid.Parse(filter.PostingID); err != nil {
			msgs = append(msgs, "invalid internship id format")
		}
	}
	if len(msgs) > 0 {
		return nil, validationError(msgs...)
	}
	apps, err := l.listApplications(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return apps, nil
}

func (l *Ledger) getApplication(
	ctx context.Context,
	applicationId string,
) (*models.Application, error) {
	var app *models.Application
	err := l.view(ctx, func(txn *database.Txn) error {
		var err error
		app, err = l.db.GetApplication(applicationId, txn)
		return err
	})
	return app, err
}

func (l *Ledger) listApplications(
	ctx context.Context,
	filter models.ApplicationFilter,
) ([]models.Application, error) {
	var apps []models.Application
	err := l.view(ctx, func(txn *database.Txn) error {
		var err error
		apps, err = l.db.ListApplications(filter, txn)
		return err
	})
	return apps, err
}

func (l *Ledger) seatMovement(
	posting *models.Posting,
	applicationId string,
	kind string,
	delta int,
) *models.SeatMovement {
	return &models.SeatMovement{
		At:            l.now(),
		PostingID:     posting.ID,
		ApplicationID: applicationId,
		Kind:          kind,
		Delta:         delta,
		ConsumedSeats: posting.ConsumedSeats,
		Locked:        posting.Locked,
	}
}

// journalSeatChange records a seat delta and any lock transition it caused
func (l *Ledger) journalSeatChange(
	posting *models.Posting,
	applicationId string,
	delta int,
	lockChanged bool,
	txn *database.Txn,
) error {
	at := l.now()
	if delta != 0 {
		kind := models.SeatMovementConsume
		if delta < 0 {
			kind = models.SeatMovementRelease
		}
		movement := l.seatMovement(posting, applicationId, kind, delta)
		movement.At = at
		if err := l.db.AppendSeatMovement(movement, txn); err != nil {
			return err
		}
	}
	if !lockChanged {
		return nil
	}
	movement := l.seatMovement(
		posting,
		applicationId,
		lockMovementKind(true, posting.Locked),
		0,
	)
	// Journal keys sort by time, so the lock entry must follow the seat entry
	movement.At = at.Add(time.Nanosecond)
	return l.db.AppendSeatMovement(movement, txn)
}
