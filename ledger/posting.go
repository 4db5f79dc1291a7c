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
	"slices"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/event"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// CreatePosting validates and stores a new posting with no seats consumed
func (l *Ledger) CreatePosting(
	ctx context.Context,
	req CreatePostingRequest,
) (_ *models.Posting, err error) {
	ctx, span, start, err := l.begin(ctx, "CreatePosting")
	defer func() { err = l.finish(span, "CreatePosting", start, err) }()
	if err != nil {
		return nil, err
	}
	req.normalize()
	// A non-positive seat limit means unlimited and an unparseable
	// deadline is dropped
	if req.SeatLimit != nil && *req.SeatLimit <= 0 {
		req.SeatLimit = nil
	}
	deadline, deadlineOk := parseDate(req.ApplicationDeadline)
	var extra []string
	if req.Stipend != nil && *req.Stipend < 0 {
		extra = append(extra, "stipend must not be negative")
	}
	if err := validateStruct(&req, extra...); err != nil {
		return nil, err
	}
	now := l.now()
	posting := &models.Posting{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Organization: req.Organization,
		Location:     req.Location,
		Duration:     req.Duration,
		MonthPeriod:  req.MonthPeriod,
		Category:     req.Category,
		Status:       req.Status,
		Requirements: req.Requirements,
		SeatLimit:    req.SeatLimit,
		PostedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if posting.Category == "" {
		posting.Category = models.PostingCategoryOther
	}
	if posting.Status == "" {
		posting.Status = models.PostingStatusActive
	}
	if req.Stipend != nil {
		posting.Stipend = *req.Stipend
	}
	if deadlineOk {
		posting.ApplicationDeadline = &deadline
	}
	txn := l.db.TransactionContext(ctx, true)
	err = txn.Do(func(txn *database.Txn) error {
		return l.db.CreatePosting(posting, txn)
	})
	if err != nil {
		return nil, storeError(err)
	}
	span.SetAttributes(attribute.String("posting.id", posting.ID))
	l.config.Logger.Info(
		"created posting",
		"component", "ledger",
		"posting_id", posting.ID,
		"seat_limit", seatLimitAttr(posting),
	)
	l.publish(
		event.PostingCreatedEventType,
		event.PostingCreatedEvent{
			PostingID: posting.ID,
			Title:     posting.Title,
			SeatLimit: posting.SeatLimit,
		},
	)
	return posting, nil
}

// GetPosting returns a posting by ID
func (l *Ledger) GetPosting(
	ctx context.Context,
	postingId string,
) (_ *models.Posting, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"GetPosting",
		attribute.String("posting.id", postingId),
	)
	defer func() { err = l.finish(span, "GetPosting", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(postingId, "internship"); err != nil {
		return nil, err
	}
	var posting *models.Posting
	err = l.view(ctx, func(txn *database.Txn) error {
		var err error
		posting, err = l.db.GetPosting(postingId, txn)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return posting, nil
}

// ListPostings returns postings matching filter, newest first
func (l *Ledger) ListPostings(
	ctx context.Context,
	filter models.PostingFilter,
) (_ []models.Posting, err error) {
	ctx, span, start, err := l.begin(ctx, "ListPostings")
	defer func() { err = l.finish(span, "ListPostings", start, err) }()
	if err != nil {
		return nil, err
	}
	var msgs []string
	if filter.Status != "" && !slices.Contains(models.PostingStatuses, filter.Status) {
		msgs = append(msgs, "status filter is invalid")
	}
	if filter.Category != "" && !slices.Contains(models.PostingCategories, filter.Category) {
		msgs = append(msgs, "category filter is invalid")
	}
	if len(msgs) > 0 {
		return nil, validationError(msgs...)
	}
	var postings []models.Posting
	err = l.view(ctx, func(txn *database.Txn) error {
		var err error
		postings, err = l.db.ListPostings(filter, txn)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return postings, nil
}

// UpdatePosting applies staff edits to a posting. A seat limit change
// recomputes the seat count and lock; lowering the limit below the current
// number of live applications is allowed and locks the posting.
func (l *Ledger) UpdatePosting(
	ctx context.Context,
	postingId string,
	req UpdatePostingRequest,
) (_ *models.Posting, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"UpdatePosting",
		attribute.String("posting.id", postingId),
	)
	defer func() { err = l.finish(span, "UpdatePosting", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(postingId, "internship"); err != nil {
		return nil, err
	}
	req.normalize()
	var extra []string
	if req.SeatLimit != nil && *req.SeatLimit <= 0 {
		extra = append(extra, "seatLimit must be a positive integer")
	}
	if req.SeatLimit != nil && req.ClearSeatLimit {
		extra = append(extra, "seatLimit and clearSeatLimit are mutually exclusive")
	}
	if req.Stipend != nil && *req.Stipend < 0 {
		extra = append(extra, "stipend must not be negative")
	}
	if req.ApplicationDeadline != nil && *req.ApplicationDeadline != "" {
		if _, ok := parseDate(*req.ApplicationDeadline); !ok {
			extra = append(extra, "applicationDeadline must be a valid date")
		}
	}
	if err := validateStruct(&req, extra...); err != nil {
		return nil, err
	}
	unlock := l.lockPosting(postingId)
	defer unlock()
	var posting *models.Posting
	var movement *models.SeatMovement
	var lockChanged bool
	txn := l.db.TransactionContext(ctx, true)
	err = txn.Do(func(txn *database.Txn) error {
		var err error
		posting, err = l.db.GetPosting(postingId, txn)
		if err != nil {
			return err
		}
		expectedVersion := posting.Version
		applyPostingEdits(posting, &req)
		if req.SeatLimit != nil || req.ClearSeatLimit {
			movement, lockChanged, err = l.applySeatLimit(posting, &req, txn)
			if err != nil {
				return err
			}
		}
		if err := l.db.UpdatePosting(posting, expectedVersion, txn); err != nil {
			return err
		}
		if movement != nil {
			return l.db.AppendSeatMovement(movement, txn)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	l.config.Logger.Info(
		"updated posting",
		"component", "ledger",
		"posting_id", posting.ID,
		"seat_limit", seatLimitAttr(posting),
		"consumed_seats", posting.ConsumedSeats,
		"locked", posting.Locked,
	)
	l.publish(
		event.PostingUpdatedEventType,
		event.PostingUpdatedEvent{PostingID: posting.ID, Version: posting.Version},
	)
	if lockChanged {
		l.metrics.seatChange(0, true, posting.Locked)
		l.publishLockChange(posting)
	}
	return posting, nil
}

func applyPostingEdits(posting *models.Posting, req *UpdatePostingRequest) {
	if req.Title != nil {
		posting.Title = *req.Title
	}
	if req.Description != nil {
		posting.Description = *req.Description
	}
	if req.Organization != nil {
		posting.Organization = *req.Organization
	}
	if req.Location != nil {
		posting.Location = *req.Location
	}
	if req.Duration != nil {
		posting.Duration = *req.Duration
	}
	if req.MonthPeriod != nil {
		posting.MonthPeriod = *req.MonthPeriod
	}
	if req.Category != nil {
		posting.Category = *req.Category
	}
	if req.Status != nil {
		posting.Status = *req.Status
	}
	if req.Stipend != nil {
		posting.Stipend = *req.Stipend
	}
	if req.Requirements != nil {
		posting.Requirements = *req.Requirements
	}
	if req.ApplicationDeadline != nil {
		if *req.ApplicationDeadline == "" {
			posting.ApplicationDeadline = nil
		} else if deadline, ok := parseDate(*req.ApplicationDeadline); ok {
			posting.ApplicationDeadline = &deadline
		}
	}
}

// applySeatLimit installs a new seat limit. Seat counts are only kept for
// limited postings, so adding a limit recounts the live applications and
// removing one zeroes the count.
func (l *Ledger) applySeatLimit(
	posting *models.Posting,
	req *UpdatePostingRequest,
	txn *database.Txn,
) (*models.SeatMovement, bool, error) {
	hadLimit := posting.HasSeatLimit()
	prevSeats := posting.ConsumedSeats
	prevLocked := posting.Locked
	if req.ClearSeatLimit {
		posting.SeatLimit = nil
		posting.ConsumedSeats = 0
		posting.Locked = false
	} else {
		limit := *req.SeatLimit
		posting.SeatLimit = &limit
		if !hadLimit {
			count, err := l.db.CountApplications(posting.ID, true, txn)
			if err != nil {
				return nil, false, err
			}
			posting.ConsumedSeats = int(count)
		}
		recomputeLocked(posting)
	}
	lockChanged := posting.Locked != prevLocked
	if posting.ConsumedSeats == prevSeats && !lockChanged {
		return nil, false, nil
	}
	return &models.SeatMovement{
		At:            l.now(),
		PostingID:     posting.ID,
		Kind:          lockMovementKind(lockChanged, posting.Locked),
		Delta:         posting.ConsumedSeats - prevSeats,
		ConsumedSeats: posting.ConsumedSeats,
		Locked:        posting.Locked,
	}, lockChanged, nil
}

// DeletePosting removes a posting that has no applications
func (l *Ledger) DeletePosting(
	ctx context.Context,
	postingId string,
) (err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"DeletePosting",
		attribute.String("posting.id", postingId),
	)
	defer func() { err = l.finish(span, "DeletePosting", start, err) }()
	if err != nil {
		return err
	}
	if err := parseID(postingId, "internship"); err != nil {
		return err
	}
	unlock := l.lockPosting(postingId)
	defer unlock()
	txn := l.db.TransactionContext(ctx, true)
	err = txn.Do(func(txn *database.Txn) error {
		if _, err := l.db.GetPosting(postingId, txn); err != nil {
			return err
		}
		count, err := l.db.CountApplications(postingId, false, txn)
		if err != nil {
			return err
		}
		if count > 0 {
			return conflictError(
				"cannot delete an internship that has applications",
			)
		}
		return l.db.DeletePosting(postingId, txn)
	})
	if err != nil {
		return storeError(err)
	}
	l.config.Logger.Info(
		"deleted posting",
		"component", "ledger",
		"posting_id", postingId,
	)
	l.publish(
		event.PostingDeletedEventType,
		event.PostingDeletedEvent{PostingID: postingId},
	)
	return nil
}

// SeatMovements returns the seat journal of a posting, oldest first. A
// positive limit keeps only the most recent entries.
func (l *Ledger) SeatMovements(
	ctx context.Context,
	postingId string,
	limit int,
) (_ []models.SeatMovement, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"SeatMovements",
		attribute.String("posting.id", postingId),
	)
	defer func() { err = l.finish(span, "SeatMovements", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(postingId, "internship"); err != nil {
		return nil, err
	}
	var movements []models.SeatMovement
	err = l.view(ctx, func(txn *database.Txn) error {
		if _, err := l.db.GetPosting(postingId, txn); err != nil {
			return err
		}
		var err error
		movements, err = l.db.SeatMovements(postingId, limit, txn)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return movements, nil
}

func (l *Ledger) publishLockChange(posting *models.Posting) {
	limit := 0
	if posting.SeatLimit != nil {
		limit = *posting.SeatLimit
	}
	l.publish(
		event.PostingLockChangedEventType,
		event.PostingLockChangedEvent{
			PostingID:     posting.ID,
			ConsumedSeats: posting.ConsumedSeats,
			SeatLimit:     limit,
			Locked:        posting.Locked,
		},
	)
}

func lockMovementKind(lockChanged, locked bool) string {
	switch {
	case !lockChanged:
		return models.SeatMovementReconcile
	case locked:
		return models.SeatMovementLock
	default:
		return models.SeatMovementUnlock
	}
}

func seatLimitAttr(posting *models.Posting) any {
	if posting.SeatLimit == nil {
		return "unlimited"
	}
	return *posting.SeatLimit
}
