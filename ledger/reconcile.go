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
	"fmt"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/event"
	"go.opentelemetry.io/otel/attribute"
)

// ReconcileResult describes the seat state of a posting before and after a
// recount
type ReconcileResult struct {
	PostingID      string `json:"postingId"`
	PreviousSeats  int    `json:"previousSeats"`
	ConsumedSeats  int    `json:"consumedSeats"`
	PreviousLocked bool   `json:"previousLocked"`
	Locked         bool   `json:"locked"`
	Repaired       bool   `json:"repaired"`
}

// Reconcile recounts the live applications on a posting and repairs its seat
// count and lock if they drifted. Postings without a seat limit are held at
// zero consumed seats.
func (l *Ledger) Reconcile(
	ctx context.Context,
	postingId string,
) (_ *ReconcileResult, err error) {
	ctx, span, start, err := l.begin(
		ctx,
		"Reconcile",
		attribute.String("posting.id", postingId),
	)
	defer func() { err = l.finish(span, "Reconcile", start, err) }()
	if err != nil {
		return nil, err
	}
	if err := parseID(postingId, "internship"); err != nil {
		return nil, err
	}
	return l.reconcile(postingId)
}

func (l *Ledger) reconcile(postingId string) (*ReconcileResult, error) {
	unlock := l.lockPosting(postingId)
	defer unlock()
	var result ReconcileResult
	var posting *models.Posting
	txn := l.db.TransactionContext(ctx, true)
	err := txn.Do(func(txn *database.Txn) error {
		var err error
		posting, err = l.db.GetPosting(postingId, txn)
		if err != nil {
			return err
		}
		result = ReconcileResult{
			PostingID:      posting.ID,
			PreviousSeats:  posting.ConsumedSeats,
			PreviousLocked: posting.Locked,
		}
		expectedVersion := posting.Version
		if posting.HasSeatLimit() {
			count, err := l.db.CountApplications(posting.ID, true, txn)
			if err != nil {
				return err
			}
			posting.ConsumedSeats = int(count)
		} else {
			posting.ConsumedSeats = 0
		}
		recomputeLocked(posting)
		result.ConsumedSeats = posting.ConsumedSeats
		result.Locked = posting.Locked
		result.Repaired = result.ConsumedSeats != result.PreviousSeats ||
			result.Locked != result.PreviousLocked
		if !result.Repaired {
			return nil
		}
		if err := l.db.UpdatePosting(posting, expectedVersion, txn); err != nil {
			return err
		}
		return l.db.AppendSeatMovement(
			l.seatMovement(
				posting,
				"",
				models.SeatMovementReconcile,
				result.ConsumedSeats-result.PreviousSeats,
			),
			txn,
		)
	})
	if err != nil {
		return nil, storeError(err)
	}
	if result.Repaired {
		l.metrics.reconcileRepairs.Inc()
		l.config.Logger.Warn(
			"repaired posting seat state",
			"component", "ledger",
			"posting_id", result.PostingID,
			"previous_seats", result.PreviousSeats,
			"consumed_seats", result.ConsumedSeats,
			"previous_locked", result.PreviousLocked,
			"locked", result.Locked,
		)
		l.publish(
			event.SeatsReconciledEventType,
			event.SeatsReconciledEvent{
				PostingID:      result.PostingID,
				PreviousSeats:  result.PreviousSeats,
				ConsumedSeats:  result.ConsumedSeats,
				PreviousLocked: result.PreviousLocked,
				Locked:         result.Locked,
			},
		)
		if result.Locked != result.PreviousLocked {
			l.publishLockChange(posting)
		}
	}
	return &result, nil
}

// ReconcileAll reconciles every posting. It keeps going past failures and
// returns them joined.
func (l *Ledger) ReconcileAll(
	ctx context.Context,
) (_ []ReconcileResult, err error) {
	ctx, span, start, err := l.begin(ctx, "ReconcileAll")
	defer func() { err = l.finish(span, "ReconcileAll", start, err) }()
	if err != nil {
		return nil, err
	}
	var ids []string
	err = l.view(ctx, func(txn *database.Txn) error {
		var err error
		ids, err = l.db.ListPostingIDs(txn)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	results := make([]ReconcileResult, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := l.reconcile(id)
		if err != nil {
			// Postings deleted since the listing are skipped
			if KindOf(err) == KindNotFound {
				continue
			}
			errs = append(errs, fmt.Errorf("reconcile posting %s: %w", id, err))
			continue
		}
		results = append(results, *result)
	}
	span.SetAttributes(attribute.Int("postings", len(results)))
	return results, errors.Join(errs...)
}
