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

package gormstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPosting returns the posting with the given ID
func (s *Store) GetPosting(
	id string,
	txn types.Txn,
) (*models.Posting, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Posting{}
	result := db.Where("id = ?", id).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrPostingNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// ListPostings returns postings matching the filter, newest first
func (s *Store) ListPostings(
	filter models.PostingFilter,
	txn types.Txn,
) ([]models.Posting, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Posting{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	var ret []models.Posting
	result := query.Order("posted_at DESC").Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ListPostingIDs returns the ID of every posting
func (s *Store) ListPostingIDs(txn types.Txn) ([]string, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []string
	result := db.Model(&models.Posting{}).Order("id").Pluck("id", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreatePosting inserts a new posting
func (s *Store) CreatePosting(
	posting *models.Posting,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(posting); result.Error != nil {
		return result.Error
	}
	return nil
}

// UpdatePosting writes every mutable posting column, but only if the stored
// row still has expectedVersion. On success the posting's Version is advanced.
// types.ErrStaleVersion is returned when the row changed underneath the caller.
func (s *Store) UpdatePosting(
	posting *models.Posting,
	expectedVersion uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	result := db.Model(&models.Posting{}).
		Where("id = ? AND version = ?", posting.ID, expectedVersion).
		Updates(map[string]any{
			"title":                posting.Title,
			"description":          posting.Description,
			"organization":         posting.Organization,
			"location":             posting.Location,
			"duration":             posting.Duration,
			"month_period":         posting.MonthPeriod,
			"category":             posting.Category,
			"status":               posting.Status,
			"requirements":         posting.Requirements,
			"stipend":              posting.Stipend,
			"seat_limit":           posting.SeatLimit,
			"application_deadline": posting.ApplicationDeadline,
			"consumed_seats":       posting.ConsumedSeats,
			"locked":               posting.Locked,
			"version":              expectedVersion + 1,
			"updated_at":           now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf(
			"posting %s at version %d: %w",
			posting.ID,
			expectedVersion,
			types.ErrStaleVersion,
		)
	}
	posting.Version = expectedVersion + 1
	posting.UpdatedAt = now
	return nil
}

// DeletePosting removes a posting
func (s *Store) DeletePosting(id string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.Posting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrPostingNotFound
	}
	return nil
}

// CountApplicationsForPosting counts applications on a posting. With
// seatHoldersOnly set, rejected applications are excluded.
func (s *Store) CountApplicationsForPosting(
	postingId string,
	seatHoldersOnly bool,
	txn types.Txn,
) (int64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	query := db.Model(&models.Application{}).Where("posting_id = ?", postingId)
	if seatHoldersOnly {
		query = query.Where("status <> ?", models.ApplicationStatusRejected)
	}
	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// GetApplication returns the application with the given ID and its posting
func (s *Store) GetApplication(
	id string,
	txn types.Txn,
) (*models.Application, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Application{}
	result := db.Preload("Posting").Where("id = ?", id).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrApplicationNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// FindApplication returns the application an applicant holds on a posting
func (s *Store) FindApplication(
	applicantId string,
	postingId string,
	txn types.Txn,
) (*models.Application, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Application{}
	result := db.Where(
		"applicant_id = ? AND posting_id = ?",
		applicantId,
		postingId,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrApplicationNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// ListApplications returns applications matching the filter, newest first
func (s *Store) ListApplications(
	filter models.ApplicationFilter,
	txn types.Txn,
) ([]models.Application, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Model(&models.Application{}).Preload("Posting")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PostingID != "" {
		query = query.Where("posting_id = ?", filter.PostingID)
	}
	if filter.ApplicantID != "" {
		query = query.Where("applicant_id = ?", filter.ApplicantID)
	}
	var ret []models.Application
	result := query.Order("submitted_at DESC").Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateApplication inserts a new application. The attached posting, if any,
// is not written.
func (s *Store) CreateApplication(
	application *models.Application,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Omit(clause.Associations).Create(application)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// UpdateApplicationStatus sets the status and staff notes of an application
// whose stored status is still fromStatus. types.ErrStaleVersion is returned
// when another writer changed the status first.
func (s *Store) UpdateApplicationStatus(
	application *models.Application,
	fromStatus string,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	result := db.Model(&models.Application{}).
		Where("id = ? AND status = ?", application.ID, fromStatus).
		Updates(map[string]any{
			"status":      application.Status,
			"admin_notes": application.AdminNotes,
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Application{}).
			Where("id = ?", application.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.ErrApplicationNotFound
		}
		return fmt.Errorf(
			"application %s no longer %s: %w",
			application.ID,
			fromStatus,
			types.ErrStaleVersion,
		)
	}
	application.UpdatedAt = now
	return nil
}

// DeleteApplication removes an application
func (s *Store) DeleteApplication(id string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.Application{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrApplicationNotFound
	}
	return nil
}
