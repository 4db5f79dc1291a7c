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

import (
	"errors"
	"time"

	"github.com/blinklabs-io/internhub/database/types"
)

var ErrApplicationNotFound = errors.New("application not found")

// Application statuses
const (
	ApplicationStatusPending     = "pending"
	ApplicationStatusUnderReview = "under-review"
	ApplicationStatusAccepted    = "accepted"
	ApplicationStatusRejected    = "rejected"
)

// ApplicationStatuses lists the accepted application status values
var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusUnderReview,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// Application is a single applicant's application to a posting. The
// (ApplicantID, PostingID) pair is unique.
type Application struct {
	Posting            *Posting `gorm:"foreignKey:PostingID;constraint:OnDelete:RESTRICT"`
	DateOfBirth        time.Time
	SubmittedAt        time.Time `gorm:"index"`
	UpdatedAt          time.Time
	ID                 string           `gorm:"primaryKey;size:36"`
	PostingID          string           `gorm:"size:36;not null;index;uniqueIndex:idx_application_applicant_posting,priority:2"`
	ApplicantID        string           `gorm:"size:64;not null;uniqueIndex:idx_application_applicant_posting,priority:1"`
	Status             string           `gorm:"size:16;index;not null"`
	FullName           string           `gorm:"size:255;not null"`
	Email              string           `gorm:"size:255;not null"`
	Phone              string           `gorm:"size:64;not null"`
	Address            string           `gorm:"type:text;not null"`
	CurrentInstitution string           `gorm:"size:255;not null"`
	Course             string           `gorm:"size:255;not null"`
	YearOfStudy        string           `gorm:"size:32;not null"`
	CGPA               string           `gorm:"column:cgpa;size:32"`
	PreviousExperience string           `gorm:"type:text"`
	CoverLetter        string           `gorm:"type:text"`
	AdminNotes         string           `gorm:"type:text"`
	Skills             types.StringList `gorm:"type:text"`
}

func (Application) TableName() string {
	return "application"
}

// ConsumesSeat reports whether the application currently holds a seat on its posting
func (a *Application) ConsumesSeat() bool {
	return a.Status != ApplicationStatusRejected
}
