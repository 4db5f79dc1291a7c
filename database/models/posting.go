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

var ErrPostingNotFound = errors.New("posting not found")

// Posting categories
const (
	PostingCategoryWeb         = "web"
	PostingCategoryMobile      = "mobile"
	PostingCategoryDataScience = "data-science"
	PostingCategoryAiMl        = "ai-ml"
	PostingCategoryDevops      = "devops"
	PostingCategoryOther       = "other"
)

// Posting statuses
const (
	PostingStatusActive   = "active"
	PostingStatusInactive = "inactive"
	PostingStatusArchived = "archived"
)

// PostingCategories lists the accepted category values in display order
var PostingCategories = []string{
	PostingCategoryWeb,
	PostingCategoryMobile,
	PostingCategoryDataScience,
	PostingCategoryAiMl,
	PostingCategoryDevops,
	PostingCategoryOther,
}

// PostingStatuses lists the accepted posting status values
var PostingStatuses = []string{
	PostingStatusActive,
	PostingStatusInactive,
	PostingStatusArchived,
}

// Posting is an internship opening. SeatLimit is nil for unlimited postings.
// Locked is a cached projection of ConsumedSeats against SeatLimit and is only
// written by the ledger. Version is bumped on every write and guards
// conditional updates.
type Posting struct {
	SeatLimit           *int             `gorm:"column:seat_limit"`
	ApplicationDeadline *time.Time       `gorm:"column:application_deadline"`
	PostedAt            time.Time        `gorm:"index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ID                  string           `gorm:"primaryKey;size:36"`
	Title               string           `gorm:"size:255;not null"`
	Description         string           `gorm:"type:text;not null"`
	Organization        string           `gorm:"size:255;index;not null"`
	Location            string           `gorm:"size:255;not null"`
	Duration            string           `gorm:"size:64;not null"`
	MonthPeriod         string           `gorm:"size:64"`
	Category            string           `gorm:"size:32;index;not null"`
	Status              string           `gorm:"size:16;index;not null"`
	Requirements        types.StringList `gorm:"type:text"`
	Stipend             float64
	ConsumedSeats       int    `gorm:"not null"`
	Version             uint64 `gorm:"not null"`
	Locked              bool   `gorm:"not null"`
}

func (Posting) TableName() string {
	return "posting"
}

// HasSeatLimit reports whether the posting tracks seats at all
func (p *Posting) HasSeatLimit() bool {
	return p.SeatLimit != nil && *p.SeatLimit > 0
}
