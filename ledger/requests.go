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

import "strings"

// SubmitApplicationRequest carries the applicant's form
type SubmitApplicationRequest struct {
	PostingID          string   `json:"internshipId"       validate:"required,notblank"`
	FullName           string   `json:"fullName"           validate:"required,notblank,max=255"`
	Email              string   `json:"email"              validate:"required,email,max=255"`
	Phone              string   `json:"phone"              validate:"required,notblank,max=64"`
	DateOfBirth        string   `json:"dateOfBirth"        validate:"required,notblank"`
	Address            string   `json:"address"            validate:"required,notblank"`
	CurrentInstitution string   `json:"currentInstitution" validate:"required,notblank,max=255"`
	Course             string   `json:"course"             validate:"required,notblank,max=255"`
	YearOfStudy        string   `json:"yearOfStudy"        validate:"required,notblank,max=32"`
	CGPA               string   `json:"cgpa"               validate:"max=32"`
	PreviousExperience string   `json:"previousExperience"`
	CoverLetter        string   `json:"coverLetter"`
	Skills             []string `json:"skills"`
}

func (r *SubmitApplicationRequest) normalize() {
	r.PostingID = strings.TrimSpace(r.PostingID)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Address = strings.TrimSpace(r.Address)
	r.CurrentInstitution = strings.TrimSpace(r.CurrentInstitution)
	r.Course = strings.TrimSpace(r.Course)
	r.YearOfStudy = strings.TrimSpace(r.YearOfStudy)
	r.CGPA = strings.TrimSpace(r.CGPA)
	r.PreviousExperience = strings.TrimSpace(r.PreviousExperience)
	r.CoverLetter = strings.TrimSpace(r.CoverLetter)
	r.Skills = cleanList(r.Skills)
}

// UpdateStatusRequest moves an application to a new status. A nil
// AdminNotes keeps the existing notes.
type UpdateStatusRequest struct {
	AdminNotes *string `json:"adminNotes"`
	Status     string  `json:"status"     validate:"required,oneof=pending under-review accepted rejected"`
}

// CreatePostingRequest describes a new posting. A nil SeatLimit means
// unlimited seats.
type CreatePostingRequest struct {
	SeatLimit           *int     `json:"seatLimit"`
	Stipend             *float64 `json:"stipend"`
	Title               string   `json:"title"               validate:"required,notblank,max=255"`
	Description         string   `json:"description"         validate:"required,notblank"`
	Organization        string   `json:"organization"        validate:"required,notblank,max=255"`
	Location            string   `json:"location"            validate:"required,notblank,max=255"`
	Duration            string   `json:"duration"            validate:"required,notblank,max=64"`
	MonthPeriod         string   `json:"monthPeriod"         validate:"max=64"`
	Category            string   `json:"category"            validate:"omitempty,oneof=web mobile data-science ai-ml devops other"`
	Status              string   `json:"status"              validate:"omitempty,oneof=active inactive archived"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	Requirements        []string `json:"requirements"`
}

func (r *CreatePostingRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Organization = strings.TrimSpace(r.Organization)
	r.Location = strings.TrimSpace(r.Location)
	r.Duration = strings.TrimSpace(r.Duration)
	r.MonthPeriod = strings.TrimSpace(r.MonthPeriod)
	r.Category = strings.TrimSpace(r.Category)
	r.Status = strings.TrimSpace(r.Status)
	r.ApplicationDeadline = strings.TrimSpace(r.ApplicationDeadline)
	r.Requirements = cleanList(r.Requirements)
}

// UpdatePostingRequest edits a posting. Nil fields are left unchanged.
// ClearSeatLimit removes the seat limit; an empty ApplicationDeadline
// removes the deadline.
type UpdatePostingRequest struct {
	Title               *string   `json:"title"               validate:"omitempty,notblank,max=255"`
	Description         *string   `json:"description"         validate:"omitempty,notblank"`
	Organization        *string   `json:"organization"        validate:"omitempty,notblank,max=255"`
	Location            *string   `json:"location"            validate:"omitempty,notblank,max=255"`
	Duration            *string   `json:"duration"            validate:"omitempty,notblank,max=64"`
	MonthPeriod         *string   `json:"monthPeriod"         validate:"omitempty,max=64"`
	Category            *string   `json:"category"            validate:"omitempty,oneof=web mobile data-science ai-ml devops other"`
	Status              *string   `json:"status"              validate:"omitempty,oneof=active inactive archived"`
	ApplicationDeadline *string   `json:"applicationDeadline"`
	Stipend             *float64  `json:"stipend"`
	SeatLimit           *int      `json:"seatLimit"`
	Requirements        *[]string `json:"requirements"`
	ClearSeatLimit      bool      `json:"clearSeatLimit"`
}

func (r *UpdatePostingRequest) normalize() {
	r.Title = trimPtr(r.Title)
	r.Description = trimPtr(r.Description)
	r.Organization = trimPtr(r.Organization)
	r.Location = trimPtr(r.Location)
	r.Duration = trimPtr(r.Duration)
	r.MonthPeriod = trimPtr(r.MonthPeriod)
	r.Category = trimPtr(r.Category)
	r.Status = trimPtr(r.Status)
	r.ApplicationDeadline = trimPtr(r.ApplicationDeadline)
	if r.Requirements != nil {
		reqs := cleanList(*r.Requirements)
		r.Requirements = &reqs
	}
}
