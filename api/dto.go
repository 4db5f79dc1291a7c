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

package api

import (
	"time"

	"github.com/blinklabs-io/internhub/database/models"
)

type postingResponse struct {
	SeatLimit           *int       `json:"seatLimit"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	PostedAt            time.Time  `json:"postedAt"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Organization        string     `json:"organization"`
	Location            string     `json:"location"`
	Duration            string     `json:"duration"`
	MonthPeriod         string     `json:"monthPeriod,omitempty"`
	Category            string     `json:"category"`
	Status              string     `json:"status"`
	Requirements        []string   `json:"requirements"`
	Stipend             float64    `json:"stipend"`
	ConsumedSeats       int        `json:"consumedSeats"`
	AvailableSeats      *int       `json:"availableSeats"`
	Locked              bool       `json:"locked"`
}

func newPostingResponse(p *models.Posting) *postingResponse {
	if p == nil {
		return nil
	}
	ret := &postingResponse{
		SeatLimit:           p.SeatLimit,
		ApplicationDeadline: p.ApplicationDeadline,
		PostedAt:            p.PostedAt,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		ID:                  p.ID,
		Title:               p.Title,
		Description:         p.Description,
		Organization:        p.Organization,
		Location:            p.Location,
		Duration:            p.Duration,
		MonthPeriod:         p.MonthPeriod,
		Category:            p.Category,
		Status:              p.Status,
		Requirements:        p.Requirements,
		Stipend:             p.Stipend,
		ConsumedSeats:       p.ConsumedSeats,
		Locked:              p.Locked,
	}
	if ret.Requirements == nil {
		ret.Requirements = []string{}
	}
	if p.HasSeatLimit() {
		available := max(0, *p.SeatLimit-p.ConsumedSeats)
		ret.AvailableSeats = &available
	}
	return ret
}

func newPostingResponses(postings []models.Posting) []*postingResponse {
	ret := make([]*postingResponse, 0, len(postings))
	for i := range postings {
		ret = append(ret, newPostingResponse(&postings[i]))
	}
	return ret
}

type applicationResponse struct {
	Internship         *postingResponse `json:"internship,omitempty"`
	DateOfBirth        time.Time        `json:"dateOfBirth"`
	SubmittedAt        time.Time        `json:"submittedAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
	ID                 string           `json:"id"`
	InternshipID       string           `json:"internshipId"`
	ApplicantID        string           `json:"applicantId"`
	Status             string           `json:"status"`
	FullName           string           `json:"fullName"`
	Email              string           `json:"email"`
	Phone              string           `json:"phone"`
	Address            string           `json:"address"`
	CurrentInstitution string           `json:"currentInstitution"`
	Course             string           `json:"course"`
	YearOfStudy        string           `json:"yearOfStudy"`
	CGPA               string           `json:"cgpa,omitempty"`
	PreviousExperience string           `json:"previousExperience,omitempty"`
	CoverLetter        string           `json:"coverLetter,omitempty"`
	AdminNotes         string           `json:"adminNotes,omitempty"`
	Skills             []string         `json:"skills"`
}

func newApplicationResponse(a *models.Application) *applicationResponse {
	ret := &applicationResponse{
		Internship:         newPostingResponse(a.Posting),
		CGPA:               a.CGPA,
		DateOfBirth:        a.DateOfBirth,
		SubmittedAt:        a.SubmittedAt,
		UpdatedAt:          a.UpdatedAt,
		ID:                 a.ID,
		InternshipID:       a.PostingID,
		ApplicantID:        a.ApplicantID,
		Status:             a.Status,
		FullName:           a.FullName,
		Email:              a.Email,
		Phone:              a.Phone,
		Address:            a.Address,
		CurrentInstitution: a.CurrentInstitution,
		Course:             a.Course,
		YearOfStudy:        a.YearOfStudy,
		PreviousExperience: a.PreviousExperience,
		CoverLetter:        a.CoverLetter,
		AdminNotes:         a.AdminNotes,
		Skills:             a.Skills,
	}
	if ret.Skills == nil {
		ret.Skills = []string{}
	}
	return ret
}

func newApplicationResponses(apps []models.Application) []*applicationResponse {
	ret := make([]*applicationResponse, 0, len(apps))
	for i := range apps {
		ret = append(ret, newApplicationResponse(&apps[i]))
	}
	return ret
}
