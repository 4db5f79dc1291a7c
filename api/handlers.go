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
	"net/http"
	"strconv"

	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/ledger"
)

func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("GET /api/internships", a.handleListPostings)
	mux.HandleFunc("GET /api/internships/{id}", a.handleGetPosting)
	mux.HandleFunc("POST /api/internships", a.authenticated(true, a.handleCreatePosting))
	mux.HandleFunc("PUT /api/internships/{id}", a.authenticated(true, a.handleUpdatePosting))
	mux.HandleFunc("DELETE /api/internships/{id}", a.authenticated(true, a.handleDeletePosting))
	mux.HandleFunc(
		"GET /api/internships/{id}/applications",
		a.authenticated(true, a.handleListPostingApplications),
	)
	mux.HandleFunc(
		"GET /api/internships/{id}/journal",
		a.authenticated(true, a.handleSeatJournal),
	)
	mux.HandleFunc(
		"POST /api/internships/{id}/reconcile",
		a.authenticated(true, a.handleReconcile),
	)

	mux.HandleFunc("POST /api/applications", a.authenticated(false, a.handleSubmitApplication))
	mux.HandleFunc(
		"GET /api/applications/my-applications",
		a.authenticated(false, a.handleMyApplications),
	)
	mux.HandleFunc("GET /api/applications", a.authenticated(true, a.handleListApplications))
	mux.HandleFunc("GET /api/applications/{id}", a.authenticated(false, a.handleGetApplication))
	mux.HandleFunc(
		"PUT /api/applications/{id}/status",
		a.authenticated(true, a.handleUpdateApplicationStatus),
	)
	mux.HandleFunc(
		"DELETE /api/applications/{id}",
		a.authenticated(false, a.handleDeleteApplication),
	)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.config.Ledger.Health(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}

func (a *API) handleListPostings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	postings, err := a.config.Ledger.ListPostings(
		r.Context(),
		models.PostingFilter{
			Status:   query.Get("status"),
			Category: query.Get("category"),
		},
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newPostingResponses(postings))
}

func (a *API) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	posting, err := a.config.Ledger.GetPosting(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newPostingResponse(posting))
}

func (a *API) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreatePostingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	posting, err := a.config.Ledger.CreatePosting(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, newPostingResponse(posting))
}

func (a *API) handleUpdatePosting(w http.ResponseWriter, r *http.Request) {
	var req ledger.UpdatePostingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	posting, err := a.config.Ledger.UpdatePosting(r.Context(), r.PathValue("id"), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newPostingResponse(posting))
}

func (a *API) handleDeletePosting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.config.Ledger.DeletePosting(r.Context(), id); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (a *API) handleListPostingApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := a.config.Ledger.ListApplicationsForPosting(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newApplicationResponses(apps))
}

func (a *API) handleSeatJournal(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			a.writeError(w, &ledger.Error{
				Kind:    ledger.KindValidation,
				Message: "limit must be a non-negative integer",
			})
			return
		}
		limit = v
	}
	movements, err := a.config.Ledger.SeatMovements(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if movements == nil {
		movements = []models.SeatMovement{}
	}
	a.writeJSON(w, http.StatusOK, movements)
}

func (a *API) handleReconcile(w http.ResponseWriter, r *http.Request) {
	result, err := a.config.Ledger.Reconcile(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	var req ledger.SubmitApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	app, err := a.config.Ledger.SubmitApplication(r.Context(), id.Subject, req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, newApplicationResponse(app))
}

func (a *API) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	apps, err := a.config.Ledger.ListApplicationsForApplicant(r.Context(), id.Subject)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newApplicationResponses(apps))
}

func (a *API) handleListApplications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	apps, err := a.config.Ledger.ListApplications(
		r.Context(),
		models.ApplicationFilter{
			Status:    query.Get("status"),
			PostingID: query.Get("internshipId"),
		},
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newApplicationResponses(apps))
}

func (a *API) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	app, err := a.config.Ledger.GetApplication(
		r.Context(),
		r.PathValue("id"),
		id.Subject,
		id.IsStaff(),
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newApplicationResponse(app))
}

func (a *API) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req ledger.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	app, err := a.config.Ledger.UpdateApplicationStatus(r.Context(), r.PathValue("id"), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, newApplicationResponse(app))
}

func (a *API) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	appId := r.PathValue("id")
	if err := a.config.Ledger.DeleteApplication(
		r.Context(),
		appId,
		id.Subject,
		id.IsStaff(),
	); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"id": appId})
}
