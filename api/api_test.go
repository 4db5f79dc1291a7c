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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/internhub/api"
	"github.com/blinklabs-io/internhub/internal/test/testutil"
	"github.com/blinklabs-io/internhub/ledger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, cfg api.APIConfig) *testServer {
	t.Helper()
	db := testutil.NewMemoryDatabase(t)
	registry := prometheus.NewRegistry()
	cfg.Ledger = ledger.New(ledger.LedgerConfig{Database: db})
	cfg.PromRegistry = registry
	if cfg.JWTSecret == nil {
		cfg.JWTSecret = testSecret
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = -1
	}
	return &testServer{
		t:        t,
		handler:  api.New(cfg).Handler(),
		registry: registry,
	}
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		api.Claims{
			Role: role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		},
	).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(method, path, tok string, body any) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.True(t, env.Success, "error %s: %s", env.Error, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func postingBody(seatLimit *int) map[string]any {
	ret := map[string]any{
		"title":        "Backend Intern",
		"description":  "Work on the API",
		"organization": "Acme",
		"location":     "Remote",
		"duration":     "3 months",
		"requirements": []string{"go"},
	}
	if seatLimit != nil {
		ret["seatLimit"] = *seatLimit
	}
	return ret
}

func applicationBody(postingId string) map[string]any {
	return map[string]any{
		"internshipId":       postingId,
		"fullName":           "Jane Doe",
		"email":              "jane@example.com",
		"phone":              "555-0100",
		"dateOfBirth":        "2003-04-05",
		"address":            "1 Main St",
		"currentInstitution": "State University",
		"course":             "Computer Science",
		"yearOfStudy":        "3",
	}
}

type postingJSON struct {
	SeatLimit      *int   `json:"seatLimit"`
	AvailableSeats *int   `json:"availableSeats"`
	ID             string `json:"id"`
	Category       string `json:"category"`
	Status         string `json:"status"`
	ConsumedSeats  int    `json:"consumedSeats"`
	Locked         bool   `json:"locked"`
}

type applicationJSON struct {
	Internship   *postingJSON `json:"internship"`
	ID           string       `json:"id"`
	InternshipID string       `json:"internshipId"`
	ApplicantID  string       `json:"applicantId"`
	Status       string       `json:"status"`
	Email        string       `json:"email"`
}

func (s *testServer) createPosting(seatLimit int) postingJSON {
	s.t.Helper()
	code, env := s.do(
		http.MethodPost,
		"/api/internships",
		token(s.t, "admin-1", api.RoleAdmin),
		postingBody(&seatLimit),
	)
	require.Equal(s.t, http.StatusCreated, code)
	var posting postingJSON
	decodeData(s.t, env, &posting)
	return posting
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	code, env := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	var data map[string]string
	decodeData(t, env, &data)
	assert.Equal(t, "connected", data["database"])
}

func TestHealthWithoutDatabase(t *testing.T) {
	handler := api.New(api.APIConfig{
		Ledger:       ledger.New(ledger.LedgerConfig{}),
		PromRegistry: prometheus.NewRegistry(),
	}).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, string(ledger.KindStoreUnavailable), env.Error)
}

func TestPostingEndpoints(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	posting := s.createPosting(2)
	assert.Equal(t, "other", posting.Category)
	assert.Equal(t, "active", posting.Status)
	require.NotNil(t, posting.AvailableSeats)
	assert.Equal(t, 2, *posting.AvailableSeats)

	code, env := s.do(http.MethodGet, "/api/internships/"+posting.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var fetched postingJSON
	decodeData(t, env, &fetched)
	assert.Equal(t, posting.ID, fetched.ID)

	code, env = s.do(http.MethodGet, "/api/internships?status=active", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list []postingJSON
	decodeData(t, env, &list)
	assert.Len(t, list, 1)

	code, env = s.do(http.MethodGet, "/api/internships?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(ledger.KindValidation), env.Error)

	code, env = s.do(
		http.MethodPut,
		"/api/internships/"+posting.ID,
		token(t, "admin-1", api.RoleSuperAdmin),
		map[string]any{"category": "web"},
	)
	require.Equal(t, http.StatusOK, code)
	var updated postingJSON
	decodeData(t, env, &updated)
	assert.Equal(t, "web", updated.Category)

	code, _ = s.do(
		http.MethodDelete,
		"/api/internships/"+posting.ID,
		token(t, "admin-1", api.RoleAdmin),
		nil,
	)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/api/internships/"+posting.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "internship not found", env.Message)
}

func TestCreatePostingValidation(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	body := postingBody(nil)
	delete(body, "title")
	code, env := s.do(
		http.MethodPost,
		"/api/internships",
		token(t, "admin-1", api.RoleAdmin),
		body,
	)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "title is required")
}

func TestCreatePostingNormalizesLimitAndDeadline(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	zero := 0
	body := postingBody(&zero)
	body["applicationDeadline"] = "not a date"
	code, env := s.do(
		http.MethodPost,
		"/api/internships",
		token(t, "admin-1", api.RoleAdmin),
		body,
	)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var data map[string]any
	decodeData(t, env, &data)
	assert.Nil(t, data["seatLimit"])
	assert.NotContains(t, data, "applicationDeadline")
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/internships",
		strings.NewReader("{not json"),
	)
	req.Header.Set("Authorization", "Bearer "+token(t, "admin-1", api.RoleAdmin))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed JSON body")
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	testDefs := []struct {
		name   string
		token  string
		status int
	}{
		{name: "missing", token: "", status: http.StatusUnauthorized},
		{name: "garbage", token: "not-a-jwt", status: http.StatusUnauthorized},
		{name: "user", token: token(t, "user-1", api.RoleUser), status: http.StatusForbidden},
		{name: "unknown role", token: token(t, "user-1", "root"), status: http.StatusUnauthorized},
		{name: "admin", token: token(t, "admin-1", api.RoleAdmin), status: http.StatusOK},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			code, _ := s.do(http.MethodGet, "/api/applications", testDef.token, nil)
			assert.Equal(t, testDef.status, code)
		})
	}
}

func TestWrongSigningKey(t *testing.T) {
	s := newTestServer(t, api.APIConfig{JWTSecret: []byte("other-secret")})
	code, env := s.do(
		http.MethodGet,
		"/api/applications/my-applications",
		token(t, "user-1", api.RoleUser),
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid or missing token", env.Message)
}

func TestApplicationLifecycle(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	posting := s.createPosting(1)
	alice := token(t, "alice", api.RoleUser)
	bob := token(t, "bob", api.RoleUser)
	admin := token(t, "admin-1", api.RoleAdmin)

	code, env := s.do(http.MethodPost, "/api/applications", alice, applicationBody(posting.ID))
	require.Equal(t, http.StatusCreated, code)
	var app applicationJSON
	decodeData(t, env, &app)
	assert.Equal(t, "alice", app.ApplicantID)
	assert.Equal(t, "pending", app.Status)
	assert.Equal(t, posting.ID, app.InternshipID)

	// A repeat applicant gets a conflict even on a full posting
	code, env = s.do(http.MethodPost, "/api/applications", alice, applicationBody(posting.ID))
	assert.Equal(t, http.StatusConflict, code, env.Message)

	// Posting is now full
	code, env = s.do(http.MethodPost, "/api/applications", bob, applicationBody(posting.ID))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(
		t,
		"this internship is no longer accepting applications, all seats have been filled",
		env.Message,
	)

	code, env = s.do(http.MethodGet, "/api/internships/"+posting.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var full postingJSON
	decodeData(t, env, &full)
	assert.True(t, full.Locked)
	assert.Equal(t, 1, full.ConsumedSeats)
	require.NotNil(t, full.AvailableSeats)
	assert.Zero(t, *full.AvailableSeats)

	// Access control on a single application
	code, _ = s.do(http.MethodGet, "/api/applications/"+app.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, env = s.do(http.MethodGet, "/api/applications/"+app.ID, alice, nil)
	require.Equal(t, http.StatusOK, code)
	var own applicationJSON
	decodeData(t, env, &own)
	require.NotNil(t, own.Internship)
	assert.Equal(t, posting.ID, own.Internship.ID)

	// Rejection frees the seat
	code, env = s.do(
		http.MethodPut,
		"/api/applications/"+app.ID+"/status",
		admin,
		map[string]any{"status": "rejected", "adminNotes": "not a fit"},
	)
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(http.MethodPost, "/api/applications", bob, applicationBody(posting.ID))
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(http.MethodGet, "/api/applications/my-applications", alice, nil)
	require.Equal(t, http.StatusOK, code)
	var mine []applicationJSON
	decodeData(t, env, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "rejected", mine[0].Status)

	code, env = s.do(
		http.MethodGet,
		"/api/internships/"+posting.ID+"/applications",
		admin,
		nil,
	)
	require.Equal(t, http.StatusOK, code)
	var forPosting []applicationJSON
	decodeData(t, env, &forPosting)
	assert.Len(t, forPosting, 2)

	code, env = s.do(http.MethodGet, "/api/applications?status=rejected", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var rejected []applicationJSON
	decodeData(t, env, &rejected)
	assert.Len(t, rejected, 1)

	// Only the owner or staff may delete
	code, _ = s.do(http.MethodDelete, "/api/applications/"+app.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodDelete, "/api/applications/"+app.ID, alice, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/applications/"+app.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Postings with applications cannot be deleted
	code, env = s.do(http.MethodDelete, "/api/internships/"+posting.ID, admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "cannot delete an internship that has applications", env.Message)
}

func TestJournalAndReconcile(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	posting := s.createPosting(1)
	admin := token(t, "admin-1", api.RoleAdmin)
	code, _ := s.do(
		http.MethodPost,
		"/api/applications",
		token(t, "alice", api.RoleUser),
		applicationBody(posting.ID),
	)
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(http.MethodGet, "/api/internships/"+posting.ID+"/journal", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var journal []map[string]any
	decodeData(t, env, &journal)
	require.Len(t, journal, 2)
	assert.Equal(t, "consume", journal[0]["kind"])
	assert.Equal(t, "lock", journal[1]["kind"])

	code, env = s.do(
		http.MethodGet,
		"/api/internships/"+posting.ID+"/journal?limit=1",
		admin,
		nil,
	)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &journal)
	assert.Len(t, journal, 1)

	code, _ = s.do(
		http.MethodGet,
		"/api/internships/"+posting.ID+"/journal?limit=-4",
		admin,
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodPost, "/api/internships/"+posting.ID+"/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var result ledger.ReconcileResult
	decodeData(t, env, &result)
	assert.False(t, result.Repaired)
	assert.Equal(t, 1, result.ConsumedSeats)
	assert.True(t, result.Locked)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, api.APIConfig{RateLimit: 0.001, RateBurst: 2})
	for range 2 {
		code, _ := s.do(http.MethodGet, "/api/health", "", nil)
		require.Equal(t, http.StatusOK, code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.InDelta(t, 1, counterValue(t, s.registry, "internhub_api_rate_limited_total"), 0)
}

func TestRequestMetrics(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	s.do(http.MethodGet, "/api/health", "", nil)
	s.do(http.MethodGet, "/api/internships/nope", "", nil)
	count, err := promtestutil.GatherAndCount(s.registry, "internhub_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestDuplicateApplication(t *testing.T) {
	s := newTestServer(t, api.APIConfig{})
	code, env := s.do(
		http.MethodPost,
		"/api/internships",
		token(t, "admin-1", api.RoleAdmin),
		postingBody(nil),
	)
	require.Equal(t, http.StatusCreated, code)
	var posting postingJSON
	decodeData(t, env, &posting)
	assert.Nil(t, posting.SeatLimit)
	assert.Nil(t, posting.AvailableSeats)

	alice := token(t, "alice", api.RoleUser)
	code, _ = s.do(http.MethodPost, "/api/applications", alice, applicationBody(posting.ID))
	require.Equal(t, http.StatusCreated, code)
	code, env = s.do(http.MethodPost, "/api/applications", alice, applicationBody(posting.ID))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "you have already applied for this internship", env.Message)
}

func TestStopBeforeStart(t *testing.T) {
	a := api.New(api.APIConfig{
		Ledger:       ledger.New(ledger.LedgerConfig{}),
		PromRegistry: prometheus.NewRegistry(),
		Host:         "127.0.0.1",
	})
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Start())
}
