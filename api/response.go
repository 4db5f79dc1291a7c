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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/blinklabs-io/internhub/ledger"
)

// Error codes that do not come from the ledger
const (
	errorUnauthorized = "unauthorized"
	errorRateLimited  = "rate_limited"
	errorInternal     = "internal"
)

type successResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		a.config.Logger.Debug("failed to write response", "error", err)
	}
}

func (a *API) writeErrorBody(
	w http.ResponseWriter,
	status int,
	code string,
	message string,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:   code,
		Message: message,
	}); err != nil {
		a.config.Logger.Debug("failed to write response", "error", err)
	}
}

// writeError maps a ledger error onto its HTTP status
func (a *API) writeError(w http.ResponseWriter, err error) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		a.config.Logger.Error("unexpected error", "error", err)
		a.writeErrorBody(
			w,
			http.StatusInternalServerError,
			errorInternal,
			"internal server error",
		)
		return
	}
	message := lerr.Message
	if message == "" {
		message = string(lerr.Kind)
	}
	a.writeErrorBody(w, statusForKind(lerr.Kind), string(lerr.Kind), message)
}

func statusForKind(kind ledger.ErrorKind) int {
	switch kind {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindConflict:
		return http.StatusConflict
	case ledger.KindForbidden:
		return http.StatusForbidden
	case ledger.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into dst. Failures are reported as
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &ledger.Error{Kind: ledger.KindValidation, Message: "request body is required"}
		case errors.As(err, &maxErr):
			return &ledger.Error{
				Kind:    ledger.KindValidation,
				Message: fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit),
			}
		default:
			return &ledger.Error{
				Kind:    ledger.KindValidation,
				Message: "malformed JSON body",
				Err:     err,
			}
		}
	}
	return nil
}
