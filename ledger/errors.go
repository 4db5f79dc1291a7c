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
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/internhub/database"
	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/database/types"
	"gorm.io/gorm"
)

// ErrorKind classifies the outcome of a failed ledger operation
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindForbidden        ErrorKind = "forbidden"
	KindStoreUnavailable ErrorKind = "store_unavailable"
)

// Sentinel values for use with errors.Is. Any *Error matches the sentinel of
// the same kind.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
)

// Error is returned by every ledger operation that fails
type Error struct {
	Err     error
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a sentinel of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of a ledger error, or an empty kind for anything else
func KindOf(err error) ErrorKind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return ""
}

func validationError(messages ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(messages, ", "),
	}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func conflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func forbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// storeError classifies an error returned by the database layer. Errors that
// are already ledger errors pass through unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return err
	}
	switch {
	case errors.Is(err, models.ErrPostingNotFound):
		return &Error{Kind: KindNotFound, Message: "internship not found", Err: err}
	case errors.Is(err, models.ErrApplicationNotFound):
		return &Error{Kind: KindNotFound, Message: "application not found", Err: err}
	case errors.Is(err, types.ErrStaleVersion):
		return &Error{
			Kind:    KindConflict,
			Message: "internship was modified concurrently, retry the request",
			Err:     err,
		}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{
			Kind:    KindConflict,
			Message: "you have already applied for this internship",
			Err:     err,
		}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{
			Kind:    KindConflict,
			Message: "internship still has applications",
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindStoreUnavailable,
		Message: "database unavailable",
		Err:     err,
	}
}

// errStoreUnavailable is used when no database is configured
var errStoreUnavailable = &Error{
	Kind:    KindStoreUnavailable,
	Message: "database unavailable",
	Err:     database.ErrStoreUnavailable,
}
