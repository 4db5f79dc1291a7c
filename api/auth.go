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
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// Claims are the bearer token claims accepted by the API
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified caller of a request
type Identity struct {
	Subject string
	Role    string
}

func (i Identity) IsStaff() bool {
	return i.Role == RoleAdmin || i.Role == RoleSuperAdmin
}

type identityContextKey struct{}

func identityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidRole  = errors.New("token has an unknown role")
)

// verifyToken checks an HS256 bearer token and returns its identity
func (a *API) verifyToken(header string) (Identity, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return Identity{}, errMissingToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(
		strings.TrimSpace(raw),
		&claims,
		func(token *jwt.Token) (any, error) {
			return a.config.JWTSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Identity{}, err
	}
	if claims.Subject == "" {
		return Identity{}, jwt.ErrTokenInvalidSubject
	}
	switch claims.Role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
	case "":
		claims.Role = RoleUser
	default:
		return Identity{}, errInvalidRole
	}
	return Identity{Subject: claims.Subject, Role: claims.Role}, nil
}

// authenticated requires a valid token, and a staff role when staffOnly is set
func (a *API) authenticated(staffOnly bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(a.config.JWTSecret) == 0 {
			a.writeErrorBody(
				w,
				http.StatusUnauthorized,
				errorUnauthorized,
				"authentication is not configured",
			)
			return
		}
		id, err := a.verifyToken(r.Header.Get("Authorization"))
		if err != nil {
			a.config.Logger.Debug("rejected bearer token", "error", err)
			a.writeErrorBody(
				w,
				http.StatusUnauthorized,
				errorUnauthorized,
				"invalid or missing token",
			)
			return
		}
		if staffOnly && !id.IsStaff() {
			a.writeErrorBody(
				w,
				http.StatusForbidden,
				"forbidden",
				"admin access required",
			)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityContextKey{}, id)))
	}
}
