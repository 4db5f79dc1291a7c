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

package postgres

import (
	"testing"

	"github.com/blinklabs-io/internhub/database/plugin/metadata/internal/gormstore"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	s := NewWithOptions(nil, nil)
	assert.Equal(t, defaultConn, s.conn)
	assert.NotNil(t, s.logger)
	assert.Equal(
		t,
		"host=localhost port=5432 user=postgres password= dbname=internhub sslmode=disable TimeZone=UTC",
		s.dsn(),
	)
}

func TestDSNFromParts(t *testing.T) {
	s := NewWithOptions(
		nil,
		nil,
		gormstore.WithHost("db.internal"),
		gormstore.WithPort(6543),
		gormstore.WithUser("ledger"),
		gormstore.WithPassword("secret"),
		gormstore.WithDatabase("seats"),
		gormstore.WithTLS("require"),
		gormstore.WithTimeZone(""),
	)
	assert.Equal(
		t,
		"host=db.internal port=6543 user=ledger password=secret dbname=seats sslmode=require",
		s.dsn(),
	)
}

func TestDSNOverride(t *testing.T) {
	s := NewWithOptions(
		nil,
		nil,
		gormstore.WithHost("ignored"),
		gormstore.WithDSN("  postgres://u:p@h:5432/d  "),
	)
	assert.Equal(t, "postgres://u:p@h:5432/d", s.dsn())
}

func TestCloseWithoutStart(t *testing.T) {
	assert.NoError(t, NewWithOptions(nil, nil).Close())
}

func TestNewFromCmdlineOptions(t *testing.T) {
	flagConnMu.Lock()
	original := flagConn
	flagConn.Host = "pg.internal"
	flagConnMu.Unlock()
	t.Cleanup(func() {
		flagConnMu.Lock()
		flagConn = original
		flagConnMu.Unlock()
	})
	s, ok := NewFromCmdlineOptions().(*Store)
	if assert.True(t, ok) {
		assert.Equal(t, "pg.internal", s.conn.Host)
		assert.Equal(t, uint64(5432), s.conn.Port)
	}
}
