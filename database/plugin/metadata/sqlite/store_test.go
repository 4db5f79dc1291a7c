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

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	s, err := New("", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Ping())
	ts, err := s.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	require.NoError(t, s.Close())
	// Closing twice is harmless
	require.NoError(t, s.Close())
}

func TestFileStoreVacuum(t *testing.T) {
	dir := t.TempDir()
	s := NewWithOptions(
		WithDataDir(dir),
		WithBusyTimeout(time.Second),
		WithVacuumInterval(time.Hour),
	)
	dsn, err := s.dsn()
	require.NoError(t, err)
	assert.Contains(t, dsn, "busy_timeout(1000)")
	require.NoError(t, s.Start())
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	txn := s.Transaction(context.Background())
	require.NoError(t, s.SetCommitTimestamp(42, txn))
	require.NoError(t, txn.Commit())
	require.NoError(t, s.Vacuum())
	ts, err := s.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}

func TestNewFromCmdlineOptions(t *testing.T) {
	flagOptsMu.Lock()
	original := flagOpts
	flagOpts.dataDir = ""
	flagOpts.vacuumHours = 0
	flagOptsMu.Unlock()
	t.Cleanup(func() {
		flagOptsMu.Lock()
		flagOpts = original
		flagOptsMu.Unlock()
	})
	s, ok := NewFromCmdlineOptions().(*Store)
	require.True(t, ok)
	assert.Empty(t, s.dataDir)
	assert.Zero(t, s.vacuumInterval)
	assert.Equal(t, DefaultBusyTimeout, s.busyTimeout)
}
