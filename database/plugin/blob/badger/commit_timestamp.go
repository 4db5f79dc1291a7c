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

package badger

import (
	"encoding/binary"
	"errors"

	"github.com/blinklabs-io/internhub/database/types"
)

// GetCommitTimestamp returns the last commit timestamp written to the
// journal, or 0 for a fresh store
func (s *Store) GetCommitTimestamp() (int64, error) {
	t := s.NewTransaction(false)
	defer t.Rollback() //nolint:errcheck
	val, err := s.Get(t, []byte(types.CommitTimestampKey))
	if errors.Is(err, types.ErrBlobKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, types.ErrInvalidCommitTimestamp
	}
	return int64(binary.BigEndian.Uint64(val)), nil //nolint:gosec
}

func (s *Store) SetCommitTimestamp(timestamp int64, t types.Txn) error {
	if t == nil {
		return types.ErrNilTxn
	}
	return s.Set(
		t,
		[]byte(types.CommitTimestampKey),
		binary.BigEndian.AppendUint64(nil, uint64(timestamp)), //nolint:gosec
	)
}
