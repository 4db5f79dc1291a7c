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

package database

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is returned when no database has been configured
var ErrStoreUnavailable = errors.New("database not available")

// CommitTimestampError reports that the metadata and blob stores last
// committed at different times, so one of them missed a write. Seat counts
// should be reconciled before the database is trusted again.
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// checkCommitTimestamp compares the stores. A metadata store that has never
// committed has nothing to compare.
func (d *Database) checkCommitTimestamp() error {
	meta, err := d.metadata.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	if meta <= 0 {
		return nil
	}
	blob, err := d.blob.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read blob commit timestamp: %w", err)
	}
	if blob != meta {
		return CommitTimestampError{MetadataTimestamp: meta, BlobTimestamp: blob}
	}
	return nil
}

// stampCommit writes the same timestamp to both halves of txn
func (d *Database) stampCommit(txn *Txn, ts int64) error {
	if err := d.metadata.SetCommitTimestamp(ts, txn.Metadata()); err != nil {
		return fmt.Errorf("stamp metadata: %w", err)
	}
	if err := d.blob.SetCommitTimestamp(ts, txn.Blob()); err != nil {
		return fmt.Errorf("stamp blob: %w", err)
	}
	return nil
}
