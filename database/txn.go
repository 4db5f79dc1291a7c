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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/internhub/database/types"
)

// Txn spans one metadata transaction and one blob transaction. A posting
// update and its seat journal entries commit or roll back together.
type Txn struct {
	started     time.Time
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	lock        sync.Mutex
	finished    bool
	readWrite   bool
}

// NewTxn returns a transaction spanning both stores. The metadata side is
// bound to ctx, so cancelling ctx aborts its queries.
func NewTxn(ctx context.Context, db *Database, readWrite bool) *Txn {
	t := NewBlobOnlyTxn(db, readWrite)
	if ms := db.Metadata(); ms != nil {
		t.metadataTxn = ms.Transaction(ctx)
		if t.metadataTxn == nil {
			db.logger.Warn(
				"metadata store returned no transaction",
				"component", "database",
			)
		}
	}
	return t
}

// NewBlobOnlyTxn returns a transaction that only spans the blob store
func NewBlobOnlyTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{
		db:        db,
		readWrite: readWrite,
		started:   time.Now(),
	}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// Do runs fn inside the transaction, committing on success and rolling back
// when fn returns an error
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if !t.readWrite {
		// Nothing to persist, just release the handles
		return t.rollback(txnResultCommit)
	}
	if t.blobTxn == nil && t.metadataTxn == nil {
		t.finish(txnResultError)
		return types.ErrNoStoreAvailable
	}
	if err := t.commit(); err != nil {
		t.finish(txnResultError)
		return err
	}
	t.finish(txnResultCommit)
	return nil
}

// commit writes the shared commit timestamp and then commits the blob side
// before the metadata side, so metadata never references journal entries
// that were not persisted
func (t *Txn) commit() error {
	if t.blobTxn != nil && t.metadataTxn != nil {
		if err := t.db.stampCommit(t, time.Now().UnixMilli()); err != nil {
			_ = t.blobTxn.Rollback()
			_ = t.metadataTxn.Rollback()
			return fmt.Errorf("failed to update commit timestamp: %w", err)
		}
	}
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			if t.metadataTxn != nil {
				_ = t.metadataTxn.Rollback()
			}
			return fmt.Errorf("blob commit failed: %w", err)
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Commit(); err != nil {
			// The commit timestamp mismatch is detected on the next start
			t.db.logger.Error(
				"partial commit: blob committed, metadata failed",
				"component", "database",
				"error", err,
			)
			_ = t.metadataTxn.Rollback()
			return fmt.Errorf(
				"partial commit: metadata commit failed after blob commit: %w",
				err,
			)
		}
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback(txnResultRollback)
}

func (t *Txn) rollback(result string) error {
	if t.finished {
		return nil
	}
	var errs []error
	if t.blobTxn != nil {
		if err := t.blobTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("blob rollback: %w", err))
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
		}
	}
	t.finish(result)
	return errors.Join(errs...)
}

func (t *Txn) finish(result string) {
	t.finished = true
	t.db.metrics.observe(t.readWrite, result, t.started)
}

// Release rolls back anything not yet committed. It logs instead of
// returning errors so it can be deferred.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
