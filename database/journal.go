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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/database/types"
	"github.com/google/uuid"
)

// AppendSeatMovement writes a seat journal entry in the blob store as part of
// txn. The entry ID and timestamp are filled in when empty.
func (d *Database) AppendSeatMovement(
	movement *models.SeatMovement,
	txn *Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	if movement.ID == "" {
		movement.ID = uuid.NewString()
	}
	if movement.At.IsZero() {
		movement.At = time.Now().UTC()
	}
	val, err := json.Marshal(movement)
	if err != nil {
		return fmt.Errorf("encode seat movement: %w", err)
	}
	key := types.SeatJournalKey(movement.PostingID, movement.At, movement.ID)
	return d.blob.Set(txn.Blob(), key, val)
}

// SeatMovements returns the seat journal for a posting, oldest first. A
// limit of 0 returns every entry. With a limit, the newest entries are kept.
func (d *Database) SeatMovements(
	postingId string,
	limit int,
	txn *Txn,
) ([]models.SeatMovement, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	prefix := types.SeatJournalPrefix(postingId)
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix, Reverse: true},
	)
	defer iter.Close()
	var ret []models.SeatMovement
	// Reverse iteration starts from the last key at or before the seek key
	seekKey := append(append([]byte{}, prefix...), 0xff)
	for iter.Seek(seekKey); iter.ValidForPrefix(prefix); iter.Next() {
		if limit > 0 && len(ret) >= limit {
			break
		}
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var movement models.SeatMovement
		if err := json.Unmarshal(val, &movement); err != nil {
			return nil, fmt.Errorf("decode seat movement: %w", err)
		}
		ret = append(ret, movement)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	// Flip to chronological order
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret, nil
}

// DeleteSeatMovements removes the whole seat journal of a posting as part of txn
func (d *Database) DeleteSeatMovements(postingId string, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	prefix := types.SeatJournalPrefix(postingId)
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	var keys [][]byte
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		keys = append(keys, iter.Item().Key())
	}
	iterErr := iter.Err()
	iter.Close()
	if iterErr != nil {
		return iterErr
	}
	for _, key := range keys {
		if err := d.blob.Delete(txn.Blob(), key); err != nil &&
			!errors.Is(err, types.ErrBlobKeyNotFound) {
			return err
		}
	}
	return nil
}
