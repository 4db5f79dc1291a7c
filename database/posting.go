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
	"github.com/blinklabs-io/internhub/database/models"
	"github.com/blinklabs-io/internhub/database/types"
)

// metadataTxn returns the metadata handle of txn, or nil to run outside of a
// transaction
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetPosting returns a posting by its ID
func (d *Database) GetPosting(id string, txn *Txn) (*models.Posting, error) {
	return d.metadata.GetPosting(id, metadataTxn(txn))
}

// ListPostings returns the postings matching filter
func (d *Database) ListPostings(
	filter models.PostingFilter,
	txn *Txn,
) ([]models.Posting, error) {
	return d.metadata.ListPostings(filter, metadataTxn(txn))
}

// ListPostingIDs returns the ID of every posting
func (d *Database) ListPostingIDs(txn *Txn) ([]string, error) {
	return d.metadata.ListPostingIDs(metadataTxn(txn))
}

// CreatePosting stores a new posting
func (d *Database) CreatePosting(posting *models.Posting, txn *Txn) error {
	return d.metadata.CreatePosting(posting, metadataTxn(txn))
}

// UpdatePosting stores posting if the stored row is still at expectedVersion.
// It returns an error wrapping types.ErrStaleVersion otherwise.
func (d *Database) UpdatePosting(
	posting *models.Posting,
	expectedVersion uint64,
	txn *Txn,
) error {
	return d.metadata.UpdatePosting(posting, expectedVersion, metadataTxn(txn))
}

// DeletePosting removes a posting and its seat journal
func (d *Database) DeletePosting(id string, txn *Txn) error {
	if err := d.metadata.DeletePosting(id, metadataTxn(txn)); err != nil {
		return err
	}
	if txn == nil {
		return nil
	}
	return d.DeleteSeatMovements(id, txn)
}

// CountApplications counts the applications on a posting. With
// seatHoldersOnly set, rejected applications are not counted.
func (d *Database) CountApplications(
	postingId string,
	seatHoldersOnly bool,
	txn *Txn,
) (int64, error) {
	return d.metadata.CountApplicationsForPosting(
		postingId,
		seatHoldersOnly,
		metadataTxn(txn),
	)
}
