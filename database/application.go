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
)

// GetApplication returns an application, with its posting attached
func (d *Database) GetApplication(
	id string,
	txn *Txn,
) (*models.Application, error) {
	return d.metadata.GetApplication(id, metadataTxn(txn))
}

// FindApplication returns the application an applicant holds on a posting
func (d *Database) FindApplication(
	applicantId string,
	postingId string,
	txn *Txn,
) (*models.Application, error) {
	return d.metadata.FindApplication(applicantId, postingId, metadataTxn(txn))
}

// ListApplications returns the applications matching filter, newest first
func (d *Database) ListApplications(
	filter models.ApplicationFilter,
	txn *Txn,
) ([]models.Application, error) {
	return d.metadata.ListApplications(filter, metadataTxn(txn))
}

func (d *Database) CreateApplication(
	application *models.Application,
	txn *Txn,
) error {
	return d.metadata.CreateApplication(application, metadataTxn(txn))
}

// UpdateApplicationStatus writes the application's status and notes if the
// stored status is still fromStatus
func (d *Database) UpdateApplicationStatus(
	application *models.Application,
	fromStatus string,
	txn *Txn,
) error {
	return d.metadata.UpdateApplicationStatus(
		application,
		fromStatus,
		metadataTxn(txn),
	)
}

func (d *Database) DeleteApplication(id string, txn *Txn) error {
	return d.metadata.DeleteApplication(id, metadataTxn(txn))
}
