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

// Package sops encrypts journal objects kept in cloud buckets with SOPS,
// using KMS master keys named in the environment.
package sops

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	sopsapi "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	scommon "github.com/getsops/sops/v3/cmd/sops/common"
	"github.com/getsops/sops/v3/config"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/getsops/sops/v3/gcpkms"
	skeys "github.com/getsops/sops/v3/keys"
	awskms "github.com/getsops/sops/v3/kms"
	jsonstore "github.com/getsops/sops/v3/stores/json"
	"github.com/getsops/sops/v3/version"
)

const (
	EnvGcpKmsResourceId = "INTERNHUB_GCP_KMS_RESOURCE_ID"
	EnvAwsKmsKeyArns    = "INTERNHUB_AWS_KMS_KEY_ARNS"
	EnvAwsKmsProfile    = "INTERNHUB_AWS_KMS_PROFILE"
)

var errNoMasterKey = errors.New(
	"sops: no master key configured, set " + EnvGcpKmsResourceId + " or " + EnvAwsKmsKeyArns,
)

// Keys names the KMS master keys new documents are encrypted to. The zero
// value encrypts nothing.
type Keys struct {
	GcpKmsResourceIds string
	AwsKmsKeyArns     string
	AwsProfile        string
}

// KeysFromEnv reads the master keys from the environment
func KeysFromEnv() Keys {
	return Keys{
		GcpKmsResourceIds: os.Getenv(EnvGcpKmsResourceId),
		AwsKmsKeyArns:     os.Getenv(EnvAwsKmsKeyArns),
		AwsProfile:        os.Getenv(EnvAwsKmsProfile),
	}
}

// Enabled reports whether at least one master key is named
func (k Keys) Enabled() bool {
	return k.GcpKmsResourceIds != "" || k.AwsKmsKeyArns != ""
}

func (k Keys) groups() []sopsapi.KeyGroup {
	var groups []sopsapi.KeyGroup
	if k.GcpKmsResourceIds != "" {
		var group sopsapi.KeyGroup
		for _, mk := range gcpkms.MasterKeysFromResourceIDString(k.GcpKmsResourceIds) {
			group = append(group, skeys.MasterKey(mk))
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	if k.AwsKmsKeyArns != "" {
		var group sopsapi.KeyGroup
		for _, mk := range awskms.MasterKeysFromArnString(k.AwsKmsKeyArns, nil, k.AwsProfile) {
			group = append(group, skeys.MasterKey(mk))
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// Encrypt wraps data in a SOPS binary document. Data that is already a SOPS
// document is refused.
func (k Keys) Encrypt(data []byte) ([]byte, error) {
	groups := k.groups()
	if len(groups) == 0 {
		return nil, errNoMasterKey
	}
	if IsEncrypted(data) {
		return nil, errors.New("sops: data is already encrypted")
	}
	store := jsonstore.NewBinaryStore(&config.JSONBinaryStoreConfig{})
	branches, err := store.LoadPlainFile(data)
	if err != nil {
		return nil, fmt.Errorf("sops: load data: %w", err)
	}
	tree := sopsapi.Tree{
		Branches: branches,
		Metadata: sopsapi.Metadata{
			KeyGroups: groups,
			Version:   version.Version,
		},
	}
	dataKey, errs := tree.GenerateDataKey()
	if len(errs) > 0 {
		return nil, fmt.Errorf("sops: generate data key: %v", errs)
	}
	err = scommon.EncryptTree(scommon.EncryptTreeOpts{
		DataKey: dataKey,
		Tree:    &tree,
		Cipher:  aes.NewCipher(),
	})
	if err != nil {
		return nil, fmt.Errorf("sops: encrypt: %w", err)
	}
	out, err := store.EmitEncryptedFile(tree)
	if err != nil {
		return nil, fmt.Errorf("sops: emit: %w", err)
	}
	return out, nil
}

// Seal encrypts data when a master key is named and returns it unchanged
// otherwise
func (k Keys) Seal(data []byte) ([]byte, error) {
	if !k.Enabled() {
		return data, nil
	}
	return k.Encrypt(data)
}

// IsEncrypted reports whether data is a JSON document with a sops section
func IsEncrypted(data []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, ok := doc["sops"]
	return ok
}

// Decrypt opens a SOPS binary document using whichever master key the
// environment grants access to
func Decrypt(data []byte) ([]byte, error) {
	return decrypt.Data(data, "binary")
}

// Unseal decrypts SOPS documents and passes anything else through
func Unseal(data []byte) ([]byte, error) {
	if !IsEncrypted(data) {
		return data, nil
	}
	return Decrypt(data)
}
