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

package objectstore

import (
	"fmt"
	"strings"
)

// Location is the bucket and key prefix named by a data dir of the form
// "<scheme>://bucket[/prefix]"
type Location struct {
	Bucket string
	// Prefix is empty or ends in "/"
	Prefix string
}

// ParseLocation parses dataDir, which must use the given scheme
func ParseLocation(scheme, dataDir string) (Location, error) {
	rest, ok := strings.CutPrefix(dataDir, scheme+"://")
	if !ok {
		return Location{}, fmt.Errorf(
			"%s blob: expected data dir '%s://<bucket>[/prefix]', got %q",
			scheme,
			scheme,
			dataDir,
		)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("%s blob: bucket not set", scheme)
	}
	return Location{Bucket: bucket, Prefix: NormalizePrefix(prefix)}, nil
}

// NormalizePrefix strips surrounding slashes and appends a single trailing one
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Key maps a store key to an object name
func (l Location) Key(key string) string {
	return l.Prefix + key
}

// StoreKey maps an object name back to a store key
func (l Location) StoreKey(name string) string {
	return strings.TrimPrefix(name, l.Prefix)
}

func (l Location) String() string {
	return l.Bucket + "/" + l.Prefix
}
