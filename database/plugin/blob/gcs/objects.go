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

package gcs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/internhub/database/types"
	"google.golang.org/api/iterator"
)

func (s *Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(s.loc.Key(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, types.ErrBlobKeyNotFound
	}
	if err != nil {
		return nil, s.logFailure("get", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, s.logFailure("read", key, err)
	}
	return data, nil
}

func (s *Store) PutObject(ctx context.Context, key string, value []byte) error {
	w := s.bucket.Object(s.loc.Key(key)).NewWriter(ctx)
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return s.logFailure("write", key, err)
	}
	// Nothing is stored until the writer closes
	if err := w.Close(); err != nil {
		return s.logFailure("put", key, err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	err := s.bucket.Object(s.loc.Key(key)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return types.ErrBlobKeyNotFound
	}
	if err != nil {
		return s.logFailure("delete", key, err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.loc.Key(prefix)})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return keys, nil
		}
		if err != nil {
			return nil, s.logFailure("list", prefix, err)
		}
		keys = append(keys, s.loc.StoreKey(attrs.Name))
	}
}

func (s *Store) logFailure(op, key string, err error) error {
	s.logger.Error(
		"gcs "+op+" failed",
		"component", "database",
		"key", key,
		"error", err,
	)
	return err
}
