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

package aws

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/blinklabs-io/internhub/database/types"
)

func (s *Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(s.loc.Key(key)),
	})
	if isNotFound(err) {
		return nil, types.ErrBlobKeyNotFound
	}
	if err != nil {
		return nil, s.logFailure("get", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.logFailure("read", key, err)
	}
	return data, nil
}

func (s *Store) PutObject(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(s.loc.Key(key)),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return s.logFailure("put", key, err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(s.loc.Key(key)),
	})
	if isNotFound(err) {
		return types.ErrBlobKeyNotFound
	}
	if err != nil {
		return s.logFailure("delete", key, err)
	}
	return nil
}

// ListKeys pages through every object under prefix
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.loc.Bucket)}
	if full := s.loc.Key(prefix); full != "" {
		input.Prefix = aws.String(full)
	}
	var keys []string
	pages := s3.NewListObjectsV2Paginator(s.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, s.logFailure("list", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, s.loc.StoreKey(aws.ToString(obj.Key)))
		}
	}
	return keys, nil
}

func (s *Store) logFailure(op, key string, err error) error {
	s.logger.Error(
		"s3 "+op+" failed",
		"component", "database",
		"key", key,
		"error", err,
	)
	return err
}
