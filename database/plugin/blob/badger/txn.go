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
	"errors"

	"github.com/blinklabs-io/internhub/database/types"
	badger "github.com/dgraph-io/badger/v4"
)

var (
	errForeignTxn  = errors.New("badger: transaction belongs to another store")
	errTxnFinished = errors.New("badger: transaction already finished")
)

// txn adapts a badger transaction to types.Txn
type txn struct {
	owner *Store
	tx    *badger.Txn
	done  bool
}

func (t *txn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Commit()
}

func (t *txn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.tx.Discard()
	return nil
}

// unwrap returns the badger transaction behind a types.Txn created by s
func (s *Store) unwrap(t types.Txn) (*badger.Txn, error) {
	if t == nil {
		return nil, types.ErrNilTxn
	}
	bt, ok := t.(*txn)
	switch {
	case !ok:
		return nil, types.ErrTxnWrongType
	case bt.owner != s:
		return nil, errForeignTxn
	case bt.done:
		return nil, errTxnFinished
	}
	return bt.tx, nil
}

// iterator exposes a badger iterator as types.BlobIterator. A non-nil err
// yields an iterator that is never valid.
type iterator struct {
	it  *badger.Iterator
	err error
}

func (i *iterator) Rewind() {
	if i.it != nil {
		i.it.Rewind()
	}
}

func (i *iterator) Seek(key []byte) {
	if i.it != nil {
		i.it.Seek(key)
	}
}

func (i *iterator) Valid() bool {
	return i.it != nil && i.it.Valid()
}

func (i *iterator) ValidForPrefix(prefix []byte) bool {
	return i.it != nil && i.it.ValidForPrefix(prefix)
}

func (i *iterator) Next() {
	if i.it != nil {
		i.it.Next()
	}
}

func (i *iterator) Item() types.BlobItem {
	if i.it == nil {
		return nil
	}
	return item{i.it.Item()}
}

func (i *iterator) Close() {
	if i.it != nil {
		i.it.Close()
	}
}

func (i *iterator) Err() error { return i.err }

type item struct {
	*badger.Item
}

func (i item) Key() []byte {
	return i.KeyCopy(nil)
}
