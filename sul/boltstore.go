// Copyright 2026 The stateforge Authors.
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

package sul

import (
	"bytes"
	"encoding/gob"

	"github.com/boltdb/bolt"
)

// boltStore durably backs a CacheSUL's memoization table. Each entry is
// gob-encoded and keyed by its structural hash, mirroring the in-memory
// bucket layout so a restart can rehydrate straight into it.
type boltStore[I, O comparable] struct {
	db     *bolt.DB
	bucket []byte
}

func openBoltStore[I, O comparable](path, bucket string) (*boltStore[I, O], error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	name := []byte(bucket)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &boltStore[I, O]{db: db, bucket: name}, nil
}

func (s *boltStore[I, O]) close() error {
	return s.db.Close()
}

// loadInto decodes every persisted entry and hands it to remember.
func (s *boltStore[I, O]) loadInto(remember func(prefix []I, output O)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var entry cacheEntry[I, O]
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&entry); err != nil {
				return err
			}
			remember(entry.Prefix, entry.Output)
			return nil
		})
	})
}

// persist appends (or overwrites) the entry for prefix, keyed by its
// structural hash so a restart finds it at the same bucket key the
// in-memory map would use.
func (s *boltStore[I, O]) persist(prefix []I, output O) error {
	key, err := hashPrefix(prefix)
	if err != nil {
		return err
	}
	entry := cacheEntry[I, O]{Prefix: prefix, Output: output}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		return b.Put(uint64KeyBytes(key), buf.Bytes())
	})
}

func uint64KeyBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v)
		v >>= 8
	}
	return b
}
