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

// Package sul defines the System Under Learning capability interface and
// the memoizing CacheSUL wrapper every learner in this module queries
// through, per spec.md §6 and §4.6.
package sul

import (
	"context"

	"github.com/mitchellh/hashstructure"

	"github.com/go-automata/stateforge/aerrors"
)

// Sul is the black box being modeled: reset to the initial configuration,
// advance one symbol at a time, or run a whole sequence as a convenience.
// Implementations model network adapters, in-memory automata, or any
// other bytes-over-a-wire system; this package owns none of them.
type Sul[I, O comparable] interface {
	Reset(ctx context.Context) error
	Step(ctx context.Context, input I) (O, error)
	Query(ctx context.Context, sequence []I) ([]O, error)

	// InitialOutput reports the label of the start configuration,
	// before any input is consumed. The source's KV loop reads this by
	// indexing the last element of a query on the empty sequence, which
	// only works because its DFA-specific SUL special-cases the
	// zero-length case; a general Query(nil) here legitimately returns
	// an empty slice (it produced zero outputs because it consumed zero
	// inputs), so the initial label gets its own primitive instead of
	// overloading Query's empty case.
	InitialOutput(ctx context.Context) (O, error)
}

// cacheEntry is one memoized (prefix, output) observation: the prefix is
// kept alongside the output so a hash collision can be detected by
// direct comparison rather than silently trusted.
type cacheEntry[I, O comparable] struct {
	Prefix []I
	Output O
}

// CacheSUL wraps an inner Sul, memoizing the output observed at every
// input prefix it has ever been asked about. A repeated query over the
// same prefix is answered from the cache without touching the inner
// SUL; a prefix that produces a different output than before is the
// NonDeterministicSUL condition described in spec.md §4.6, and is fatal.
//
// Prefixes are []I, which Go slices forbid as map keys even when I
// itself is comparable, so entries are bucketed by a structural hash
// (mitchellh/hashstructure) with the stored Prefix re-checked on lookup
// to resolve the rare collision.
type CacheSUL[I, O comparable] struct {
	inner Sul[I, O]

	current     []I
	innerSynced bool

	buckets map[uint64][]cacheEntry[I, O]

	store *boltStore[I, O]
}

// Option configures a CacheSUL at construction time.
type Option func(*config)

type config struct {
	boltPath   string
	boltBucket string
}

// WithBoltStore backs the cache with a durable boltdb database at path,
// under the named bucket, surviving process restarts. Entries already
// on disk are loaded eagerly; new entries are persisted as they're
// learned.
func WithBoltStore(path, bucket string) Option {
	return func(c *config) {
		c.boltPath = path
		c.boltBucket = bucket
	}
}

// NewCacheSUL wraps inner with prefix memoization and non-determinism
// detection.
func NewCacheSUL[I, O comparable](inner Sul[I, O], opts ...Option) (*CacheSUL[I, O], error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &CacheSUL[I, O]{
		inner:   inner,
		buckets: make(map[uint64][]cacheEntry[I, O]),
	}

	if cfg.boltPath != "" {
		store, err := openBoltStore[I, O](cfg.boltPath, cfg.boltBucket)
		if err != nil {
			return nil, err
		}
		c.store = store
		if err := store.loadInto(func(prefix []I, output O) {
			c.remember(prefix, output)
		}); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Close releases the durable backing store, if any.
func (c *CacheSUL[I, O]) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.close()
}

// Reset returns the cache's notion of position to the empty prefix. The
// inner SUL is reset lazily, only once a cache miss forces a real Step.
func (c *CacheSUL[I, O]) Reset(ctx context.Context) error {
	c.current = c.current[:0]
	c.innerSynced = false
	return nil
}

// Step advances by one input symbol, answering from the memoized table
// when the resulting prefix has been observed before. A miss after one
// or more hits means the inner SUL's own cursor has fallen behind
// current (we never called it for the prefixes served from cache), so
// it's resynced first — and that resync replay is also where disagreement
// with a previously memoized prefix would surface, since it's the one
// place the inner SUL is asked about a prefix it has answered before.
func (c *CacheSUL[I, O]) Step(ctx context.Context, input I) (O, error) {
	c.current = append(c.current, input)

	key, err := hashPrefix(c.current)
	if err != nil {
		var zero O
		return zero, err
	}

	if entry, ok := c.lookup(key, c.current); ok {
		c.innerSynced = false
		return entry.Output, nil
	}

	if !c.innerSynced {
		if err := c.inner.Reset(ctx); err != nil {
			var zero O
			return zero, err
		}
		replayed := c.current[:len(c.current)-1]
		for i, in := range replayed {
			out, err := c.inner.Step(ctx, in)
			if err != nil {
				var zero O
				return zero, err
			}
			if err := c.checkAndStore(replayed[:i+1], out); err != nil {
				return out, err
			}
		}
		c.innerSynced = true
	}

	out, err := c.inner.Step(ctx, input)
	if err != nil {
		var zero O
		return zero, err
	}

	if err := c.checkAndStore(c.current, out); err != nil {
		return out, err
	}
	return out, nil
}

// InitialOutput answers from the same memoization table as Step, keyed
// by the empty prefix, so it participates in non-determinism detection
// exactly like any other prefix.
func (c *CacheSUL[I, O]) InitialOutput(ctx context.Context) (O, error) {
	var empty []I
	key, err := hashPrefix(empty)
	if err != nil {
		var zero O
		return zero, err
	}
	if entry, ok := c.lookup(key, empty); ok {
		return entry.Output, nil
	}
	out, err := c.inner.InitialOutput(ctx)
	if err != nil {
		var zero O
		return zero, err
	}
	if err := c.checkAndStore(empty, out); err != nil {
		return out, err
	}
	return out, nil
}

// Query runs Reset followed by Step for every symbol in sequence,
// exactly the convenience spec.md §6 describes.
func (c *CacheSUL[I, O]) Query(ctx context.Context, sequence []I) ([]O, error) {
	if err := c.Reset(ctx); err != nil {
		return nil, err
	}
	outputs := make([]O, len(sequence))
	for i, in := range sequence {
		out, err := c.Step(ctx, in)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return outputs, nil
}

func (c *CacheSUL[I, O]) lookup(key uint64, prefix []I) (cacheEntry[I, O], bool) {
	for _, entry := range c.buckets[key] {
		if slicesEqual(entry.Prefix, prefix) {
			return entry, true
		}
	}
	return cacheEntry[I, O]{}, false
}

func (c *CacheSUL[I, O]) checkAndStore(prefix []I, out O) error {
	key, err := hashPrefix(prefix)
	if err != nil {
		return err
	}
	if entry, ok := c.lookup(key, prefix); ok {
		if entry.Output != out {
			return aerrors.ErrNonDeterministicSUL.New(append([]I{}, prefix...), entry.Output, out)
		}
		return nil
	}
	c.remember(prefix, out)
	if c.store != nil {
		if err := c.store.persist(prefix, out); err != nil {
			return err
		}
	}
	return nil
}

func (c *CacheSUL[I, O]) remember(prefix []I, out O) {
	cp := make([]I, len(prefix))
	copy(cp, prefix)
	key, err := hashPrefix(cp)
	if err != nil {
		return
	}
	c.buckets[key] = append(c.buckets[key], cacheEntry[I, O]{Prefix: cp, Output: out})
}

func hashPrefix[I comparable](prefix []I) (uint64, error) {
	return hashstructure.Hash(prefix, nil)
}

func slicesEqual[I comparable](a, b []I) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
