// Copyright 2025 Sonic Labs
// This file is part of Shadowfuzz, a verification framework for Sonic
//
// Shadowfuzz is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Shadowfuzz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Shadowfuzz. If not, see <http://www.gnu.org/licenses/>.

// Package cache memoizes idempotent read-only queries of the system under test.
package cache

import (
	"context"
	"sync"

	"github.com/0xsoniclabs/shadowfuzz/contract"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/rlp"
)

// Getter serves results of a read-only query from a cache keyed by the RLP
// encoding of the call arguments. Entries are never invalidated by writes to
// the system under test; only Flush clears them.
type Getter[A any, R any] struct {
	query contract.Caller[A, R]
	cache map[string]R
	mutex sync.Mutex
}

// NewGetter creates a cached getter for the given query.
func NewGetter[A any, R any](query contract.Caller[A, R]) *Getter[A, R] {
	return &Getter[A, R]{
		query: query,
		cache: map[string]R{},
	}
}

// Call returns the cached result for args or queries the system under test
// and stores the result. Failed queries are not cached.
func (g *Getter[A, R]) Call(ctx context.Context, args A) (R, error) {
	var zero R
	key, err := Key(args)
	if err != nil {
		return zero, err
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()
	if res, exists := g.cache[key]; exists {
		return res, nil
	}

	res, err := g.query.Call(ctx, args)
	if err != nil {
		return zero, err
	}
	g.cache[key] = res
	return res, nil
}

// Flush empties the cache.
func (g *Getter[A, R]) Flush() {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	clear(g.cache)
}

// Len returns the number of cached entries.
func (g *Getter[A, R]) Len() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.cache)
}

// Key returns the cache key of the given arguments.
func Key(args any) (string, error) {
	enc, err := rlp.EncodeToBytes(args)
	if err != nil {
		return "", errors.Wrapf(err, "cannot encode cache key of %T", args)
	}
	return string(enc), nil
}

// Flusher is implemented by caches that can be emptied.
type Flusher interface {
	Flush()
}

// FlushAll empties all given caches.
func FlushAll(caches ...Flusher) {
	for _, c := range caches {
		c.Flush()
	}
}
