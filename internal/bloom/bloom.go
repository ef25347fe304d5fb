// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bloom provides the default base.FilterPolicy, wrapping
// greatroar/blobloom. riftdb never reimplements bloom-filter bit math
// itself — only the policy contract and the block layout that consumes
// it belong to riftdb.
package bloom

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/greatroar/blobloom"

	"github.com/riftdb/riftdb/internal/base"
)

// bitsPerKey is the default false-positive/space tradeoff, ~10 bits/key.
const bitsPerKey = 10

// Policy is the bundled FilterPolicy implementation.
type Policy struct{}

// New returns the default bloom filter policy.
func New() base.FilterPolicy { return Policy{} }

// Name implements base.FilterPolicy.
func (Policy) Name() string { return "riftdb.BuiltinBloomFilter" }

// NewWriter implements base.FilterPolicy.
func (Policy) NewWriter() base.FilterWriter {
	return &writer{}
}

type writer struct {
	hashes []uint64
}

func (w *writer) AddKey(key []byte) {
	w.hashes = append(w.hashes, xxhash.Sum64(key))
}

func (w *writer) Finish(dst []byte) []byte {
	nKeys := len(w.hashes)
	if nKeys == 0 {
		nKeys = 1
	}
	f := blobloom.NewOptimized(blobloom.Config{
		Capacity: uint64(nKeys),
		FPRate:   math.Exp(-bitsPerKey * math.Ln2 * math.Ln2),
	})
	for _, h := range w.hashes {
		f.Add(h)
	}
	w.hashes = w.hashes[:0]
	b, err := f.MarshalBinary()
	if err != nil {
		return dst
	}
	return append(dst, b...)
}

// MayContain implements base.FilterPolicy.
func (Policy) MayContain(filter, key []byte) bool {
	var f blobloom.Filter
	if err := f.UnmarshalBinary(filter); err != nil {
		// A corrupt filter must not cause false negatives, so when it
		// can't even be parsed, fall back to "maybe present" and let
		// the data block read settle the question.
		return true
	}
	return f.Has(xxhash.Sum64(key))
}
