// Copyright 2017 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package arenaskl

import (
	"math/rand"
	"sync/atomic"
)

// maxHeight is the fixed maximum skip-list height.
const maxHeight = 12

// branching is the geometric branching factor used to sample new-node
// height.
const branching = 4

// Comparer compares two arena-resident entry keys.
type Comparer func(a, b []byte) int

type node struct {
	key  []byte
	next [maxHeight]atomic.Pointer[node]
	// height is the number of valid entries in next (levels [0,height)).
	height int
}

// Skiplist is a fixed-max-height probabilistic skip list over arena-resident
// keys. Concurrency contract: one writer at a time, any
// number of concurrent readers. Publication of a new node uses release
// ordering (atomic.Pointer.Store); readers use acquire ordering (Load), so a
// reader that observes a node also observes its fully-initialized key.
// Entries are never removed.
type Skiplist struct {
	cmp    Comparer
	rnd    *rand.Rand
	head   node
	height int32 // atomic: current max height in use
}

// NewSkiplist creates an empty skip list ordered by cmp.
func NewSkiplist(cmp Comparer, seed int64) *Skiplist {
	s := &Skiplist{
		cmp:    cmp,
		rnd:    rand.New(rand.NewSource(seed)),
		height: 1,
	}
	return s
}

func (s *Skiplist) randomHeight() int {
	h := 1
	for h < maxHeight && s.rnd.Intn(branching) == 0 {
		h++
	}
	return h
}

// Insert adds key to the list. Ties in skip-list ordering cannot occur
// because the memtable comparator folds in a unique sequence number;
// Insert does not attempt to deduplicate.
func (s *Skiplist) Insert(key []byte) {
	var prev [maxHeight]*node
	var next [maxHeight]*node
	listHeight := int(atomic.LoadInt32(&s.height))
	s.findSpliceForLevel(key, listHeight-1, &prev, &next)

	height := s.randomHeight()
	if height > listHeight {
		atomic.StoreInt32(&s.height, int32(height))
	}

	n := &node{key: key, height: height}
	for i := 0; i < height; i++ {
		if prev[i] == nil {
			prev[i] = &s.head
		}
		n.next[i].Store(next[i])
		prev[i].next[i].Store(n)
	}
}

// findSpliceForLevel walks down from topLevel filling prev/next with, for
// each level, the node immediately before and after where key belongs.
func (s *Skiplist) findSpliceForLevel(key []byte, topLevel int, prev, next *[maxHeight]*node) {
	x := &s.head
	for level := topLevel; level >= 0; level-- {
		n := x.next[level].Load()
		for n != nil && s.cmp(n.key, key) < 0 {
			x = n
			n = x.next[level].Load()
		}
		prev[level] = x
		next[level] = n
	}
}

// Contains reports whether key is present.
func (s *Skiplist) Contains(key []byte) bool {
	it := s.NewIterator()
	it.Seek(key)
	return it.Valid() && s.cmp(it.Key(), key) == 0
}

// Iterator walks the skip list. A single Iterator must not be used
// concurrently from multiple goroutines, but many Iterators may read the
// list concurrently with a single writer.
type Iterator struct {
	list *Skiplist
	n    *node
}

// NewIterator returns an unpositioned iterator.
func (s *Skiplist) NewIterator() *Iterator {
	return &Iterator{list: s}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool { return it.n != nil }

// Key returns the current entry. Valid must be true.
func (it *Iterator) Key() []byte { return it.n.key }

// Next advances to the next entry.
func (it *Iterator) Next() {
	it.n = it.n.next[0].Load()
}

// Prev retreats to the previous entry; implemented by re-descending from the
// head since next-only links don't support O(1) backward steps.
func (it *Iterator) Prev() {
	if it.n == nil {
		return
	}
	key := it.n.key
	var prev [maxHeight]*node
	var next [maxHeight]*node
	it.list.findSpliceForLevel(key, int(atomic.LoadInt32(&it.list.height))-1, &prev, &next)
	if prev[0] == &it.list.head {
		it.n = nil
		return
	}
	it.n = prev[0]
}

// SeekGE positions the iterator at the first entry >= key.
func (it *Iterator) SeekGE(key []byte) {
	var prev [maxHeight]*node
	var next [maxHeight]*node
	it.list.findSpliceForLevel(key, int(atomic.LoadInt32(&it.list.height))-1, &prev, &next)
	it.n = next[0]
}

// Seek is an alias for SeekGE.
func (it *Iterator) Seek(key []byte) { it.SeekGE(key) }

// SeekToFirst positions the iterator at the first entry.
func (it *Iterator) SeekToFirst() {
	it.n = it.list.head.next[0].Load()
}

// SeekToLast positions the iterator at the last entry.
func (it *Iterator) SeekToLast() {
	x := &it.list.head
	height := int(atomic.LoadInt32(&it.list.height))
	for level := height - 1; level >= 0; level-- {
		for {
			n := x.next[level].Load()
			if n == nil {
				break
			}
			x = n
		}
	}
	if x == &it.list.head {
		it.n = nil
		return
	}
	it.n = x
}
