// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"container/heap"

	"github.com/riftdb/riftdb/internal/base"
)

// internalIterator is the common contract satisfied by memTableIterator and
// sstable.Iterator: positioned over internal keys in ascending order.
type internalIterator interface {
	SeekGE(key []byte)
	First()
	Next()
	Valid() bool
	Key() base.InternalKey
	Value() []byte
}

// mergingIter fans in multiple internalIterators (one per memtable and one
// per live table, across all levels) into a single stream ordered by
// internal key — user key ascending, sequence number descending — so a
// reader sees the newest visible version of each key first.
type mergingIter struct {
	cmp   Compare
	items []internalIterator
	h     mergeHeap
}

func newMergingIter(cmp Compare, iters []internalIterator) *mergingIter {
	return &mergingIter{cmp: cmp, items: iters}
}

type mergeHeap struct {
	cmp   Compare
	elems []internalIterator
}

func (h mergeHeap) Len() int { return len(h.elems) }
func (h mergeHeap) Less(i, j int) bool {
	return base.InternalCompare(h.cmp, h.elems[i].Key(), h.elems[j].Key()) < 0
}
func (h mergeHeap) Swap(i, j int) { h.elems[i], h.elems[j] = h.elems[j], h.elems[i] }
func (h *mergeHeap) Push(x interface{}) { h.elems = append(h.elems, x.(internalIterator)) }
func (h *mergeHeap) Pop() interface{} {
	old := h.elems
	n := len(old)
	x := old[n-1]
	h.elems = old[:n-1]
	return x
}

func (m *mergingIter) rebuild(seekKey []byte, useFirst bool) {
	m.h = mergeHeap{cmp: m.cmp}
	for _, it := range m.items {
		if useFirst {
			it.First()
		} else {
			it.SeekGE(seekKey)
		}
		if it.Valid() {
			m.h.elems = append(m.h.elems, it)
		}
	}
	heap.Init(&m.h)
}

// First positions at the smallest internal key across all sources.
func (m *mergingIter) First() { m.rebuild(nil, true) }

// SeekGE positions at the first internal key >= the encoded key.
func (m *mergingIter) SeekGE(key []byte) { m.rebuild(key, false) }

// Valid reports whether the iterator is positioned on an entry.
func (m *mergingIter) Valid() bool { return m.h.Len() > 0 }

// Key returns the current entry's internal key, the smallest across all
// sources (ties broken newest-sequence-first).
func (m *mergingIter) Key() base.InternalKey { return m.h.elems[0].Key() }

// Value returns the current entry's value.
func (m *mergingIter) Value() []byte { return m.h.elems[0].Value() }

// Next advances the top source and re-heapifies.
func (m *mergingIter) Next() {
	top := m.h.elems[0]
	top.Next()
	if top.Valid() {
		heap.Fix(&m.h, 0)
	} else {
		heap.Pop(&m.h)
	}
}

// nextUserKey advances past every internal key sharing the current user
// key (across all levels of the same or older sequence), landing on the
// next distinct user key or becoming invalid. Used by Iterator.Next to
// expose only the newest visible version of each key.
func (m *mergingIter) nextUserKey() {
	if !m.Valid() {
		return
	}
	userKey := append([]byte(nil), m.Key().UserKey...)
	for m.Valid() && m.cmp(m.Key().UserKey, userKey) == 0 {
		m.Next()
	}
}
