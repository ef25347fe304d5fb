// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import "github.com/riftdb/riftdb/internal/base"

// Iterator walks every entry of a table in key order. It is a two-level
// iterator: the index iterator drives a block iterator, recreated on
// each index step.
type Iterator struct {
	r     *Reader
	index *blockIter
	data  *blockIter
	err   error
}

// NewIter returns a table-wide iterator, unpositioned.
func (r *Reader) NewIter() (*Iterator, error) {
	idx, err := newBlockIter(r.cmp, r.index)
	if err != nil {
		return nil, err
	}
	return &Iterator{r: r, index: idx}, nil
}

func (it *Iterator) loadBlock() bool {
	if !it.index.Valid() {
		it.data = nil
		return false
	}
	handle, _, err := decodeBlockHandle(it.index.Value())
	if err != nil {
		it.err = err
		return false
	}
	block, err := it.r.readBlock(handle)
	if err != nil {
		it.err = err
		return false
	}
	bi, err := newBlockIter(it.r.cmp, block)
	if err != nil {
		it.err = err
		return false
	}
	it.data = bi
	return true
}

// SeekGE positions the iterator at the first entry >= the encoded internal
// key ikey.
func (it *Iterator) SeekGE(ikey []byte) {
	it.index.SeekGE(ikey)
	if !it.loadBlock() {
		return
	}
	it.data.SeekGE(ikey)
	if !it.data.Valid() {
		it.index.Next()
		it.advanceToValidBlock()
	}
}

// First positions the iterator at the table's first entry.
func (it *Iterator) First() {
	it.index.First()
	if !it.loadBlock() {
		return
	}
	it.data.First()
	if !it.data.Valid() {
		it.index.Next()
		it.advanceToValidBlock()
	}
}

func (it *Iterator) advanceToValidBlock() {
	for it.index.Valid() {
		if !it.loadBlock() {
			return
		}
		it.data.First()
		if it.data.Valid() {
			return
		}
		it.index.Next()
	}
	it.data = nil
}

// Next advances to the next entry, crossing into the next data block (and
// re-creating the block iterator) as needed.
func (it *Iterator) Next() {
	if it.data == nil {
		return
	}
	it.data.Next()
	if it.data.Valid() {
		return
	}
	it.index.Next()
	it.advanceToValidBlock()
}

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() bool { return it.data != nil && it.data.Valid() }

// Key returns the current entry's internal key.
func (it *Iterator) Key() base.InternalKey { return base.DecodeInternalKey(it.data.Key()) }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.data.Value() }

// Error returns the first error encountered, if any.
func (it *Iterator) Error() error { return it.err }

// Close releases resources; table iterators hold no unmanaged state beyond
// the parent Reader, which the caller owns.
func (it *Iterator) Close() error { return it.err }
