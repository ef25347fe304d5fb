// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import "github.com/riftdb/riftdb/internal/base"

// Iterator walks the database's keys in order as of a fixed snapshot
// sequence number. It wraps a mergingIter with a snapshot filter:
// entries with a sequence number above the snapshot are skipped, and
// only the newest visible version of each user key is exposed.
type Iterator struct {
	merge   *mergingIter
	cmp     Compare
	seqNum  uint64
	release func()

	key   []byte
	value []byte
	valid bool
	err   error
}

// findNextVisible advances merge until it sits on the newest entry, at or
// before i.seqNum, for some user key, recording whether that entry is a
// value (valid=true) or a tombstone (skipped entirely, since a deleted key
// is simply absent from the iteration).
func (i *Iterator) findNextVisible() {
	for i.merge.Valid() {
		k := i.merge.Key()
		if k.SeqNum() > i.seqNum {
			i.merge.Next()
			continue
		}
		if k.Kind() == InternalKeyKindDelete {
			i.merge.nextUserKey()
			continue
		}
		i.key = append(i.key[:0], k.UserKey...)
		i.value = append(i.value[:0], i.merge.Value()...)
		i.valid = true
		return
	}
	i.valid = false
}

// First positions the iterator at the first visible key.
func (i *Iterator) First() {
	i.merge.First()
	i.findNextVisible()
}

// SeekGE positions the iterator at the first visible key >= key.
func (i *Iterator) SeekGE(key []byte) {
	ikey := base.MakeInternalKey(key, i.seqNum, InternalKeyKindMax)
	enc := make([]byte, ikey.Size())
	ikey.Encode(enc)
	i.merge.SeekGE(enc)
	i.findNextVisible()
}

// Next advances past the current user key to the next visible one.
func (i *Iterator) Next() {
	if !i.valid {
		return
	}
	i.merge.nextUserKey()
	i.findNextVisible()
}

// Valid reports whether the iterator is positioned on a key.
func (i *Iterator) Valid() bool { return i.valid }

// Key returns the current user key. The returned slice is invalidated by
// the next call to Next/SeekGE/First.
func (i *Iterator) Key() []byte { return i.key }

// Value returns the current value. The returned slice is invalidated by
// the next call to Next/SeekGE/First.
func (i *Iterator) Value() []byte { return i.value }

// Error returns the first error encountered during iteration, if any.
func (i *Iterator) Error() error { return i.err }

// Close releases the memtable and version references this iterator held.
func (i *Iterator) Close() error {
	if i.release != nil {
		i.release()
		i.release = nil
	}
	return i.err
}
