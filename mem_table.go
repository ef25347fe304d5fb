// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/riftdb/riftdb/internal/arenaskl"
	"github.com/riftdb/riftdb/internal/base"
)

// memTable is an arena + skip-list bundle holding recently written entries,
// keyed by internal key. Entry encoding:
//
//	varint32(internal_key_len) ‖ user_key ‖ fixed64(pack(seq,type)) ‖
//	varint32(value_len) ‖ value
type memTable struct {
	cmp    Compare
	arena  *arenaskl.Arena
	skl    *arenaskl.Skiplist
	refs   int32
	flushedCh chan struct{}
}

func newMemTable(o *Options) *memTable {
	arena := arenaskl.NewArena(o.WriteBufferSize)
	m := &memTable{
		cmp:       o.Comparer.Compare,
		arena:     arena,
		refs:      1,
		flushedCh: make(chan struct{}),
	}
	m.skl = arenaskl.NewSkiplist(m.skiplistCompare, 0)
	return m
}

// skiplistCompare orders two arena-encoded entries by internal key.
func (m *memTable) skiplistCompare(a, b []byte) int {
	ak, _ := decodeMemTableKey(a)
	bk, _ := decodeMemTableKey(b)
	return base.InternalCompare(m.cmp, ak, bk)
}

// decodeMemTableKey splits an arena entry into its internal key and the
// remainder (value_len ‖ value).
func decodeMemTableKey(entry []byte) (base.InternalKey, []byte) {
	klen, n := binary.Uvarint(entry)
	keyBytes := entry[n : n+int(klen)]
	rest := entry[n+int(klen):]
	return base.DecodeInternalKey(keyBytes), rest
}

// ref/unref implement reference counting: the active memtable holds one
// ref from the DB plus one per in-flight reader; the
// immutable memtable holds one from the DB plus one per flush worker and
// per reader.
func (m *memTable) ref() { atomic.AddInt32(&m.refs, 1) }

// unref drops one reference and returns true when the last reference is
// released. It does not touch flushedCh; markFlushed closes that.
func (m *memTable) unref() bool {
	switch v := atomic.AddInt32(&m.refs, -1); {
	case v < 0:
		panic("riftdb: memtable reference count underflow")
	case v == 0:
		return true
	default:
		return false
	}
}

func (m *memTable) markFlushed() { close(m.flushedCh) }

// add encodes and inserts one entry.
func (m *memTable) add(seqNum uint64, kind InternalKeyKind, userKey, value []byte) error {
	ikeySize := len(userKey) + 8
	needed := binary.MaxVarintLen32 + ikeySize + binary.MaxVarintLen32 + len(value)
	buf, err := m.arena.Allocate(needed)
	if err != nil {
		return err
	}
	n := binary.PutUvarint(buf, uint64(ikeySize))
	n += copy(buf[n:], userKey)
	binary.LittleEndian.PutUint64(buf[n:], base.MakeTrailer(seqNum, kind))
	n += 8
	n += binary.PutUvarint(buf[n:], uint64(len(value)))
	n += copy(buf[n:], value)
	m.skl.Insert(buf[:n])
	return nil
}

// applyBatch inserts every record of a decoded batch, stamping consecutive
// sequence numbers starting at seqNum.
func (m *memTable) applyBatch(b *Batch, seqNum uint64) error {
	return b.forEach(func(kind InternalKeyKind, key, value []byte) error {
		if err := m.add(seqNum, kind, key, value); err != nil {
			return err
		}
		seqNum++
		return nil
	})
}

// get seeks to the lookup key; if the decoded user key matches,
// foundInTable is true and found reports whether the entry is a value
// (true, with the value returned) or a tombstone (false). When no entry for
// the user key is in this memtable, found and foundInTable are both false.
func (m *memTable) get(lk *base.LookupKey) (value []byte, found bool, foundInTable bool) {
	it := m.skl.NewIterator()
	it.Seek(lk.Encoded())
	if !it.Valid() {
		return nil, false, false
	}
	ikey, rest := decodeMemTableKey(it.Key())
	if m.cmp(ikey.UserKey, lk.UserKey()) != 0 {
		return nil, false, false
	}
	foundInTable = true
	switch ikey.Kind() {
	case InternalKeyKindSet:
		vlen, n := binary.Uvarint(rest)
		return rest[n : n+int(vlen)], true, foundInTable
	default: // InternalKeyKindDelete
		return nil, false, foundInTable
	}
}

// newIter returns an iterator over the memtable's entries in internal-key
// order, used by DB.NewIter's merging iterator.
func (m *memTable) newIter() *memTableIterator {
	return &memTableIterator{it: m.skl.NewIterator()}
}

func (m *memTable) approximateMemoryUsage() int64 { return m.arena.Size() }

type memTableIterator struct {
	it *arenaskl.Iterator
}

func (i *memTableIterator) SeekGE(ikey []byte) {
	buf := make([]byte, binary.MaxVarintLen32+len(ikey))
	n := binary.PutUvarint(buf, uint64(len(ikey)))
	n += copy(buf[n:], ikey)
	i.it.SeekGE(buf[:n])
}
func (i *memTableIterator) First()             { i.it.SeekToFirst() }
func (i *memTableIterator) Next()              { i.it.Next() }
func (i *memTableIterator) Valid() bool        { return i.it.Valid() }
func (i *memTableIterator) Key() base.InternalKey {
	k, _ := decodeMemTableKey(i.it.Key())
	return k
}
func (i *memTableIterator) Value() []byte {
	_, rest := decodeMemTableKey(i.it.Key())
	vlen, n := binary.Uvarint(rest)
	return rest[n : n+int(vlen)]
}
