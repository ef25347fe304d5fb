// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sstable implements the immutable on-disk table format: data
// blocks, filter block, metaindex block, index block, and footer.
package sstable

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/internal/base"
)

// blockWriter accumulates one data (or index) block's entries using prefix
// compression and periodic restart points.
type blockWriter struct {
	restartInterval int
	nEntries        int
	buf             []byte
	restarts        []uint32
	curKey          []byte
	prevKey         []byte
	tmp             [binary.MaxVarintLen32 * 3]byte
}

func newBlockWriter(restartInterval int) *blockWriter {
	return &blockWriter{restartInterval: restartInterval}
}

func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func (w *blockWriter) add(key base.InternalKey, value []byte) {
	w.curKey, w.prevKey = w.prevKey, w.curKey
	size := key.Size()
	if cap(w.curKey) < size {
		w.curKey = make([]byte, size)
	}
	w.curKey = w.curKey[:size]
	key.Encode(w.curKey)

	shared := 0
	if w.nEntries%w.restartInterval == 0 {
		w.restarts = append(w.restarts, uint32(len(w.buf)))
	} else {
		shared = sharedPrefixLen(w.curKey, w.prevKey)
	}

	n := binary.PutUvarint(w.tmp[0:], uint64(shared))
	n += binary.PutUvarint(w.tmp[n:], uint64(size-shared))
	n += binary.PutUvarint(w.tmp[n:], uint64(len(value)))
	w.buf = append(w.buf, w.tmp[:n]...)
	w.buf = append(w.buf, w.curKey[shared:]...)
	w.buf = append(w.buf, value...)
	w.nEntries++
}

func (w *blockWriter) empty() bool { return w.nEntries == 0 }

// estimatedSize approximates the in-progress block size, used to decide when
// to flush.
func (w *blockWriter) estimatedSize() int {
	return len(w.buf) + 4*(len(w.restarts)+1)
}

func (w *blockWriter) finish() []byte {
	if len(w.restarts) == 0 {
		w.restarts = append(w.restarts, 0)
	}
	var tmp4 [4]byte
	for _, x := range w.restarts {
		binary.LittleEndian.PutUint32(tmp4[:], x)
		w.buf = append(w.buf, tmp4[:]...)
	}
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(w.restarts)))
	w.buf = append(w.buf, tmp4[:]...)
	return w.buf
}

func (w *blockWriter) reset() {
	w.nEntries = 0
	w.buf = w.buf[:0]
	w.restarts = w.restarts[:0]
	w.curKey = w.curKey[:0]
	w.prevKey = w.prevKey[:0]
}

// rawKeyCompare compares two raw encoded internal keys (user key ‖ fixed64
// trailer) under the internal-key order.
func rawKeyCompare(userCmp base.Compare) func(a, b []byte) int {
	return func(a, b []byte) int {
		return base.InternalCompare(userCmp, base.DecodeInternalKey(a), base.DecodeInternalKey(b))
	}
}

// blockIter iterates the entries of a decoded data/index block.
type blockIter struct {
	cmp         func(a, b []byte) int
	data        []byte
	restarts    []byte
	numRestarts int
	nextOffset  int
	key         []byte
	val         []byte
	fullKey     []byte
	valid       bool
}

func newBlockIter(cmp func(a, b []byte) int, block []byte) (*blockIter, error) {
	if len(block) < 4 {
		return nil, base.CorruptionErrorf("riftdb: corrupt block: too short")
	}
	numRestarts := int(binary.LittleEndian.Uint32(block[len(block)-4:]))
	if numRestarts == 0 {
		return nil, base.CorruptionErrorf("riftdb: corrupt block: no restarts")
	}
	restartsStart := len(block) - 4 - numRestarts*4
	if restartsStart < 0 {
		return nil, base.CorruptionErrorf("riftdb: corrupt block: bad restart count")
	}
	i := &blockIter{
		cmp:         cmp,
		data:        block[:restartsStart],
		restarts:    block[restartsStart : len(block)-4],
		numRestarts: numRestarts,
	}
	return i, nil
}

func (i *blockIter) restartPoint(idx int) int {
	return int(binary.LittleEndian.Uint32(i.restarts[idx*4:]))
}

// decodeEntry decodes the entry beginning at offset, returning the offset of
// the following entry.
func (i *blockIter) decodeEntry(offset int) (nextOffset int, ok bool) {
	p := i.data[offset:]
	shared, n1 := binary.Uvarint(p)
	nonShared, n2 := binary.Uvarint(p[n1:])
	valLen, n3 := binary.Uvarint(p[n1+n2:])
	hdr := n1 + n2 + n3
	if hdr == 0 {
		return 0, false
	}
	keyStart := offset + hdr
	keyEnd := keyStart + int(nonShared)
	valEnd := keyEnd + int(valLen)
	if valEnd > len(i.data) {
		return 0, false
	}
	if cap(i.fullKey) < int(shared)+int(nonShared) {
		i.fullKey = make([]byte, 0, (int(shared)+int(nonShared))*2+8)
	}
	i.fullKey = append(i.fullKey[:shared], i.data[keyStart:keyEnd]...)
	i.key = i.fullKey
	i.val = i.data[keyEnd:valEnd]
	i.valid = true
	return valEnd, true
}

// SeekGE positions the iterator at the first entry whose key >= key, under
// internal-key order using the supplied comparer on user keys
// (base.InternalCompare handles trailer tie-breaking internally, so cmp
// here must already be the internal-key comparator).
func (i *blockIter) SeekGE(key []byte) {
	// Binary search the restart points to find the last restart <= key,
	// then scan linearly from there.
	lo, hi := 0, i.numRestarts-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		off := i.restartPoint(mid)
		i.fullKey = i.fullKey[:0]
		if _, ok := i.decodeEntry(off); !ok {
			hi = mid - 1
			continue
		}
		if i.cmp(i.key, key) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	offset := i.restartPoint(lo)
	i.fullKey = i.fullKey[:0]
	for {
		next, ok := i.decodeEntry(offset)
		if !ok {
			i.valid = false
			return
		}
		if i.cmp(i.key, key) >= 0 {
			i.nextOffset = next
			return
		}
		offset = next
		if offset >= len(i.data) {
			i.valid = false
			return
		}
	}
}

// First positions the iterator at the block's first entry.
func (i *blockIter) First() {
	i.fullKey = i.fullKey[:0]
	next, ok := i.decodeEntry(0)
	i.valid = ok
	i.nextOffset = next
}

// Next advances to the next entry.
func (i *blockIter) Next() {
	if !i.valid || i.nextOffset >= len(i.data) {
		i.valid = false
		return
	}
	next, ok := i.decodeEntry(i.nextOffset)
	i.valid = ok
	i.nextOffset = next
}

// Valid reports whether the iterator is positioned on an entry.
func (i *blockIter) Valid() bool { return i.valid }

// Key returns the current raw encoded internal key.
func (i *blockIter) Key() []byte { return i.key }

// Value returns the current value.
func (i *blockIter) Value() []byte { return i.val }
