// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "encoding/binary"

// LookupKey is a pre-formatted memtable search key: a varint32
// length prefix of (len(userKey)+8), the user key, and a trailer packed with
// the snapshot sequence number and InternalKeyKindMax so that seeking lands
// on the newest visible entry for userKey.
type LookupKey struct {
	buf   [64]byte
	heap  []byte
	start int
	end   int
}

// MakeLookupKey formats a lookup key for userKey at the given snapshot
// sequence number.
func MakeLookupKey(userKey []byte, seqNum uint64) LookupKey {
	var lk LookupKey
	size := len(userKey) + 8
	needed := binary.MaxVarintLen32 + size
	var buf []byte
	if needed <= len(lk.buf) {
		buf = lk.buf[:needed]
	} else {
		buf = make([]byte, needed)
	}
	n := binary.PutUvarint(buf, uint64(size))
	lk.start = n
	copy(buf[n:], userKey)
	binary.LittleEndian.PutUint64(buf[n+len(userKey):], MakeTrailer(seqNum, InternalKeyKindMax))
	lk.end = n + size
	if needed > len(lk.buf) {
		// Rare (very long user key): the fixed array can't hold it.
		lk.heap = buf[:lk.end]
	}
	return lk
}

// Encoded returns the memtable-encoded search key (length-prefixed).
func (lk *LookupKey) Encoded() []byte {
	if lk.heap != nil {
		return lk.heap
	}
	return lk.buf[:lk.end]
}

// UserKey returns the user key portion of the lookup key.
func (lk *LookupKey) UserKey() []byte {
	b := lk.Encoded()
	return b[lk.start : len(b)-8]
}
