// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/internal/base"
)

// magic identifies a riftdb table file in the footer's trailing fixed64.
const magic uint64 = 0xdb4c1e57f17eb10e

// footerLen is the fixed on-disk footer size.
const footerLen = 48

// BlockHandle is a pointer to a block within the table file.
type BlockHandle struct {
	Offset, Length uint64
}

// encode appends the varint64 offset and size.
func (h BlockHandle) encode(dst []byte) []byte {
	dst = appendUvarint(dst, h.Offset)
	dst = appendUvarint(dst, h.Length)
	return dst
}

func appendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

func decodeBlockHandle(src []byte) (BlockHandle, int, error) {
	offset, n1 := binary.Uvarint(src)
	if n1 <= 0 {
		return BlockHandle{}, 0, base.CorruptionErrorf("riftdb: corrupt block handle")
	}
	length, n2 := binary.Uvarint(src[n1:])
	if n2 <= 0 {
		return BlockHandle{}, 0, base.CorruptionErrorf("riftdb: corrupt block handle")
	}
	return BlockHandle{Offset: offset, Length: length}, n1 + n2, nil
}

// footer is the fixed 48-byte trailer of every table file:
// metaindex_handle ‖ index_handle ‖ padding ‖ magic:fixed64.
type footer struct {
	metaindexHandle BlockHandle
	indexHandle     BlockHandle
}

func (f footer) encode() []byte {
	buf := make([]byte, footerLen)
	n := 0
	n += copy(buf[n:], f.metaindexHandle.encode(nil))
	n += copy(buf[n:], f.indexHandle.encode(nil))
	binary.LittleEndian.PutUint64(buf[footerLen-8:], magic)
	return buf
}

func decodeFooter(buf []byte) (footer, error) {
	if len(buf) != footerLen {
		return footer{}, base.CorruptionErrorf("riftdb: invalid footer length")
	}
	if got := binary.LittleEndian.Uint64(buf[footerLen-8:]); got != magic {
		return footer{}, base.CorruptionErrorf("riftdb: not a riftdb table (bad magic)")
	}
	mh, n1, err := decodeBlockHandle(buf)
	if err != nil {
		return footer{}, err
	}
	ih, _, err := decodeBlockHandle(buf[n1:])
	if err != nil {
		return footer{}, err
	}
	return footer{metaindexHandle: mh, indexHandle: ih}, nil
}

// blockTrailerLen is the 5-byte trailer appended after every block payload:
// compression_type:u8 ‖ crc:fixed32 (riftdb uses xxhash in place of a
// CRC, consistent with internal/record).
const blockTrailerLen = 5
