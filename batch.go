// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/internal/base"
)

// batchHeaderLen is the fixed prefix of an encoded batch: an 8-byte
// sequence number followed by a 4-byte little-endian record count:
// sequence:fixed64 ‖ count:fixed32 ‖ records[count].
const batchHeaderLen = 12

// Batch accumulates a group of writes applied atomically.
// The zero value is not usable; use NewBatch.
type Batch struct {
	db   *DB
	data []byte
	count uint32
}

// NewBatch returns an empty batch ready for Set/Delete calls.
func NewBatch(db *DB) *Batch {
	b := &Batch{db: db}
	b.data = make([]byte, batchHeaderLen)
	return b
}

// Count returns the number of records staged in the batch.
func (b *Batch) Count() uint32 { return b.count }

func (b *Batch) ensureHeader() {
	if len(b.data) < batchHeaderLen {
		b.data = append(b.data, make([]byte, batchHeaderLen-len(b.data))...)
	}
}

// Set stages a put of key/value.
func (b *Batch) Set(key, value []byte) error {
	b.ensureHeader()
	b.data = append(b.data, byte(InternalKeyKindSet))
	b.data = appendVarBytes(b.data, key)
	b.data = appendVarBytes(b.data, value)
	b.count++
	return nil
}

// Delete stages a tombstone for key.
func (b *Batch) Delete(key []byte) error {
	b.ensureHeader()
	b.data = append(b.data, byte(InternalKeyKindDelete))
	b.data = appendVarBytes(b.data, key)
	b.count++
	return nil
}

// Reset clears the batch for reuse without releasing its backing array.
func (b *Batch) Reset() {
	b.data = b.data[:batchHeaderLen]
	for i := range b.data {
		b.data[i] = 0
	}
	b.count = 0
}

func appendVarBytes(dst, v []byte) []byte {
	var tmp [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(tmp[:], uint64(len(v)))
	dst = append(dst, tmp[:n]...)
	dst = append(dst, v...)
	return dst
}

// setSeqNum stamps the batch's leading sequence number, assigned by the
// writer under the writer-queue's mutex.
func (b *Batch) setSeqNum(seqNum uint64) {
	binary.LittleEndian.PutUint64(b.data[0:8], seqNum)
}

func (b *Batch) seqNum() uint64 {
	return binary.LittleEndian.Uint64(b.data[0:8])
}

// encodedCount writes the little-endian record count into the header,
// called once before the batch is appended to the WAL.
func (b *Batch) encodedCount() {
	binary.LittleEndian.PutUint32(b.data[8:12], b.count)
}

// encoded returns the full wire representation (header + records), ready
// to append to the log.
func (b *Batch) encoded() []byte {
	b.encodedCount()
	return b.data
}

// load decodes a batch previously produced by encoded(), e.g. when
// replaying a WAL record during recovery.
func (b *Batch) load(data []byte) error {
	if len(data) < batchHeaderLen {
		return base.CorruptionErrorf("riftdb: batch too short: %d bytes", len(data))
	}
	b.data = append([]byte(nil), data...)
	b.count = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

// forEach decodes every record in the batch in order, invoking fn with the
// entry's kind, key, and value (value is nil for a deletion). Used both by
// memTable.applyBatch and by WAL replay.
func (b *Batch) forEach(fn func(kind InternalKeyKind, key, value []byte) error) error {
	data := b.data[batchHeaderLen:]
	for i := uint32(0); i < b.count; i++ {
		if len(data) < 1 {
			return base.CorruptionErrorf("riftdb: batch record count mismatch")
		}
		kind := InternalKeyKind(data[0])
		data = data[1:]

		key, rest, err := decodeVarBytes(data)
		if err != nil {
			return err
		}
		data = rest

		var value []byte
		if kind == InternalKeyKindSet {
			value, rest, err = decodeVarBytes(data)
			if err != nil {
				return err
			}
			data = rest
		}

		if err := fn(kind, key, value); err != nil {
			return err
		}
	}
	return nil
}

func decodeVarBytes(data []byte) (v, rest []byte, err error) {
	l, n := binary.Uvarint(data)
	if n <= 0 || uint64(n)+l > uint64(len(data)) {
		return nil, nil, base.CorruptionErrorf("riftdb: corrupt batch entry")
	}
	return data[n : n+int(l)], data[n+int(l):], nil
}
