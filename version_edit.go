// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/riftdb/riftdb/internal/base"
)

// versionEdit tags: each field is varint32(tag) followed by a
// type-specific payload. Tag 8 is reserved and never written.
const (
	tagComparator     = 1
	tagLogNumber      = 2
	tagNextFileNumber = 3
	tagLastSequence   = 4
	tagCompactPointer = 5
	tagDeletedFile    = 6
	tagNewFile        = 7
	tagPrevLogNumber  = 9
)

type deletedFileEntry struct {
	level   int
	fileNum uint64
}

type newFileEntry struct {
	level int
	meta  *fileMetadata
}

// versionEdit is the delta applied to a version and persisted as one
// MANIFEST record.
type versionEdit struct {
	comparatorName string
	hasComparator  bool

	logNumber        uint64
	hasLogNumber     bool
	prevLogNumber    uint64
	hasPrevLogNumber bool
	nextFileNumber   uint64
	hasNextFileNumber bool
	lastSequence     uint64
	hasLastSequence  bool

	compactPointers []struct {
		level int
		key   base.InternalKey
	}
	deletedFiles []deletedFileEntry
	newFiles     []newFileEntry
}

func (e *versionEdit) setComparatorName(name string) { e.comparatorName, e.hasComparator = name, true }
func (e *versionEdit) setLogNumber(n uint64)          { e.logNumber, e.hasLogNumber = n, true }
func (e *versionEdit) setPrevLogNumber(n uint64)      { e.prevLogNumber, e.hasPrevLogNumber = n, true }
func (e *versionEdit) setNextFileNumber(n uint64)     { e.nextFileNumber, e.hasNextFileNumber = n, true }
func (e *versionEdit) setLastSequence(n uint64)       { e.lastSequence, e.hasLastSequence = n, true }

func (e *versionEdit) addCompactPointer(level int, key base.InternalKey) {
	e.compactPointers = append(e.compactPointers, struct {
		level int
		key   base.InternalKey
	}{level, key})
}

func (e *versionEdit) deleteFile(level int, fileNum uint64) {
	e.deletedFiles = append(e.deletedFiles, deletedFileEntry{level, fileNum})
}

func (e *versionEdit) addFile(level int, meta *fileMetadata) {
	e.newFiles = append(e.newFiles, newFileEntry{level, meta})
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putVarString(buf *bytes.Buffer, s []byte) {
	putUvarint(buf, uint64(len(s)))
	buf.Write(s)
}

func putInternalKey(buf *bytes.Buffer, k base.InternalKey) {
	enc := make([]byte, k.Size())
	k.Encode(enc)
	putVarString(buf, enc)
}

// encode serializes the edit as a sequence of tagged fields, the unit of
// one MANIFEST record.
func (e *versionEdit) encode() []byte {
	var buf bytes.Buffer
	if e.hasComparator {
		putUvarint(&buf, tagComparator)
		putVarString(&buf, []byte(e.comparatorName))
	}
	if e.hasLogNumber {
		putUvarint(&buf, tagLogNumber)
		putUvarint(&buf, e.logNumber)
	}
	if e.hasPrevLogNumber {
		putUvarint(&buf, tagPrevLogNumber)
		putUvarint(&buf, e.prevLogNumber)
	}
	if e.hasNextFileNumber {
		putUvarint(&buf, tagNextFileNumber)
		putUvarint(&buf, e.nextFileNumber)
	}
	if e.hasLastSequence {
		putUvarint(&buf, tagLastSequence)
		putUvarint(&buf, e.lastSequence)
	}
	for _, cp := range e.compactPointers {
		putUvarint(&buf, tagCompactPointer)
		putUvarint(&buf, uint64(cp.level))
		putInternalKey(&buf, cp.key)
	}
	for _, df := range e.deletedFiles {
		putUvarint(&buf, tagDeletedFile)
		putUvarint(&buf, uint64(df.level))
		putUvarint(&buf, df.fileNum)
	}
	for _, nf := range e.newFiles {
		putUvarint(&buf, tagNewFile)
		putUvarint(&buf, uint64(nf.level))
		putUvarint(&buf, nf.meta.fileNum)
		putUvarint(&buf, nf.meta.size)
		putInternalKey(&buf, nf.meta.smallest)
		putInternalKey(&buf, nf.meta.largest)
	}
	return buf.Bytes()
}

type edReader struct {
	data []byte
}

func (r *edReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data)
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.data = r.data[n:]
	return v, nil
}

func (r *edReader) varString() ([]byte, error) {
	l, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if uint64(len(r.data)) < l {
		return nil, io.ErrUnexpectedEOF
	}
	s := r.data[:l]
	r.data = r.data[l:]
	return s, nil
}

func (r *edReader) internalKey() (base.InternalKey, error) {
	s, err := r.varString()
	if err != nil {
		return base.InternalKey{}, err
	}
	return base.DecodeInternalKey(s), nil
}

// decode parses one MANIFEST record produced by encode. Unrecognized tags
// (including the reserved tag 8) are rejected as corruption rather than
// silently skipped.
func (e *versionEdit) decode(data []byte) error {
	r := &edReader{data: data}
	for len(r.data) > 0 {
		tag, err := r.uvarint()
		if err != nil {
			return base.CorruptionErrorf("riftdb: corrupt version edit tag: %v", err)
		}
		switch tag {
		case tagComparator:
			s, err := r.varString()
			if err != nil {
				return err
			}
			e.setComparatorName(string(s))
		case tagLogNumber:
			n, err := r.uvarint()
			if err != nil {
				return err
			}
			e.setLogNumber(n)
		case tagPrevLogNumber:
			n, err := r.uvarint()
			if err != nil {
				return err
			}
			e.setPrevLogNumber(n)
		case tagNextFileNumber:
			n, err := r.uvarint()
			if err != nil {
				return err
			}
			e.setNextFileNumber(n)
		case tagLastSequence:
			n, err := r.uvarint()
			if err != nil {
				return err
			}
			e.setLastSequence(n)
		case tagCompactPointer:
			level, err := r.uvarint()
			if err != nil {
				return err
			}
			key, err := r.internalKey()
			if err != nil {
				return err
			}
			e.addCompactPointer(int(level), key)
		case tagDeletedFile:
			level, err := r.uvarint()
			if err != nil {
				return err
			}
			fileNum, err := r.uvarint()
			if err != nil {
				return err
			}
			e.deleteFile(int(level), fileNum)
		case tagNewFile:
			level, err := r.uvarint()
			if err != nil {
				return err
			}
			fileNum, err := r.uvarint()
			if err != nil {
				return err
			}
			size, err := r.uvarint()
			if err != nil {
				return err
			}
			smallest, err := r.internalKey()
			if err != nil {
				return err
			}
			largest, err := r.internalKey()
			if err != nil {
				return err
			}
			meta := &fileMetadata{fileNum: fileNum, size: size, smallest: smallest, largest: largest}
			meta.initAllowedSeeks()
			e.addFile(int(level), meta)
		default:
			return base.CorruptionErrorf("riftdb: unknown version edit tag %d", tag)
		}
	}
	return nil
}
