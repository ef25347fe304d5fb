// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package record

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/riftdb/riftdb/internal/base"
)

// Reporter is notified of corruption encountered while reading; the reader
// keeps going rather than failing the whole read. A checksum mismatch, an
// unknown record type or a fragment that overruns its block skips the rest
// of that block; an out-of-sequence fragment is dropped on its own.
type Reporter interface {
	Corruption(bytes int, reason error)
}

// LogReader reads length-framed records written by LogWriter, reassembling
// fragments and validating checksums.
type LogReader struct {
	r        io.Reader
	reporter Reporter
	buf      [BlockSize]byte
	pending  []byte // unconsumed bytes of buf
	eof      bool
	record   []byte // accumulator for fragmented records
}

// NewLogReader wraps r, reading length-framed records from the current
// position. reporter may be nil.
func NewLogReader(r io.Reader, reporter Reporter) *LogReader {
	return &LogReader{r: r, reporter: reporter}
}

func (r *LogReader) report(n int, err error) {
	if r.reporter != nil {
		r.reporter.Corruption(n, err)
	}
}

func (r *LogReader) fill() error {
	n, err := io.ReadFull(r.r, r.buf[:])
	if n > 0 {
		r.pending = r.buf[:n]
	} else {
		r.pending = nil
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		r.eof = true
		if n == 0 {
			return io.EOF
		}
		return nil
	}
	return err
}

// Next returns the next complete logical record, or io.EOF when the
// underlying reader is exhausted.
func (r *LogReader) Next() ([]byte, error) {
	r.record = r.record[:0]
	for {
		if len(r.pending) < headerSize {
			if r.eof {
				return nil, io.EOF
			}
			if err := r.fill(); err != nil {
				return nil, err
			}
			if len(r.pending) < headerSize {
				// Trailing zero padding at end of block: skip to next block.
				if r.eof {
					return nil, io.EOF
				}
				continue
			}
		}

		wantChecksum := binary.LittleEndian.Uint32(r.pending[0:4])
		length := binary.LittleEndian.Uint16(r.pending[4:6])
		t := recordType(r.pending[6])
		r.pending = r.pending[headerSize:]

		if t == recordTypeZero && length == 0 {
			// Zero padding at end of block.
			r.pending = nil
			continue
		}

		if int(length) > len(r.pending) {
			r.report(len(r.pending), errors.New("riftdb: record spans block boundary"))
			r.pending = nil
			r.record = r.record[:0]
			continue
		}

		payload := r.pending[:length]
		r.pending = r.pending[length:]

		if checksum(t, payload) != wantChecksum {
			r.report(len(payload), base.CorruptionErrorf("riftdb: checksum mismatch"))
			r.pending = nil
			r.record = r.record[:0]
			continue
		}

		switch t {
		case recordTypeFull:
			if len(r.record) != 0 {
				r.report(len(r.record), errors.New("riftdb: unexpected full record"))
				r.record = r.record[:0]
			}
			out := make([]byte, length)
			copy(out, payload)
			return out, nil
		case recordTypeFirst:
			if len(r.record) != 0 {
				r.report(len(r.record), errors.New("riftdb: unexpected first record"))
			}
			r.record = append(r.record[:0], payload...)
		case recordTypeMiddle:
			if len(r.record) == 0 {
				r.report(len(payload), errors.New("riftdb: unexpected middle record"))
				continue
			}
			r.record = append(r.record, payload...)
		case recordTypeLast:
			if len(r.record) == 0 {
				r.report(len(payload), errors.New("riftdb: unexpected last record"))
				continue
			}
			r.record = append(r.record, payload...)
			out := make([]byte, len(r.record))
			copy(out, r.record)
			r.record = r.record[:0]
			return out, nil
		default:
			r.report(int(length), base.CorruptionErrorf("riftdb: unknown record type %d", t))
			r.pending = nil
			r.record = r.record[:0]
		}
	}
}
