// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package record

import (
	"encoding/binary"
	"io"
)

// writerSyncer is the subset of vfs.File the log writer needs.
type writerSyncer interface {
	io.Writer
	Sync() error
}

// LogWriter appends length-framed records to an underlying file,
// fragmenting them across BlockSize blocks.
type LogWriter struct {
	f            writerSyncer
	blockOffset  int // bytes already written into the current block
	pendingErr   error
}

// NewLogWriter wraps f for record-oriented appends.
func NewLogWriter(f writerSyncer) *LogWriter {
	return &LogWriter{f: f}
}

// AddRecord fragments data across blocks and appends it: pad with zeros
// and advance when fewer than headerSize bytes remain in the
// current block; otherwise emit a fragment sized
// min(remaining_payload, block_remaining-headerSize) with the appropriate
// fragment type.
func (w *LogWriter) AddRecord(data []byte) error {
	if w.pendingErr != nil {
		return w.pendingErr
	}
	begin := true
	for {
		leftover := BlockSize - w.blockOffset
		if leftover < headerSize {
			if leftover > 0 {
				if err := w.write(make([]byte, leftover)); err != nil {
					return w.fail(err)
				}
			}
			w.blockOffset = 0
		}

		avail := BlockSize - w.blockOffset - headerSize
		fragLen := len(data)
		end := false
		if fragLen > avail {
			fragLen = avail
		} else {
			end = true
		}

		var t recordType
		switch {
		case begin && end:
			t = recordTypeFull
		case begin:
			t = recordTypeFirst
		case end:
			t = recordTypeLast
		default:
			t = recordTypeMiddle
		}

		if err := w.emitPhysicalRecord(t, data[:fragLen]); err != nil {
			return w.fail(err)
		}
		data = data[fragLen:]
		begin = false
		if len(data) == 0 {
			break
		}
	}
	return nil
}

func (w *LogWriter) emitPhysicalRecord(t recordType, payload []byte) error {
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], checksum(t, payload))
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(payload)))
	header[6] = byte(t)
	if err := w.write(header[:]); err != nil {
		return err
	}
	if err := w.write(payload); err != nil {
		return err
	}
	w.blockOffset += headerSize + len(payload)
	return nil
}

func (w *LogWriter) write(p []byte) error {
	_, err := w.f.Write(p)
	return err
}

func (w *LogWriter) fail(err error) error {
	w.pendingErr = err
	return err
}

// Flush is a no-op placeholder for buffered implementations; the disk
// vfs.File already buffers via bufio (see vfs package).
func (w *LogWriter) Flush() error { return nil }

// Sync forces durability of everything written so far.
func (w *LogWriter) Sync() error { return w.f.Sync() }

// Close flushes and closes the writer, if the underlying file supports it.
func (w *LogWriter) Close() error {
	if c, ok := w.f.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
