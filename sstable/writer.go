// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/riftdb/riftdb/internal/base"
)

// Writer streams a table file to disk: data blocks are flushed as they
// fill, the index entry for a finished block is deferred until the next
// Add so FindShortestSeparator can minimize it, and Finish
// appends the filter, metaindex, index, and footer.
type Writer struct {
	w    io.Writer
	opts WriterOptions

	offset uint64
	err    error

	dataBlock  *blockWriter
	indexBlock *blockWriter
	filter     *filterBlockWriter

	pendingIndexEntry bool
	pendingHandle     BlockHandle
	prevKey           base.InternalKey

	closed bool
}

// NewWriter creates a table writer. w is typically a vfs.File opened for
// Create.
func NewWriter(w io.Writer, opts WriterOptions) *Writer {
	opts.ensureDefaults()
	tw := &Writer{
		w:          w,
		opts:       opts,
		dataBlock:  newBlockWriter(opts.BlockRestartInterval),
		indexBlock: newBlockWriter(1), // every index entry is a restart
	}
	if opts.FilterPolicy != nil {
		tw.filter = newFilterBlockWriter(opts.FilterPolicy)
	}
	return tw
}

// Add appends a (key,value) pair. Keys must be added in strictly increasing
// internal-key order.
func (w *Writer) Add(key base.InternalKey, value []byte) error {
	if w.err != nil {
		return w.err
	}
	if !w.dataBlock.empty() {
		if base.InternalCompare(w.opts.Comparer.Compare, w.prevKey, key) >= 0 {
			w.err = base.CorruptionErrorf("riftdb: keys must be added in increasing order")
			return w.err
		}
	}

	if w.pendingIndexEntry {
		sep := w.opts.Comparer.Separator(nil, w.prevKey.UserKey, key.UserKey)
		sepKey := base.InternalKey{UserKey: sep, Trailer: w.prevKey.Trailer}
		var handle [2 * binary.MaxVarintLen64]byte
		n := len(w.pendingHandle.encode(handle[:0]))
		w.indexBlock.add(sepKey, handle[:n])
		w.pendingIndexEntry = false
	}

	if w.filter != nil {
		w.filter.addKey(key.UserKey)
	}
	w.dataBlock.add(key, value)
	w.prevKey = key.Clone()

	if w.dataBlock.estimatedSize() >= w.opts.BlockSize {
		if err := w.flushDataBlock(); err != nil {
			w.err = err
		}
	}
	return w.err
}

func (w *Writer) flushDataBlock() error {
	if w.dataBlock.empty() {
		return nil
	}
	handle, err := w.writeBlock(w.dataBlock.finish(), w.opts.Compression)
	if err != nil {
		return err
	}
	w.dataBlock.reset()
	w.pendingHandle = handle
	w.pendingIndexEntry = true
	if w.filter != nil {
		w.filter.startBlock(w.offset)
	}
	return nil
}

// writeBlock compresses and appends payload, writing the trailer
// (compression_type:u8 ‖ crc:fixed32), and returns a handle to it.
func (w *Writer) writeBlock(payload []byte, c Compression) (BlockHandle, error) {
	compressed, usedCompression := compressBlock(c, payload)
	trailer := make([]byte, blockTrailerLen)
	trailer[0] = byte(usedCompression)
	h := xxhash.New()
	h.Write(compressed)
	h.Write(trailer[:1])
	binary.LittleEndian.PutUint32(trailer[1:], uint32(h.Sum64()))

	handle := BlockHandle{Offset: w.offset, Length: uint64(len(compressed))}
	if _, err := w.w.Write(compressed); err != nil {
		return BlockHandle{}, err
	}
	if _, err := w.w.Write(trailer); err != nil {
		return BlockHandle{}, err
	}
	w.offset += uint64(len(compressed)) + blockTrailerLen
	return handle, nil
}

// EstimatedSize returns the number of bytes written so far plus the
// in-progress data block, used by the caller (compaction/flush) to decide
// when to rotate output files.
func (w *Writer) EstimatedSize() uint64 {
	return w.offset + uint64(w.dataBlock.estimatedSize())
}

// Finish flushes any pending data, then the filter, metaindex, index, and
// footer blocks.
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if err := w.flushDataBlock(); err != nil {
		return err
	}

	var filterHandle BlockHandle
	haveFilter := w.filter != nil
	if haveFilter {
		var err error
		filterHandle, err = w.writeBlock(w.filter.finish(), NoCompression)
		if err != nil {
			return err
		}
	}

	if w.pendingIndexEntry {
		succ := w.opts.Comparer.Successor(nil, w.prevKey.UserKey)
		sepKey := base.InternalKey{UserKey: succ, Trailer: w.prevKey.Trailer}
		var handle [2 * binary.MaxVarintLen64]byte
		n := len(w.pendingHandle.encode(handle[:0]))
		w.indexBlock.add(sepKey, handle[:n])
		w.pendingIndexEntry = false
	}

	metaBlock := newBlockWriter(16)
	if haveFilter {
		var handle [2 * binary.MaxVarintLen64]byte
		n := len(filterHandle.encode(handle[:0]))
		name := "filter." + w.opts.FilterPolicy.Name()
		metaBlock.add(base.InternalKey{UserKey: []byte(name)}, handle[:n])
	}
	metaHandle, err := w.writeBlock(metaBlock.finish(), NoCompression)
	if err != nil {
		return err
	}

	indexHandle, err := w.writeBlock(w.indexBlock.finish(), NoCompression)
	if err != nil {
		return err
	}

	f := footer{metaindexHandle: metaHandle, indexHandle: indexHandle}
	if _, err := w.w.Write(f.encode()); err != nil {
		return err
	}
	w.offset += footerLen
	w.closed = true
	return nil
}

// Abandon discards the in-progress file; the caller is responsible for
// removing the underlying file.
func (w *Writer) Abandon() {
	w.closed = true
}

// Close finishes the table if it has not already been finished or
// abandoned.
func (w *Writer) Close() error {
	if w.closed {
		if c, ok := w.w.(io.Closer); ok {
			return c.Close()
		}
		return nil
	}
	if err := w.Finish(); err != nil {
		return err
	}
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
