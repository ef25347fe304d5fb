// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/riftdb/riftdb/internal/base"
)

// ReadableFile is the subset of vfs.File a Reader needs.
type ReadableFile interface {
	io.ReaderAt
	io.Closer
	Size() (int64, error)
}

// nextCacheID hands out per-table identifiers used to namespace
// block-cache keys with an opaque cache id.
var nextCacheID uint64

// Reader opens a table file: it reads the footer, decodes the index
// block, and loads the filter block if present.
type Reader struct {
	file    ReadableFile
	opts    ReaderOptions
	cmp     func(a, b []byte) int
	cacheID uint64

	index  []byte
	filter *filterBlockReader
}

// Open reads and validates the footer/index/filter of the table in file.
func Open(file ReadableFile, opts ReaderOptions) (*Reader, error) {
	opts.ensureDefaults()
	size, err := file.Size()
	if err != nil {
		return nil, err
	}
	if size < footerLen {
		return nil, base.CorruptionErrorf("riftdb: file too small to be a table")
	}
	footerBuf := make([]byte, footerLen)
	if _, err := file.ReadAt(footerBuf, size-footerLen); err != nil {
		return nil, err
	}
	ft, err := decodeFooter(footerBuf)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:    file,
		opts:    opts,
		cmp:     rawKeyCompare(opts.Comparer.Compare),
		cacheID: atomic.AddUint64(&nextCacheID, 1),
	}

	index, err := r.readBlock(ft.indexHandle)
	if err != nil {
		return nil, err
	}
	r.index = index

	metaBlock, err := r.readBlock(ft.metaindexHandle)
	if err != nil {
		return nil, err
	}
	if opts.FilterPolicy != nil {
		if handle, ok := findMetaHandle(metaBlock, "filter."+opts.FilterPolicy.Name()); ok {
			filterBlock, err := r.readBlock(handle)
			if err != nil {
				return nil, err
			}
			fr, err := newFilterBlockReader(opts.FilterPolicy, filterBlock)
			if err != nil {
				return nil, err
			}
			r.filter = fr
		}
	}
	return r, nil
}

// CacheID returns the per-table identifier used to namespace block-cache
// entries.
func (r *Reader) CacheID() uint64 { return r.cacheID }

func findMetaHandle(metaBlock []byte, name string) (BlockHandle, bool) {
	it, err := newBlockIter(rawKeyCompare(base.DefaultComparer.Compare), metaBlock)
	if err != nil {
		return BlockHandle{}, false
	}
	for it.First(); it.Valid(); it.Next() {
		if string(base.DecodeInternalKey(it.Key()).UserKey) == name {
			h, _, err := decodeBlockHandle(it.Value())
			if err != nil {
				return BlockHandle{}, false
			}
			return h, true
		}
	}
	return BlockHandle{}, false
}

// readBlock reads, checksums, and decompresses the block at handle. It does
// not consult any cache; callers that want caching wrap this (see
// internal/cache).
func (r *Reader) readBlock(handle BlockHandle) ([]byte, error) {
	buf := make([]byte, handle.Length+blockTrailerLen)
	if _, err := r.file.ReadAt(buf, int64(handle.Offset)); err != nil {
		return nil, err
	}
	payload := buf[:handle.Length]
	trailer := buf[handle.Length:]
	if r.opts.VerifyChecksums {
		h := xxhash.New()
		h.Write(payload)
		h.Write(trailer[:1])
		if uint32(h.Sum64()) != binary.LittleEndian.Uint32(trailer[1:]) {
			return nil, base.CorruptionErrorf("riftdb: block checksum mismatch")
		}
	}
	return decompressBlock(Compression(trailer[0]), payload)
}

// InternalGet performs a point lookup: seek the index to ikey, consult
// the filter for the target data block, and invoke save on a match.
func (r *Reader) InternalGet(ikey base.InternalKey, save func(key base.InternalKey, value []byte) error) (found bool, err error) {
	var keyBuf [512]byte
	var kb []byte
	if n := ikey.Size(); n <= len(keyBuf) {
		kb = keyBuf[:n]
	} else {
		kb = make([]byte, n)
	}
	ikey.Encode(kb)

	idx, err := newBlockIter(r.cmp, r.index)
	if err != nil {
		return false, err
	}
	idx.SeekGE(kb)
	if !idx.Valid() {
		return false, nil
	}
	handle, _, err := decodeBlockHandle(idx.Value())
	if err != nil {
		return false, err
	}

	if r.filter != nil && !r.filter.mayContain(handle.Offset, ikey.UserKey) {
		return false, nil
	}

	block, err := r.readBlock(handle)
	if err != nil {
		return false, err
	}
	bi, err := newBlockIter(r.cmp, block)
	if err != nil {
		return false, err
	}
	bi.SeekGE(kb)
	if !bi.Valid() {
		return false, nil
	}
	gotKey := base.DecodeInternalKey(bi.Key())
	if r.opts.Comparer.Compare(gotKey.UserKey, ikey.UserKey) != 0 {
		return false, nil
	}
	if err := save(gotKey, bi.Value()); err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.file.Close() }
