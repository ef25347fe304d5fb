// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/riftdb/riftdb/sstable"
	"github.com/riftdb/riftdb/vfs"
)

// TableCache bounds the number of concurrently open table files:
// file_number -> (open file, sstable.Reader), evicting the
// least-recently-used entry once the bound is reached. Entries are
// namespaced by a caller-supplied id so the same file number from two
// different DB directories never collides, mirroring the table reader's
// own CacheID scheme for block-cache keys.
type TableCache struct {
	mu  sync.Mutex
	lru *lru.Cache[tableKey, *tableCacheEntry]

	fs       vfs.FS
	readOpts sstable.ReaderOptions
}

type tableKey struct {
	dirname string
	fileNum uint64
}

type tableCacheEntry struct {
	file   vfs.File
	reader *sstable.Reader
	refs   int32
}

// NewTableCache creates a table cache bounded to size open tables.
func NewTableCache(fs vfs.FS, readOpts sstable.ReaderOptions, size int) *TableCache {
	if size < 1 {
		size = 1
	}
	tc := &TableCache{fs: fs, readOpts: readOpts}
	l, _ := lru.NewWithEvict[tableKey, *tableCacheEntry](size, func(_ tableKey, e *tableCacheEntry) {
		e.release()
	})
	tc.lru = l
	return tc
}

func (e *tableCacheEntry) release() {
	if e.reader != nil {
		e.reader.Close()
	}
}

// filename reproduces the ".ldb" table path convention; callers pass the
// already-built path to avoid this package depending on the root package's
// filename scheme.
type FilenameFunc func(fileNum uint64) string

// Get returns the (possibly newly opened) reader for fileNum under
// dirname, opened via filename(fileNum).
func (tc *TableCache) Get(dirname string, fileNum uint64, filename FilenameFunc) (*sstable.Reader, error) {
	key := tableKey{dirname, fileNum}

	tc.mu.Lock()
	if e, ok := tc.lru.Get(key); ok {
		tc.mu.Unlock()
		return e.reader, nil
	}
	tc.mu.Unlock()

	f, err := tc.fs.Open(filename(fileNum))
	if err != nil {
		return nil, err
	}
	r, err := sstable.Open(f, tc.readOpts)
	if err != nil {
		f.Close()
		return nil, err
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	if e, ok := tc.lru.Get(key); ok {
		// Lost a race with a concurrent opener; keep theirs, drop ours.
		r.Close()
		return e.reader, nil
	}
	tc.lru.Add(key, &tableCacheEntry{file: f, reader: r})
	return r, nil
}

// Evict drops any cached entry for fileNum, closing its reader. The DB
// itself does not call it; entries for tables that compaction replaced
// stay cached until the LRU evicts them.
func (tc *TableCache) Evict(dirname string, fileNum uint64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.lru.Remove(tableKey{dirname, fileNum})
}

// Close releases every open table.
func (tc *TableCache) Close() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.lru.Purge()
	return nil
}
