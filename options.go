// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/internal/cache"
	"github.com/riftdb/riftdb/sstable"
	"github.com/riftdb/riftdb/vfs"
)

// numLevels is the fixed level count (L0..L6).
const numLevels = 7

// Options configures a DB. It is read-only after Open.
type Options struct {
	// CreateIfMissing creates dirname if it does not already hold a DB.
	CreateIfMissing bool
	// ErrorIfExists fails Open if dirname already holds a DB.
	ErrorIfExists bool
	// ParanoidChecks verifies checksums aggressively, even on paths where
	// it would otherwise be skipped.
	ParanoidChecks bool
	// WriteBufferSize is the active memtable's rotation threshold in
	// bytes.
	WriteBufferSize int64
	// MaxOpenFiles bounds the table cache's capacity (plus a reserved
	// margin for WAL/MANIFEST/LOCK handles).
	MaxOpenFiles int
	// BlockSize is the target uncompressed data-block size.
	BlockSize int
	// BlockRestartInterval is the number of entries between prefix-
	// compression restart points.
	BlockRestartInterval int
	// MaxFileSize is the target size of a table produced by flush or
	// compaction.
	MaxFileSize int64
	// Compression selects the per-block compression algorithm.
	Compression sstable.Compression
	// FilterPolicy, if non-nil, attaches a filter block to every table.
	FilterPolicy base.FilterPolicy
	// Comparer supplies the user key order; nil uses DefaultComparer.
	Comparer *base.Comparer
	// Cache is the shared block cache; nil creates an 8 MiB default.
	Cache *cache.BlockCache
	// FS is the platform I/O layer; nil uses vfs.Default.
	FS vfs.FS
	// Logger receives the info log; nil uses base.DefaultLogger.
	Logger base.Logger
	// ReuseLogs allows Open to reuse the most recent WAL instead of
	// starting a new one.
	ReuseLogs bool

	// EventListener receives internal lifecycle notifications; see
	// EventListener for which callbacks are invoked.
	EventListener *EventListener

	// L0CompactionTrigger is the level-0 file count above which a
	// compaction score >= 1 is produced.
	L0CompactionTrigger int
	// L0SlowdownWritesTrigger throttles each write by 1ms once level 0
	// reaches this many files.
	L0SlowdownWritesTrigger int
	// L0StopWritesTrigger blocks writers entirely once level 0 reaches
	// this many files.
	L0StopWritesTrigger int
	// MaxMemCompactLevel bounds PickLevelForMemTableOutput.
	MaxMemCompactLevel int
}

// EnsureDefaults fills in every zero-valued field with its default,
// mutating and returning o.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = 4 << 20
	}
	if o.MaxOpenFiles <= 0 {
		o.MaxOpenFiles = 1000
	}
	if o.BlockSize <= 0 {
		o.BlockSize = 4096
	}
	if o.BlockRestartInterval <= 0 {
		o.BlockRestartInterval = 16
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 2 << 20
	}
	if o.Comparer == nil {
		o.Comparer = base.DefaultComparer
	}
	if o.Cache == nil {
		o.Cache = cache.NewBlockCache(8 << 20)
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	if o.L0CompactionTrigger <= 0 {
		o.L0CompactionTrigger = 4
	}
	if o.L0SlowdownWritesTrigger <= 0 {
		o.L0SlowdownWritesTrigger = 8
	}
	if o.L0StopWritesTrigger <= 0 {
		o.L0StopWritesTrigger = 12
	}
	if o.MaxMemCompactLevel <= 0 {
		o.MaxMemCompactLevel = 2
	}
	if o.EventListener == nil {
		o.EventListener = &EventListener{}
	}
	return o
}

func (o *Options) writerOptions(level int) sstable.WriterOptions {
	return sstable.WriterOptions{
		Comparer:             o.Comparer,
		FilterPolicy:         o.FilterPolicy,
		BlockSize:            o.BlockSize,
		BlockRestartInterval: o.BlockRestartInterval,
		Compression:          o.Compression,
	}
}

func (o *Options) readerOptions() sstable.ReaderOptions {
	return sstable.ReaderOptions{
		Comparer:        o.Comparer,
		FilterPolicy:    o.FilterPolicy,
		VerifyChecksums: o.ParanoidChecks,
	}
}

// WriteOptions configures a single write.
type WriteOptions struct {
	// Sync forces the WAL append to be durably synced before the write
	// returns.
	Sync bool
}

// ReadOptions configures a single read.
type ReadOptions struct {
	VerifyChecksums bool
	FillCache       bool
	Snapshot        *Snapshot
}
