// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import "github.com/riftdb/riftdb/internal/base"

// WriterOptions configures a table Writer.
type WriterOptions struct {
	Comparer        *base.Comparer
	FilterPolicy    base.FilterPolicy // nil disables the filter block
	BlockSize       int
	BlockRestartInterval int
	Compression     Compression
}

func (o *WriterOptions) ensureDefaults() {
	if o.Comparer == nil {
		o.Comparer = base.DefaultComparer
	}
	if o.BlockSize == 0 {
		o.BlockSize = 4096
	}
	if o.BlockRestartInterval == 0 {
		o.BlockRestartInterval = 16
	}
}

// ReaderOptions configures a table Reader.
type ReaderOptions struct {
	Comparer       *base.Comparer
	FilterPolicy   base.FilterPolicy
	VerifyChecksums bool
}

func (o *ReaderOptions) ensureDefaults() {
	if o.Comparer == nil {
		o.Comparer = base.DefaultComparer
	}
}
