// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import "github.com/riftdb/riftdb/internal/base"

// fileMetadata is the per-table bookkeeping a Version tracks.
type fileMetadata struct {
	fileNum  uint64
	size     uint64
	smallest base.InternalKey
	largest  base.InternalKey

	// allowedSeeks decays on unsuccessful reads; when it reaches zero the
	// file is scheduled for seek-driven compaction.
	allowedSeeks int64

	refs int32
}

// initAllowedSeeks sets the seek-compaction budget from the file size:
// one allowed seek per 16 KiB, with a floor of 100, so tiny files don't
// trigger compaction on the very first miss.
func (f *fileMetadata) initAllowedSeeks() {
	seeks := int64(f.size) / (16 << 10)
	if seeks < 100 {
		seeks = 100
	}
	f.allowedSeeks = seeks
}

// overlaps reports whether [smallest,largest] (user keys) intersects this
// file's range.
func (f *fileMetadata) overlaps(cmp Compare, smallest, largest []byte) bool {
	if smallest != nil && cmp(f.largest.UserKey, smallest) < 0 {
		return false
	}
	if largest != nil && cmp(f.smallest.UserKey, largest) > 0 {
		return false
	}
	return true
}
