// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"sort"
	"sync/atomic"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/sstable"
)

// tableNewIterFunc opens (or fetches from the table cache) the reader for
// a file.
type tableNewIterFunc func(f *fileMetadata) (*sstable.Reader, error)

// version is an immutable snapshot of the table set. Versions
// form a circular doubly linked list owned by versionSet; a version may not
// be destroyed while referenced.
type version struct {
	files [numLevels][]*fileMetadata

	compactionLevel int
	compactionScore float64
	fileToCompact   *fileMetadata
	fileToCompactLevel int

	refs int32
	prev, next *version
}

func (v *version) ref()  { atomic.AddInt32(&v.refs, 1) }
func (v *version) unref() {
	if atomic.AddInt32(&v.refs, -1) == 0 {
		v.prev.next = v.next
		v.next.prev = v.prev
	}
}

// getStats records the seek-accounting outcome of a Get call: the first
// file probed past the first one charges a "seek" to the earliest such
// file.
type getStats struct {
	file  *fileMetadata
	level int
}

// get walks levels 0..L-1, newest level-0 file first, then binary
// searches each disjoint higher level.
func (v *version) get(cmp Compare, ikey base.InternalKey, newIter tableNewIterFunc) (value []byte, stats getStats, err error) {
	var lastFile *fileMetadata
	var lastLevel = -1

	consider := func(f *fileMetadata, level int) (done bool, err error) {
		if lastFile != nil && stats.file == nil {
			// The first file probed past the very first candidate charges
			// a seek to the earliest such file.
			stats.file = lastFile
			stats.level = lastLevel
		}
		lastFile, lastLevel = f, level

		r, err := newIter(f)
		if err != nil {
			return false, err
		}
		// r is owned by the table cache; do not close it here.

		var found bool
		var foundValue []byte
		var foundKind InternalKeyKind
		_, ferr := r.InternalGet(ikey, func(k base.InternalKey, val []byte) error {
			if cmp(k.UserKey, ikey.UserKey) != 0 {
				return nil
			}
			found = true
			foundKind = k.Kind()
			if k.Kind() == InternalKeyKindSet {
				foundValue = append([]byte(nil), val...)
			}
			return nil
		})
		if ferr != nil {
			return false, ferr
		}
		if found {
			switch foundKind {
			case InternalKeyKindSet:
				value = foundValue
				return true, nil
			default:
				return true, base.ErrNotFound
			}
		}
		return false, nil
	}

	// Level 0: all overlapping files, newest file number first.
	l0 := append([]*fileMetadata(nil), v.files[0]...)
	sort.Slice(l0, func(i, j int) bool { return l0[i].fileNum > l0[j].fileNum })
	for _, f := range l0 {
		if !f.overlaps(cmp, ikey.UserKey, ikey.UserKey) {
			continue
		}
		done, err := consider(f, 0)
		if done {
			return value, stats, err
		}
	}

	for level := 1; level < numLevels; level++ {
		files := v.files[level]
		if len(files) == 0 {
			continue
		}
		idx := sort.Search(len(files), func(i int) bool {
			return cmp(files[i].largest.UserKey, ikey.UserKey) >= 0
		})
		if idx >= len(files) {
			continue
		}
		f := files[idx]
		if !f.overlaps(cmp, ikey.UserKey, ikey.UserKey) {
			continue
		}
		done, err := consider(f, level)
		if done {
			return value, stats, err
		}
	}

	return nil, stats, base.ErrNotFound
}

// pickLevelForMemTableOutput chooses the highest level <= MaxMemCompactLevel
// such that the new file overlaps no files at that level and the
// cumulative overlap at level+2 does not exceed
// 10*MaxFileSize.
func (v *version) pickLevelForMemTableOutput(cmp Compare, opts *Options, smallest, largest []byte) int {
	level := 0
	if v.overlapInLevel(cmp, 0, smallest, largest) {
		return 0
	}
	for level < opts.MaxMemCompactLevel {
		if v.overlapInLevel(cmp, level+1, smallest, largest) {
			break
		}
		if level+2 < numLevels {
			overlaps := v.getOverlappingInputs(cmp, level+2, smallest, largest)
			if sumFileSizes(overlaps) > uint64(10*opts.MaxFileSize) {
				break
			}
		}
		level++
	}
	return level
}

func sumFileSizes(files []*fileMetadata) uint64 {
	var total uint64
	for _, f := range files {
		total += f.size
	}
	return total
}

// overlapInLevel reports true iff any file at level intersects
// [smallest,largest].
func (v *version) overlapInLevel(cmp Compare, level int, smallest, largest []byte) bool {
	files := v.files[level]
	if level == 0 {
		for _, f := range files {
			if f.overlaps(cmp, smallest, largest) {
				return true
			}
		}
		return false
	}
	idx := sort.Search(len(files), func(i int) bool {
		return cmp(files[i].largest.UserKey, smallest) >= 0
	})
	return idx < len(files) && cmp(files[idx].smallest.UserKey, largest) <= 0
}

// getOverlappingInputs collects files whose range intersects [begin,end],
// expanding transitively at level 0.
func (v *version) getOverlappingInputs(cmp Compare, level int, begin, end []byte) []*fileMetadata {
	var out []*fileMetadata
	for {
		out = out[:0]
		newBegin, newEnd := begin, end
		expanded := false
		for _, f := range v.files[level] {
			if !f.overlaps(cmp, begin, end) {
				continue
			}
			out = append(out, f)
			if level == 0 {
				if begin != nil && cmp(f.smallest.UserKey, newBegin) < 0 {
					newBegin = f.smallest.UserKey
					expanded = true
				}
				if end != nil && cmp(f.largest.UserKey, newEnd) > 0 {
					newEnd = f.largest.UserKey
					expanded = true
				}
			}
		}
		if level != 0 || !expanded {
			break
		}
		begin, end = newBegin, newEnd
	}
	return out
}

// finalize computes compactionLevel/compactionScore: level 0 score =
// numFiles/L0CompactionTrigger; level>=1 score =
// totalBytes/MaxBytesForLevel(level).
func (v *version) finalize(opts *Options) {
	bestLevel := 0
	bestScore := float64(len(v.files[0])) / float64(opts.L0CompactionTrigger)
	for level := 1; level < numLevels-1; level++ {
		score := float64(sumFileSizes(v.files[level])) / float64(maxBytesForLevel(level))
		if score > bestScore {
			bestScore, bestLevel = score, level
		}
	}
	v.compactionLevel = bestLevel
	v.compactionScore = bestScore
}

// maxBytesForLevel is 10 MiB * 10^(L-1), with levels 0 and 1 sharing the
// base.
func maxBytesForLevel(level int) uint64 {
	if level <= 1 {
		level = 1
	}
	result := uint64(10 << 20)
	for ; level > 1; level-- {
		result *= 10
	}
	return result
}

// needsCompaction reports whether a background compaction should run:
// true while score >= 1 or fileToCompact is set.
func (v *version) needsCompaction() bool {
	return v.compactionScore >= 1 || v.fileToCompact != nil
}
