// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/sstable"
)

// writeLevel0Table drains mem's iterator into a new table file, returning
// its metadata. Used both by flush and by WAL-replay recovery.
func (d *DB) writeLevel0Table(mem *memTable, fileNum uint64) (*fileMetadata, error) {
	filename := dbFilename(d.dirname, fileTypeTable, fileNum)
	f, err := d.opts.FS.Create(filename)
	if err != nil {
		return nil, err
	}

	w := sstable.NewWriter(f, d.opts.writerOptions(0))
	it := mem.newIter()
	var smallest, largest base.InternalKey
	first := true
	for it.First(); it.Valid(); it.Next() {
		k := it.Key()
		if first {
			smallest = k.Clone()
			first = false
		}
		largest = k.Clone()
		if err := w.Add(k, it.Value()); err != nil {
			w.Abandon()
			f.Close()
			d.opts.FS.Remove(filename)
			return nil, err
		}
	}
	if err := w.Finish(); err != nil {
		f.Close()
		d.opts.FS.Remove(filename)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	size := w.EstimatedSize()
	meta := &fileMetadata{fileNum: fileNum, size: size, smallest: smallest, largest: largest}
	meta.initAllowedSeeks()
	return meta, nil
}

// backgroundCompaction flushes an immutable memtable if present,
// otherwise runs one score- or seek-driven compaction if needed. d.mu
// must be held on entry and exit.
func (d *DB) backgroundCompaction() {
	if d.mu.imm != nil {
		d.flushImm()
		return
	}
	if !d.mu.versions.current.needsCompaction() {
		return
	}
	d.runCompaction()
}

func (d *DB) flushImm() {
	imm := d.mu.imm
	fileNum := d.mu.versions.newFileNum()
	d.mu.pendingOutputs[fileNum] = struct{}{}
	d.mu.Unlock()
	meta, err := d.writeLevel0Table(imm, fileNum)
	d.mu.Lock()
	delete(d.mu.pendingOutputs, fileNum)

	if err != nil {
		d.mu.bgError = err
		if f := d.opts.EventListener.FlushEnd; f != nil {
			f(FlushInfo{FileNum: fileNum, Err: err})
		}
		return
	}

	level := d.mu.versions.current.pickLevelForMemTableOutput(d.cmp, d.opts, meta.smallest.UserKey, meta.largest.UserKey)
	edit := &versionEdit{}
	edit.setLogNumber(d.mu.logNumber)
	edit.addFile(level, meta)
	if err := d.mu.versions.logAndApply(d, edit); err != nil {
		d.mu.bgError = err
		return
	}

	d.metrics.recordFlush()
	if f := d.opts.EventListener.FlushEnd; f != nil {
		f(FlushInfo{FileNum: fileNum, Level: level})
	}

	d.mu.imm.markFlushed()
	d.mu.imm = nil
	d.mu.bgCond.Broadcast()
	d.maybeScheduleCompaction()
}

// compaction describes one run of the merging compactor: inputs drawn from
// level and level+1, producing outputs at level+1.
type compaction struct {
	level       int
	inputs      [2][]*fileMetadata // [0]=level, [1]=level+1
	grandparents []*fileMetadata
	smallestSnapshot uint64
}

// pickCompaction chooses the next compaction: seek-driven if a file has
// exhausted its allowed_seeks budget, otherwise the highest-score level.
func (d *DB) pickCompaction() *compaction {
	v := d.mu.versions.current
	c := &compaction{level: v.compactionLevel}

	if v.fileToCompact != nil {
		c.level = v.fileToCompactLevel
		c.inputs[0] = []*fileMetadata{v.fileToCompact}
	} else if v.compactionScore >= 1 {
		for _, f := range v.files[c.level] {
			c.inputs[0] = append(c.inputs[0], f)
			break // one seed file; expanded below for level 0
		}
		if c.level == 0 {
			smallest, largest := rangeOf(d.cmp, c.inputs[0])
			c.inputs[0] = v.getOverlappingInputs(d.cmp, 0, smallest, largest)
		}
	} else {
		return nil
	}
	if len(c.inputs[0]) == 0 {
		return nil
	}

	smallest, largest := rangeOf(d.cmp, c.inputs[0])
	c.inputs[1] = v.getOverlappingInputs(d.cmp, c.level+1, smallest, largest)
	if c.level+2 < numLevels {
		allSmallest, allLargest := rangeOf(d.cmp, append(append([]*fileMetadata(nil), c.inputs[0]...), c.inputs[1]...))
		c.grandparents = v.getOverlappingInputs(d.cmp, c.level+2, allSmallest, allLargest)
	}
	c.smallestSnapshot = d.mu.snapshots.oldest(d.mu.versions.lastSequence)
	return c
}

func rangeOf(cmp Compare, files []*fileMetadata) (smallest, largest []byte) {
	for i, f := range files {
		if i == 0 || cmp(f.smallest.UserKey, smallest) < 0 {
			smallest = f.smallest.UserKey
		}
		if i == 0 || cmp(f.largest.UserKey, largest) > 0 {
			largest = f.largest.UserKey
		}
	}
	return smallest, largest
}

// runCompaction executes one compaction end to end, applying its resulting
// VersionEdit via logAndApply.
func (d *DB) runCompaction() {
	c := d.pickCompaction()
	if c == nil {
		return
	}

	start := time.Now()
	if f := d.opts.EventListener.CompactionBegin; f != nil {
		f(CompactionInfo{StartLevel: c.level, OutputLevel: c.level + 1})
	}

	sources, err := d.openCompactionInputs(c)
	if err != nil {
		d.mu.bgError = err
		return
	}
	merge := newMergingIter(d.cmp, sources)

	d.mu.Unlock()
	edit, err := d.doCompactionWork(c, merge)
	d.mu.Lock()

	if err != nil {
		d.mu.bgError = err
		if f := d.opts.EventListener.CompactionEnd; f != nil {
			f(CompactionInfo{StartLevel: c.level, OutputLevel: c.level + 1, Err: err})
		}
		return
	}

	edit.setLogNumber(d.mu.logNumber)
	if err := d.mu.versions.logAndApply(d, edit); err != nil {
		d.mu.bgError = err
		return
	}
	if c.level == d.mu.versions.current.fileToCompactLevel {
		d.mu.versions.current.fileToCompact = nil
	}

	d.metrics.recordCompaction(time.Since(start))
	if f := d.opts.EventListener.CompactionEnd; f != nil {
		f(CompactionInfo{StartLevel: c.level, OutputLevel: c.level + 1})
	}
	d.maybeScheduleCompaction()
}

// openCompactionInputs opens a table iterator for every input file,
// fanning the two input sides (level and level+1) out across goroutines
// since each side's files are independent and opening a table means
// reading its footer and index block from disk.
func (d *DB) openCompactionInputs(c *compaction) ([]internalIterator, error) {
	sides := make([][]internalIterator, 2)
	var g errgroup.Group
	for side := 0; side < 2; side++ {
		side := side
		g.Go(func() error {
			iters := make([]internalIterator, 0, len(c.inputs[side]))
			for _, f := range c.inputs[side] {
				it, err := d.newFileIter(f)
				if err != nil {
					return err
				}
				iters = append(iters, it)
			}
			sides[side] = iters
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(sides[0], sides[1]...), nil
}

// doCompactionWork streams merge into rotated output tables, applying the
// drop rules below, without holding d.mu.
func (d *DB) doCompactionWork(c *compaction, merge *mergingIter) (*versionEdit, error) {
	edit := &versionEdit{}
	for _, f := range c.inputs[0] {
		edit.deleteFile(c.level, f.fileNum)
	}
	for _, f := range c.inputs[1] {
		edit.deleteFile(c.level+1, f.fileNum)
	}

	var (
		w          *sstable.Writer
		wf         interface {
			Close() error
		}
		filename     string
		fileNum      uint64
		smallest     base.InternalKey
		largest      base.InternalKey
		haveOutput   bool
		lastUserKey  []byte
		haveLastUserKey bool
		grandparentIdx int
		overlappedBytes uint64
	)

	finishOutput := func() error {
		if !haveOutput {
			return nil
		}
		if err := w.Finish(); err != nil {
			return err
		}
		if err := wf.Close(); err != nil {
			return err
		}
		meta := &fileMetadata{fileNum: fileNum, size: w.EstimatedSize(), smallest: smallest, largest: largest}
		meta.initAllowedSeeks()
		edit.addFile(c.level+1, meta)
		haveOutput = false
		w = nil
		return nil
	}

	startOutput := func() error {
		d.mu.Lock()
		fileNum = d.mu.versions.newFileNum()
		d.mu.pendingOutputs[fileNum] = struct{}{}
		d.mu.Unlock()
		filename = dbFilename(d.dirname, fileTypeTable, fileNum)
		f, err := d.opts.FS.Create(filename)
		if err != nil {
			return err
		}
		wf = f
		w = sstable.NewWriter(f, d.opts.writerOptions(c.level+1))
		haveOutput = true
		haveLastUserKey = false
		return nil
	}

	shouldStopBefore := func(userKey []byte) bool {
		for grandparentIdx < len(c.grandparents) && d.cmp(c.grandparents[grandparentIdx].largest.UserKey, userKey) < 0 {
			overlappedBytes += c.grandparents[grandparentIdx].size
			grandparentIdx++
		}
		return overlappedBytes > uint64(10*d.opts.MaxFileSize)
	}

	for merge.First(); merge.Valid(); {
		k := merge.Key()

		dropCurrent := false
		sameAsLast := haveLastUserKey && d.cmp(k.UserKey, lastUserKey) == 0
		if !sameAsLast {
			lastUserKey = append(lastUserKey[:0], k.UserKey...)
			haveLastUserKey = true
		} else if k.SeqNum() <= c.smallestSnapshot {
			dropCurrent = true
		}
		if !dropCurrent && k.Kind() == InternalKeyKindDelete && k.SeqNum() <= c.smallestSnapshot &&
			d.isBaseLevelForKey(c.level+2, k.UserKey) {
			dropCurrent = true
		}

		if !dropCurrent {
			if haveOutput && shouldStopBefore(k.UserKey) {
				if err := finishOutput(); err != nil {
					return nil, err
				}
			}
			if !haveOutput {
				if err := startOutput(); err != nil {
					return nil, err
				}
				smallest = k.Clone()
			}
			largest = k.Clone()
			if err := w.Add(k, merge.Value()); err != nil {
				return nil, err
			}
			if w.EstimatedSize() >= uint64(d.opts.MaxFileSize) {
				if err := finishOutput(); err != nil {
					return nil, err
				}
			}
		}
		merge.Next()
	}
	if err := finishOutput(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	for _, nf := range edit.newFiles {
		delete(d.mu.pendingOutputs, nf.meta.fileNum)
	}
	d.mu.Unlock()

	return edit, nil
}

// isBaseLevelForKey reports whether no file at a level deeper than
// startLevel could contain userKey. A deletion may be dropped only once
// this holds for the level one past the compaction's output level: the
// output level itself (c.level+1) still holds the input files this
// compaction is in the middle of replacing, since the edit hasn't been
// applied yet, so callers must start the scan at c.level+2.
func (d *DB) isBaseLevelForKey(startLevel int, userKey []byte) bool {
	v := d.mu.versions.current
	for level := startLevel; level < numLevels; level++ {
		for _, f := range v.files[level] {
			if f.overlaps(d.cmp, userKey, userKey) {
				return false
			}
		}
	}
	return true
}

// CompactRange forces compactions for the key range [begin,end] (nil means
// unbounded). For each level from 0 up to the second-to-last that holds a
// file overlapping the range, it runs the compaction that pickCompaction
// chooses for that level, and repeats while the resulting version still
// scores that level for compaction. The inputs are chosen by
// pickCompaction, not restricted to the range's files, so files of a level
// that overlap the range can remain in that level afterwards.
func (d *DB) CompactRange(begin, end []byte) error {
	d.mu.Lock()
	for level := 0; level < numLevels-1; level++ {
		v := d.mu.versions.current
		if len(v.getOverlappingInputs(d.cmp, level, begin, end)) == 0 {
			continue
		}
		v.compactionLevel = level
		v.compactionScore = 1
		for v.compactionScore >= 1 {
			d.runCompaction()
			if d.mu.bgError != nil {
				err := d.mu.bgError
				d.mu.Unlock()
				return err
			}
			v = d.mu.versions.current
			if v.compactionLevel != level {
				break
			}
		}
	}
	d.mu.Unlock()
	return nil
}
