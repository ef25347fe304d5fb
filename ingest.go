// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"io"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/sstable"
)

// IngestExternalFiles bulk-loads already-built table files into the
// database without rewriting their contents, by copying each into the DB
// directory under a fresh file number and linking it into the version
// directly: a fast path around the normal flush/compaction write
// amplification for already-built tables.
//
// Every ingested file must be internally sorted and its key range must not
// overlap any other file in this call nor move out of order once placed;
// IngestExternalFiles rejects the whole batch rather than ingest a subset.
func (d *DB) IngestExternalFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	metas, err := d.ingestLoad(paths)
	if err != nil {
		return err
	}
	if err := ingestSortAndVerify(d.cmp, metas); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mu.bgError != nil {
		return d.mu.bgError
	}

	edit := &versionEdit{}
	edit.setLogNumber(d.mu.logNumber)
	for _, m := range metas {
		level := d.ingestTargetLevel(m)
		edit.addFile(level, m)
	}
	if err := d.mu.versions.logAndApply(d, edit); err != nil {
		return err
	}
	d.maybeScheduleCompaction()
	return nil
}

// ingestLoad copies each source path into the DB directory under a new
// file number, opening it as a table long enough to read its footer and
// discover its key range.
func (d *DB) ingestLoad(paths []string) ([]*fileMetadata, error) {
	metas := make([]*fileMetadata, 0, len(paths))
	for _, path := range paths {
		meta, err := d.ingestLoadOne(path)
		if err != nil {
			return nil, errors.Wrapf(err, "riftdb: ingesting %s", path)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func (d *DB) ingestLoadOne(path string) (*fileMetadata, error) {
	src, err := d.opts.FS.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	d.mu.Lock()
	fileNum := d.mu.versions.newFileNum()
	d.mu.Unlock()

	dstName := dbFilename(d.dirname, fileTypeTable, fileNum)
	dst, err := d.opts.FS.Create(dstName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		d.opts.FS.Remove(dstName)
		return nil, err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	opened, err := d.opts.FS.Open(dstName)
	if err != nil {
		return nil, err
	}
	defer opened.Close()
	r, err := sstable.Open(opened, d.opts.readerOptions())
	if err != nil {
		d.opts.FS.Remove(dstName)
		return nil, err
	}

	smallest, largest, size, err := tableKeyRange(r, opened)
	if err != nil {
		return nil, err
	}
	meta := &fileMetadata{fileNum: fileNum, size: size, smallest: smallest, largest: largest}
	meta.initAllowedSeeks()
	return meta, nil
}

// tableKeyRange walks the whole table once to find its first and last
// internal key. Ingested tables are expected to be small relative to the
// write amplification a full compaction would otherwise cost, so a linear
// scan here is acceptable.
func tableKeyRange(r *sstable.Reader, f sstable.ReadableFile) (smallest, largest base.InternalKey, size uint64, err error) {
	it, err := r.NewIter()
	if err != nil {
		return base.InternalKey{}, base.InternalKey{}, 0, err
	}
	first := true
	for it.First(); it.Valid(); it.Next() {
		k := it.Key()
		if first {
			smallest = k.Clone()
			first = false
		}
		largest = k.Clone()
	}
	if err := it.Error(); err != nil {
		return base.InternalKey{}, base.InternalKey{}, 0, err
	}
	if first {
		return base.InternalKey{}, base.InternalKey{}, 0, errors.New("riftdb: cannot ingest an empty table")
	}
	n, err := f.Size()
	if err != nil {
		return base.InternalKey{}, base.InternalKey{}, 0, err
	}
	return smallest, largest, uint64(n), nil
}

// ingestSortAndVerify orders metas by smallest key and rejects the batch
// if any two overlap, matching the single-file-per-range invariant every
// other level in the tree already holds.
func ingestSortAndVerify(cmp Compare, metas []*fileMetadata) error {
	sort.Slice(metas, func(i, j int) bool {
		return cmp(metas[i].smallest.UserKey, metas[j].smallest.UserKey) < 0
	})
	for i := 1; i < len(metas); i++ {
		if cmp(metas[i-1].largest.UserKey, metas[i].smallest.UserKey) >= 0 {
			return errors.New("riftdb: ingested files have overlapping key ranges")
		}
	}
	return nil
}

// ingestTargetLevel picks the highest level that does not overlap m and
// whose neighbor at level+1 would not overlap either, the same rule
// PickLevelForMemTableOutput applies to a flushed memtable, reusing it
// directly since ingestion and flush share the same goal: avoid
// write-amplifying a fresh file into L0 unnecessarily.
func (d *DB) ingestTargetLevel(m *fileMetadata) int {
	v := d.mu.versions.current
	return v.pickLevelForMemTableOutput(d.cmp, d.opts, m.smallest.UserKey, m.largest.UserKey)
}
