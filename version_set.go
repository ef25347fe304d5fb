// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"path/filepath"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/internal/record"
	"github.com/riftdb/riftdb/vfs"
)

// versionSet owns the circular doubly linked list of versions, the MANIFEST
// descriptor log, and the file-number/sequence-number counters.
type versionSet struct {
	dirname string
	fs      vfs.FS
	opts    *Options
	cmp     Compare

	mu sync.Mutex

	dummyVersions version // sentinel; current is dummyVersions.prev
	current       *version

	nextFileNum    uint64
	logNumber      uint64
	prevLogNumber  uint64
	lastSequence   uint64
	manifestFileNum uint64

	manifestFile vfs.File
	manifestLog  *record.LogWriter

	compactPointer [numLevels]base.InternalKey
}

func newVersionSet(dirname string, fs vfs.FS, opts *Options) *versionSet {
	vs := &versionSet{
		dirname: dirname,
		fs:      fs,
		opts:    opts,
		cmp:     opts.Comparer.Compare,
	}
	vs.dummyVersions.prev = &vs.dummyVersions
	vs.dummyVersions.next = &vs.dummyVersions
	vs.append(&version{})
	return vs
}

func (vs *versionSet) append(v *version) {
	v.refs = 1
	v.prev = vs.dummyVersions.prev
	v.next = &vs.dummyVersions
	vs.dummyVersions.prev.next = v
	vs.dummyVersions.prev = v
	vs.current = v
}

func (vs *versionSet) newFileNum() uint64 {
	vs.nextFileNum++
	return vs.nextFileNum
}

// logAndApply installs edit atop the current version, writes it to the
// MANIFEST, and (only on the very first call) creates the MANIFEST file
// and CURRENT pointer.
//
// d is the owning DB with its mutex held, or nil during single-threaded
// Open-time recovery before any mutex discipline is needed. When d is
// non-nil, d.mu is released across the synchronous MANIFEST write and
// sync so a flush or compaction doesn't hold up every foreground read
// and write for the duration of the disk I/O; vs.mu serializes the
// handful of goroutines (flush, compaction) that can reach this point
// concurrently so their MANIFEST records aren't interleaved.
func (vs *versionSet) logAndApply(d *DB, edit *versionEdit) error {
	if edit.hasLogNumber {
		vs.logNumber = edit.logNumber
	}
	if edit.hasPrevLogNumber {
		vs.prevLogNumber = edit.prevLogNumber
	}
	if edit.hasNextFileNumber && edit.nextFileNumber > vs.nextFileNum {
		vs.nextFileNum = edit.nextFileNumber
	}
	if edit.hasLastSequence {
		vs.lastSequence = edit.lastSequence
	}

	v := vs.buildVersion(edit)
	v.finalize(vs.opts)

	createdManifest := false
	if vs.manifestLog == nil {
		if err := vs.createManifest(); err != nil {
			return err
		}
		createdManifest = true
	}

	edit.setLastSequence(vs.lastSequence)
	edit.setNextFileNumber(vs.nextFileNum)
	data := edit.encode()

	vs.mu.Lock()
	if d != nil {
		d.mu.Unlock()
	}
	err := vs.manifestLog.AddRecord(data)
	if err == nil {
		err = vs.manifestFile.Sync()
	}
	if d != nil {
		d.mu.Lock()
	}
	vs.mu.Unlock()

	if err != nil {
		if createdManifest {
			vs.manifestFile.Close()
			vs.manifestFile = nil
			vs.manifestLog = nil
			vs.fs.Remove(dbFilename(vs.dirname, fileTypeManifest, vs.manifestFileNum))
		}
		return err
	}
	if createdManifest {
		if err := setCurrentFile(vs.fs, vs.dirname, vs.manifestFileNum); err != nil {
			return err
		}
	}

	vs.append(v)
	return nil
}

// buildVersion applies edit's deleted/added files atop vs.current,
// producing a new, independent file list per level.
func (vs *versionSet) buildVersion(edit *versionEdit) *version {
	v := &version{}
	deleted := make(map[uint64]bool, len(edit.deletedFiles))
	for _, df := range edit.deletedFiles {
		deleted[df.fileNum] = true
	}
	for level := 0; level < numLevels; level++ {
		for _, f := range vs.current.files[level] {
			if !deleted[f.fileNum] {
				v.files[level] = append(v.files[level], f)
			}
		}
	}
	for _, nf := range edit.newFiles {
		v.files[nf.level] = append(v.files[nf.level], nf.meta)
	}
	for level := 1; level < numLevels; level++ {
		slices.SortFunc(v.files[level], func(a, b *fileMetadata) bool {
			return vs.cmp(a.smallest.UserKey, b.smallest.UserKey) < 0
		})
	}
	return v
}

func (vs *versionSet) createManifest() error {
	vs.manifestFileNum = vs.newFileNum()
	f, err := vs.fs.Create(dbFilename(vs.dirname, fileTypeManifest, vs.manifestFileNum))
	if err != nil {
		return err
	}
	vs.manifestFile = f
	vs.manifestLog = record.NewLogWriter(f)

	snapshot := &versionEdit{}
	snapshot.setComparatorName(vs.opts.Comparer.Name)
	snapshot.setLogNumber(vs.logNumber)
	snapshot.setPrevLogNumber(vs.prevLogNumber)
	snapshot.setNextFileNumber(vs.nextFileNum)
	snapshot.setLastSequence(vs.lastSequence)
	for level := 0; level < numLevels; level++ {
		for _, mf := range vs.current.files[level] {
			snapshot.addFile(level, mf)
		}
	}
	return vs.manifestLog.AddRecord(snapshot.encode())
}

func setCurrentFile(fs vfs.FS, dirname string, manifestFileNum uint64) error {
	tmp := dbFilename(dirname, fileTypeTemp, manifestFileNum)
	f, err := fs.Create(tmp)
	if err != nil {
		return err
	}
	basename := filepath.Base(dbFilename(dirname, fileTypeManifest, manifestFileNum))
	if _, err := f.Write([]byte(basename + "\n")); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return fs.Rename(tmp, dbFilename(dirname, fileTypeCurrent, 0))
}

func (vs *versionSet) close() error {
	if vs.manifestLog != nil {
		return vs.manifestFile.Close()
	}
	return nil
}
