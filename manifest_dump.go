// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/riftdb/riftdb/internal/record"
	"github.com/riftdb/riftdb/vfs"
)

// DumpManifest decodes every VersionEdit record in dirname's current
// MANIFEST and writes one summary line per record to w, letting a shell
// pipeline grep/sort the output. It opens the
// MANIFEST read-only and never touches DB state, so it is safe to run
// against a live database directory.
func DumpManifest(fs vfs.FS, dirname string, w io.Writer) error {
	manifestName, err := readCurrentFile(fs, dirname)
	if err != nil {
		return err
	}
	f, err := fs.Open(filepath.Join(dirname, manifestName))
	if err != nil {
		return err
	}
	defer f.Close()

	rd := record.NewLogReader(f, nil)
	seq := 0
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		edit := &versionEdit{}
		if err := edit.decode(rec); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", formatVersionEdit(seq, edit))
		seq++
	}
}

func formatVersionEdit(seq int, e *versionEdit) string {
	s := fmt.Sprintf("edit#%d", seq)
	if e.hasComparator {
		s += fmt.Sprintf(" comparator=%s", e.comparatorName)
	}
	if e.hasLogNumber {
		s += fmt.Sprintf(" log_number=%d", e.logNumber)
	}
	if e.hasPrevLogNumber {
		s += fmt.Sprintf(" prev_log_number=%d", e.prevLogNumber)
	}
	if e.hasNextFileNumber {
		s += fmt.Sprintf(" next_file_number=%d", e.nextFileNumber)
	}
	if e.hasLastSequence {
		s += fmt.Sprintf(" last_sequence=%d", e.lastSequence)
	}
	for _, df := range e.deletedFiles {
		s += fmt.Sprintf(" deleted(level=%d file=%d)", df.level, df.fileNum)
	}
	for _, nf := range e.newFiles {
		s += fmt.Sprintf(" added(level=%d file=%d size=%d)", nf.level, nf.meta.fileNum, nf.meta.size)
	}
	return s
}
