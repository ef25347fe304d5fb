// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"fmt"
	"path/filepath"
	"strings"
)

// fileType enumerates the files under a DB directory.
type fileType int

const (
	fileTypeLog fileType = iota
	fileTypeLock
	fileTypeTable
	fileTypeManifest
	fileTypeCurrent
	fileTypeTemp
)

const currentFilename = "CURRENT"
const lockFilename = "LOCK"

func dbFilename(dirname string, t fileType, fileNum uint64) string {
	switch t {
	case fileTypeCurrent:
		return filepath.Join(dirname, currentFilename)
	case fileTypeLock:
		return filepath.Join(dirname, lockFilename)
	case fileTypeLog:
		return filepath.Join(dirname, fmt.Sprintf("%06d.log", fileNum))
	case fileTypeTable:
		return filepath.Join(dirname, fmt.Sprintf("%06d.ldb", fileNum))
	case fileTypeManifest:
		return filepath.Join(dirname, fmt.Sprintf("MANIFEST-%06d", fileNum))
	case fileTypeTemp:
		return filepath.Join(dirname, fmt.Sprintf("%06d.dbtmp", fileNum))
	}
	panic("riftdb: unknown file type")
}

// parseDBFilename recognizes a basename produced by dbFilename, also
// accepting the legacy ".sst" table suffix.
func parseDBFilename(basename string) (t fileType, fileNum uint64, ok bool) {
	switch {
	case basename == currentFilename:
		return fileTypeCurrent, 0, true
	case basename == lockFilename:
		return fileTypeLock, 0, true
	case strings.HasPrefix(basename, "MANIFEST-"):
		n, err := parseUint(basename[len("MANIFEST-"):])
		if err != nil {
			return 0, 0, false
		}
		return fileTypeManifest, n, true
	case strings.HasSuffix(basename, ".log"):
		n, err := parseUint(strings.TrimSuffix(basename, ".log"))
		if err != nil {
			return 0, 0, false
		}
		return fileTypeLog, n, true
	case strings.HasSuffix(basename, ".ldb"), strings.HasSuffix(basename, ".sst"):
		stem := strings.TrimSuffix(strings.TrimSuffix(basename, ".ldb"), ".sst")
		n, err := parseUint(stem)
		if err != nil {
			return 0, 0, false
		}
		return fileTypeTable, n, true
	}
	return 0, 0, false
}

func parseUint(s string) (uint64, error) {
	var n uint64
	if s == "" {
		return 0, fmt.Errorf("riftdb: empty file number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("riftdb: invalid file number %q", s)
		}
		n = n*10 + uint64(c-'0')
	}
	return n, nil
}
