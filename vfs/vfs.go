// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package vfs is the platform I/O layer: sequential/random-access/
// appendable file abstractions, directory locking, and listing. The DB
// core only ever depends on the FS capability contract defined here,
// never on the os package directly, so the default platform
// environment is an ordinary injectable dependency rather than a
// hard-wired global.
package vfs

import (
	"io"
	"os"
)

// File is the capability contract for an open file: readable, writable,
// seekable-by-offset, syncable, and sizeable.
type File interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Closer
	Sync() error
	Stat() (os.FileInfo, error)
	Size() (int64, error)
}

// FS is the platform filesystem capability contract.
type FS interface {
	Create(name string) (File, error)
	Open(name string) (File, error)
	OpenDir(name string) (File, error)
	Remove(name string) error
	Rename(oldname, newname string) error
	MkdirAll(dir string, perm os.FileMode) error
	List(dir string) ([]string, error)
	Stat(name string) (os.FileInfo, error)
	// Lock acquires an exclusive lock on name for the lifetime of the
	// returned io.Closer.
	Lock(name string) (io.Closer, error)
}

// Default is the disk-backed FS, supplied as an ordinary injectable
// value rather than a package-level singleton.
var Default FS = diskFS{}
