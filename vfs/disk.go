// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

type diskFS struct{}

func (diskFS) Create(name string) (File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	// Buffer writes and flush explicitly before Sync, matching how
	// WritableFile implementations in this lineage avoid a syscall per
	// small append.
	return &diskFile{f: f, w: bufio.NewWriterSize(f, 64<<10)}, nil
}

func (diskFS) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &diskFile{f: f}, nil
}

func (diskFS) OpenDir(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &diskFile{f: f}, nil
}

func (diskFS) Remove(name string) error { return os.Remove(name) }

func (diskFS) Rename(oldname, newname string) error { return os.Rename(oldname, newname) }

func (diskFS) MkdirAll(dir string, perm os.FileMode) error { return os.MkdirAll(dir, perm) }

func (diskFS) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (diskFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Lock acquires an advisory exclusive lock on name for the life of the
// process, using flock(2) via golang.org/x/sys/unix. The lock is held
// until the returned Closer is closed, preventing a second process from
// opening the same DB directory concurrently.
func (diskFS) Lock(name string) (io.Closer, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return &lockedFile{f: f}, nil
}

type lockedFile struct{ f *os.File }

func (l *lockedFile) Close() error {
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}

// diskFile adapts *os.File to File, buffering writes (flushed on Sync,
// Read, or Close) since sequential WAL/table writes are append-only.
type diskFile struct {
	f *os.File
	w *bufio.Writer
}

func (d *diskFile) Read(p []byte) (int, error) {
	if err := d.flush(); err != nil {
		return 0, err
	}
	return d.f.Read(p)
}

func (d *diskFile) ReadAt(p []byte, off int64) (int, error) {
	if err := d.flush(); err != nil {
		return 0, err
	}
	return d.f.ReadAt(p, off)
}

func (d *diskFile) Write(p []byte) (int, error) {
	if d.w != nil {
		return d.w.Write(p)
	}
	return d.f.Write(p)
}

func (d *diskFile) flush() error {
	if d.w != nil {
		return d.w.Flush()
	}
	return nil
}

func (d *diskFile) Sync() error {
	if err := d.flush(); err != nil {
		return err
	}
	return d.f.Sync()
}

func (d *diskFile) Close() error {
	if err := d.flush(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

func (d *diskFile) Stat() (os.FileInfo, error) {
	if err := d.flush(); err != nil {
		return nil, err
	}
	return d.f.Stat()
}

func (d *diskFile) Size() (int64, error) {
	fi, err := d.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
