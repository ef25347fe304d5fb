// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"bytes"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// MemFS is an in-memory FS for deterministic tests; no file ever touches
// disk, so tests run the same on any machine.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memNode
	locks map[string]bool
}

type memNode struct {
	mu   sync.Mutex
	data []byte
}

// NewMem creates an empty in-memory filesystem.
func NewMem() *MemFS {
	return &MemFS{files: make(map[string]*memNode), locks: make(map[string]bool)}
}

func (fs *MemFS) Create(name string) (File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := &memNode{}
	fs.files[name] = n
	return &memFile{node: n}, nil
}

func (fs *MemFS) Open(name string) (File, error) {
	fs.mu.Lock()
	n, ok := fs.files[name]
	fs.mu.Unlock()
	if !ok {
		return nil, os.ErrNotExist
	}
	return &memFile{node: n}, nil
}

func (fs *MemFS) OpenDir(name string) (File, error) { return fs.Open(name) }

func (fs *MemFS) Remove(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[name]; !ok {
		return os.ErrNotExist
	}
	delete(fs.files, name)
	return nil
}

func (fs *MemFS) Rename(oldname, newname string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, ok := fs.files[oldname]
	if !ok {
		return os.ErrNotExist
	}
	fs.files[newname] = n
	delete(fs.files, oldname)
	return nil
}

func (fs *MemFS) MkdirAll(dir string, perm os.FileMode) error { return nil }

func (fs *MemFS) List(dir string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var names []string
	prefix := dir
	if len(prefix) > 0 && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	for name := range fs.files {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			rel := name[len(prefix):]
			if !bytes.ContainsRune([]byte(rel), '/') {
				names = append(names, rel)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (fs *MemFS) Stat(name string) (os.FileInfo, error) {
	fs.mu.Lock()
	n, ok := fs.files[name]
	fs.mu.Unlock()
	if !ok {
		return nil, os.ErrNotExist
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return memFileInfo{name: name, size: int64(len(n.data))}, nil
}

func (fs *MemFS) Lock(name string) (io.Closer, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.locks[name] {
		return nil, errors.Newf("riftdb: lock %q already held", name)
	}
	fs.locks[name] = true
	return &memLock{fs: fs, name: name}, nil
}

type memLock struct {
	fs   *MemFS
	name string
}

func (l *memLock) Close() error {
	l.fs.mu.Lock()
	defer l.fs.mu.Unlock()
	delete(l.fs.locks, l.name)
	return nil
}

type memFile struct {
	node *memNode
	pos  int64
}

func (f *memFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	if off >= int64(len(f.node.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.node.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	f.node.data = append(f.node.data, p...)
	return len(p), nil
}

func (f *memFile) Close() error { return nil }

func (f *memFile) Sync() error { return nil }

func (f *memFile) Stat() (os.FileInfo, error) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	return memFileInfo{size: int64(len(f.node.data))}, nil
}

func (f *memFile) Size() (int64, error) {
	f.node.mu.Lock()
	defer f.node.mu.Unlock()
	return int64(len(f.node.data)), nil
}

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() os.FileMode  { return 0644 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() interface{}   { return nil }
