// Copyright 2017 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package arenaskl implements the memtable's backing store: a
// bump-allocated arena and a lock-free-for-readers skip list over
// arena-allocated entries.
package arenaskl

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// blockSize is the default arena block size.
const blockSize = 4096

// ErrArenaFull is returned when an allocation does not fit in the arena's
// remaining budget. The caller (DB.makeRoomForWrite) treats this as a signal
// to rotate the memtable.
var ErrArenaFull = errors.New("riftdb: arena full")

const ptrAlign = int(unsafe.Sizeof(uintptr(0)))

// Arena is a bump allocator composed of a sequence of owned byte blocks.
// Allocations never move and are never individually freed; the whole arena
// is reclaimed when its memtable is discarded. Safe for one concurrent
// allocator and any number of concurrent Size() readers.
type Arena struct {
	budget int64 // total bytes this arena may grow to; <=0 means unbounded

	cur   []byte // current block
	off   int    // next free offset in cur
	blocks [][]byte

	size int64 // atomic: bytes allocated across all blocks (incl. overhead)
}

// NewArena creates an arena. budget bounds the total bytes the arena may
// allocate (0 means unbounded, used by tests); the memtable's arena is
// budgeted from the configured write buffer size.
func NewArena(budget int64) *Arena {
	return &Arena{budget: budget}
}

// Size returns the total bytes allocated so far, including block overhead.
// Safe to call concurrently with Allocate.
func (a *Arena) Size() int64 {
	return atomic.LoadInt64(&a.size)
}

// Allocate reserves n bytes and returns a slice over them: bump within
// the current block, a dedicated block for large (> blockSize/4)
// requests, or a fresh default block (discarding the old remainder).
func (a *Arena) Allocate(n int) ([]byte, error) {
	if a.budget > 0 && a.Size()+int64(n) > a.budget {
		return nil, ErrArenaFull
	}
	if n > len(a.cur)-a.off {
		if n > blockSize/4 {
			// Dedicated block sized exactly to the request; the current
			// block stays current so its remainder is not wasted.
			b := make([]byte, n)
			a.blocks = append(a.blocks, b)
			atomic.AddInt64(&a.size, int64(n)+int64(unsafe.Sizeof(b)))
			return b, nil
		}
		a.refill()
	}
	b := a.cur[a.off : a.off+n : a.off+n]
	a.off += n
	return b, nil
}

// AllocateAligned is like Allocate but rounds the cursor up to pointer
// alignment first, so the returned slice's address is pointer-aligned.
func (a *Arena) AllocateAligned(n int) ([]byte, error) {
	if a.cur != nil {
		base := uintptr(unsafe.Pointer(&a.cur[0]))
		cur := base + uintptr(a.off)
		aligned := (cur + uintptr(ptrAlign-1)) &^ uintptr(ptrAlign-1)
		pad := int(aligned - cur)
		if pad > 0 && pad <= len(a.cur)-a.off-n {
			a.off += pad
		}
	}
	return a.Allocate(n)
}

// refill replaces the current block with a fresh default-size block.
func (a *Arena) refill() {
	a.cur = make([]byte, blockSize)
	a.off = 0
	a.blocks = append(a.blocks, a.cur)
	atomic.AddInt64(&a.size, int64(blockSize)+int64(unsafe.Sizeof(a.cur)))
}
