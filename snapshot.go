// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import "sync"

// Snapshot is a read-only, point-in-time view of the database as of the
// sequence number current when NewSnapshot was called. Reads through a
// Snapshot never observe writes committed afterward; compaction
// preserves any entry with a sequence number a live Snapshot might still
// need.
type Snapshot struct {
	db     *DB
	seqNum uint64

	mu         *sync.Mutex
	prev, next *Snapshot
}

// SeqNum returns the sequence number this snapshot pins.
func (s *Snapshot) SeqNum() uint64 { return s.seqNum }

// Close releases the snapshot, allowing compaction to discard any entries
// it alone was keeping alive.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prev == nil {
		return nil // already closed, or never linked
	}
	s.prev.next = s.next
	s.next.prev = s.prev
	s.prev, s.next = nil, nil
	return nil
}

// snapshotList is a circular doubly linked sentinel list of live snapshots,
// ordered by sequence number ascending from the sentinel's next pointer.
type snapshotList struct {
	mu       sync.Mutex
	sentinel Snapshot
}

func (l *snapshotList) init() {
	l.sentinel.prev = &l.sentinel
	l.sentinel.next = &l.sentinel
	l.sentinel.mu = &l.mu
}

func (l *snapshotList) pushBack(db *DB, seqNum uint64) *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &Snapshot{db: db, seqNum: seqNum, mu: &l.mu}
	last := l.sentinel.prev
	for last != &l.sentinel && last.seqNum > seqNum {
		last = last.prev
	}
	s.prev, s.next = last, last.next
	last.next.prev = s
	last.next = s
	return s
}

// empty reports whether any snapshot is live.
func (l *snapshotList) empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sentinel.next == &l.sentinel
}

// oldest returns the smallest sequence number pinned by a live snapshot,
// or seqNum if none are live — the floor below which compaction may drop
// superseded entries and tombstones.
func (l *snapshotList) oldest(seqNum uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sentinel.next == &l.sentinel {
		return seqNum
	}
	return l.sentinel.next.seqNum
}
