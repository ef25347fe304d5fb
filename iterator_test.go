// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestIterator(t *testing.T, m *memTable, seqNum uint64) *Iterator {
	t.Helper()
	merge := newMergingIter(m.cmp, []internalIterator{m.newIter()})
	return &Iterator{merge: merge, cmp: m.cmp, seqNum: seqNum}
}

func TestIteratorSkipsEntriesAboveSnapshotSeqNum(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("old")))
	require.NoError(t, m.add(5, InternalKeyKindSet, []byte("a"), []byte("new")))

	it := newTestIterator(t, m, 1)
	it.First()
	require.True(t, it.Valid())
	require.Equal(t, "old", string(it.Value()))
}

func TestIteratorHidesTombstones(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("1")))
	require.NoError(t, m.add(2, InternalKeyKindDelete, []byte("a"), nil))
	require.NoError(t, m.add(3, InternalKeyKindSet, []byte("b"), []byte("2")))

	it := newTestIterator(t, m, 10)
	it.First()
	require.True(t, it.Valid())
	require.Equal(t, "b", string(it.Key()))
	it.Next()
	require.False(t, it.Valid())
}

func TestIteratorSeekGEAndNext(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("1")))
	require.NoError(t, m.add(2, InternalKeyKindSet, []byte("m"), []byte("2")))
	require.NoError(t, m.add(3, InternalKeyKindSet, []byte("z"), []byte("3")))

	it := newTestIterator(t, m, 10)
	it.SeekGE([]byte("b"))
	require.True(t, it.Valid())
	require.Equal(t, "m", string(it.Key()))

	it.Next()
	require.True(t, it.Valid())
	require.Equal(t, "z", string(it.Key()))

	it.Next()
	require.False(t, it.Valid())
}

func TestIteratorCloseInvokesRelease(t *testing.T) {
	m := newTestMemTable(t)
	it := newTestIterator(t, m, 10)
	released := false
	it.release = func() { released = true }

	require.NoError(t, it.Close())
	require.True(t, released)
}
