// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotListOldestWithNoSnapshots(t *testing.T) {
	var l snapshotList
	l.init()
	require.True(t, l.empty())
	require.Equal(t, uint64(100), l.oldest(100))
}

func TestSnapshotListOldestTracksSmallestSeqNum(t *testing.T) {
	var l snapshotList
	l.init()

	l.pushBack(nil, 30)
	l.pushBack(nil, 10)
	l.pushBack(nil, 20)

	require.False(t, l.empty())
	require.Equal(t, uint64(10), l.oldest(100))
}

func TestSnapshotCloseUnlinksFromList(t *testing.T) {
	var l snapshotList
	l.init()

	s1 := l.pushBack(nil, 10)
	s2 := l.pushBack(nil, 20)

	require.Equal(t, uint64(10), l.oldest(100))
	require.NoError(t, s1.Close())
	require.Equal(t, uint64(20), l.oldest(100))

	require.NoError(t, s2.Close())
	require.True(t, l.empty())
}

func TestSnapshotCloseIsIdempotent(t *testing.T) {
	var l snapshotList
	l.init()

	s := l.pushBack(nil, 10)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSnapshotSeqNum(t *testing.T) {
	var l snapshotList
	l.init()
	s := l.pushBack(nil, 42)
	require.Equal(t, uint64(42), s.SeqNum())
}
