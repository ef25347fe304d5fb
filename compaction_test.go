// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/internal/base"
)

func TestRangeOfComputesSpanAcrossFiles(t *testing.T) {
	files := []*fileMetadata{fileMeta("m", "p", 10), fileMeta("a", "f", 10), fileMeta("x", "z", 10)}
	smallest, largest := rangeOf(base.DefaultComparer.Compare, files)
	require.Equal(t, "a", string(smallest))
	require.Equal(t, "z", string(largest))
}

func TestIsBaseLevelForKeyTrueWhenNoDeeperFileOverlaps(t *testing.T) {
	db := openTestDB(t)
	require.True(t, db.isBaseLevelForKey(1, []byte("k")))
}

func TestIsBaseLevelForKeyFalseWhenDeeperFileOverlaps(t *testing.T) {
	db := openTestDB(t)
	db.mu.Lock()
	v := db.mu.versions.current
	v.files[2] = []*fileMetadata{fileMeta("a", "z", 10)}
	db.mu.Unlock()

	require.False(t, db.isBaseLevelForKey(1, []byte("k")))
}

// TestCompactRangeDropsSupersededEntries writes distinct keys and flushes
// them to a table, overwrites one key, deletes another and flushes a second
// table, then forces a full compaction and checks the live view reflects
// only the newest, non-tombstoned versions.
func TestCompactRangeDropsSupersededEntries(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Set([]byte(fmt.Sprintf("key-%02d", i)), []byte("v1"), nil))
	}
	require.NoError(t, db.Flush())

	require.NoError(t, db.Set([]byte("key-02"), []byte("v2"), nil))
	require.NoError(t, db.Delete([]byte("key-03"), nil))
	require.NoError(t, db.Flush())

	require.NoError(t, db.CompactRange(nil, nil))

	v, err := db.Get([]byte("key-02"), nil)
	require.NoError(t, err)
	require.Equal(t, "v2", string(v))

	_, err = db.Get([]byte("key-03"), nil)
	require.ErrorIs(t, err, ErrNotFound)

	v, err = db.Get([]byte("key-00"), nil)
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))
}
