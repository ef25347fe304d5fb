// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"fmt"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

// TestMetricsDiffAfterFlush uses kr/pretty's structural diff (rather than a
// field-by-field comparison) to show that Flush changes the metrics; on an
// empty DB the flushed table is placed on level 2 by
// pickLevelForMemTableOutput, so that level's file count goes from 0 to 1.
func TestMetricsDiffAfterFlush(t *testing.T) {
	db := openTestDB(t)
	before := db.Metrics()

	for i := 0; i < 10; i++ {
		require.NoError(t, db.Set([]byte(fmt.Sprintf("key-%02d", i)), []byte("v"), nil))
	}
	require.NoError(t, db.Flush())
	after := db.Metrics()

	diff := pretty.Diff(before, after)
	require.NotEmpty(t, diff, "flush should change at least one metrics field")

	require.Equal(t, 0, before.Levels[2].NumFiles)
	require.Equal(t, 1, after.Levels[2].NumFiles)
}
