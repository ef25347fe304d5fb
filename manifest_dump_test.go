// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/vfs"
)

// TestDumpManifestGrowsOneLinePerEdit flushes twice and uses go-difflib's
// unified diff to show the second MANIFEST dump is the first one plus
// exactly one trailing "edit#" line, the same way a human would inspect a
// MANIFEST change between two snapshots.
func TestDumpManifestGrowsOneLinePerEdit(t *testing.T) {
	fs := vfs.NewMem()
	db, err := Open("db", &Options{FS: fs, CreateIfMissing: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Set([]byte("a"), []byte("1"), nil))
	require.NoError(t, db.Flush())

	var before bytes.Buffer
	require.NoError(t, DumpManifest(fs, "db", &before))

	require.NoError(t, db.Set([]byte("b"), []byte("2"), nil))
	require.NoError(t, db.Flush())

	var after bytes.Buffer
	require.NoError(t, DumpManifest(fs, "db", &after))

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.String()),
		B:        difflib.SplitLines(after.String()),
		FromFile: "before",
		ToFile:   "after",
		Context:  0,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	require.Contains(t, text, "+edit#")

	addedLines := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "+edit#") {
			addedLines++
		}
	}
	require.Equal(t, 1, addedLines, fmt.Sprintf("expected exactly one new edit line, diff:\n%s", text))
}
