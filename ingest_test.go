// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/sstable"
)

func TestIngestSortAndVerifyRejectsOverlap(t *testing.T) {
	metas := []*fileMetadata{fileMeta("m", "z", 10), fileMeta("a", "n", 10)}
	err := ingestSortAndVerify(base.DefaultComparer.Compare, metas)
	require.Error(t, err)
}

func TestIngestSortAndVerifySortsDisjointFiles(t *testing.T) {
	metas := []*fileMetadata{fileMeta("m", "z", 10), fileMeta("a", "f", 10)}
	require.NoError(t, ingestSortAndVerify(base.DefaultComparer.Compare, metas))
	require.Equal(t, "a", string(metas[0].smallest.UserKey))
	require.Equal(t, "m", string(metas[1].smallest.UserKey))
}

func writeIngestableTable(t *testing.T, db *DB, path string) {
	t.Helper()
	f, err := db.opts.FS.Create(path)
	require.NoError(t, err)
	w := sstable.NewWriter(f, db.opts.writerOptions(0))
	for i, k := range []string{"ik1", "ik2", "ik3"} {
		require.NoError(t, w.Add(base.MakeInternalKey([]byte(k), uint64(i+1), base.InternalKeyKindSet), []byte("ival")))
	}
	require.NoError(t, w.Finish())
	require.NoError(t, f.Close())
}

func TestIngestExternalFilesLinksTableIntoVersion(t *testing.T) {
	db := openTestDB(t)
	writeIngestableTable(t, db, "external.sst")

	require.NoError(t, db.IngestExternalFiles([]string{"external.sst"}))

	v, err := db.Get([]byte("ik2"), nil)
	require.NoError(t, err)
	require.Equal(t, "ival", string(v))
}

func TestIngestExternalFilesNoopOnEmptyList(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.IngestExternalFiles(nil))
}
