// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/vfs"
)

func newTestVersionSet(t *testing.T) *versionSet {
	t.Helper()
	o := &Options{}
	o.EnsureDefaults()
	fs := vfs.NewMem()
	require.NoError(t, fs.MkdirAll("db", 0755))
	return newVersionSet("db", fs, o)
}

func TestVersionSetNewFileNumIsMonotonic(t *testing.T) {
	vs := newTestVersionSet(t)
	a := vs.newFileNum()
	b := vs.newFileNum()
	require.Equal(t, a+1, b)
}

func TestVersionSetLogAndApplyCreatesManifestAndCurrent(t *testing.T) {
	vs := newTestVersionSet(t)

	edit := &versionEdit{}
	edit.setLogNumber(1)
	num := vs.newFileNum()
	meta := fileMeta("a", "z", 100)
	meta.fileNum = num
	edit.addFile(0, meta)

	require.NoError(t, vs.logAndApply(nil, edit))
	require.Len(t, vs.current.files[0], 1)

	name, err := readCurrentFile(vs.fs, vs.dirname)
	require.NoError(t, err)
	require.NotEmpty(t, name)

	require.NoError(t, vs.close())
}

func TestVersionSetLogAndApplyAppliesDeletes(t *testing.T) {
	vs := newTestVersionSet(t)

	add := &versionEdit{}
	meta := fileMeta("a", "z", 100)
	meta.fileNum = vs.newFileNum()
	add.addFile(0, meta)
	require.NoError(t, vs.logAndApply(nil, add))
	require.Len(t, vs.current.files[0], 1)

	del := &versionEdit{}
	del.deleteFile(0, meta.fileNum)
	require.NoError(t, vs.logAndApply(nil, del))
	require.Len(t, vs.current.files[0], 0)

	require.NoError(t, vs.close())
}

func TestVersionSetBuildVersionSortsHigherLevels(t *testing.T) {
	vs := newTestVersionSet(t)

	edit := &versionEdit{}
	f1 := fileMeta("m", "z", 10)
	f1.fileNum = vs.newFileNum()
	f2 := fileMeta("a", "f", 10)
	f2.fileNum = vs.newFileNum()
	edit.addFile(1, f1)
	edit.addFile(1, f2)

	v := vs.buildVersion(edit)
	require.Len(t, v.files[1], 2)
	require.Equal(t, "a", string(v.files[1][0].smallest.UserKey))
	require.Equal(t, "m", string(v.files[1][1].smallest.UserKey))
}
