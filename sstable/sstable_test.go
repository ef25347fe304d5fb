// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/vfs"
)

func buildTable(t *testing.T, opts WriterOptions, n int) vfs.File {
	t.Helper()
	fs := vfs.NewMem()
	f, err := fs.Create("table")
	require.NoError(t, err)

	w := NewWriter(f, opts)
	for i := 0; i < n; i++ {
		k := base.MakeInternalKey([]byte(fmt.Sprintf("key-%04d", i)), uint64(i+1), base.InternalKeyKindSet)
		require.NoError(t, w.Add(k, []byte(fmt.Sprintf("value-%d", i))))
	}
	require.NoError(t, w.Finish())

	rf, err := fs.Open("table")
	require.NoError(t, err)
	return rf
}

func TestWriterReaderIterateInOrder(t *testing.T) {
	f := buildTable(t, WriterOptions{BlockSize: 256}, 200)
	r, err := Open(f, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	it, err := r.NewIter()
	require.NoError(t, err)

	n := 0
	var prev base.InternalKey
	for it.First(); it.Valid(); it.Next() {
		k := it.Key()
		if n > 0 {
			require.Less(t, base.InternalCompare(base.DefaultComparer.Compare, prev, k), 0)
		}
		prev = k.Clone()
		n++
	}
	require.NoError(t, it.Error())
	require.Equal(t, 200, n)
}

func TestReaderInternalGetFindsEveryKey(t *testing.T) {
	f := buildTable(t, WriterOptions{BlockSize: 256}, 50)
	r, err := Open(f, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 50; i++ {
		ikey := base.MakeInternalKey([]byte(fmt.Sprintf("key-%04d", i)), uint64(i+1), base.InternalKeyKindMax)
		var gotValue []byte
		found, err := r.InternalGet(ikey, func(k base.InternalKey, v []byte) error {
			gotValue = append([]byte(nil), v...)
			return nil
		})
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, fmt.Sprintf("value-%d", i), string(gotValue))
	}
}

func TestReaderInternalGetMissingKey(t *testing.T) {
	f := buildTable(t, WriterOptions{}, 10)
	r, err := Open(f, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	ikey := base.MakeInternalKey([]byte("zzz-not-present"), base.SeqNumMax, base.InternalKeyKindMax)
	found, err := r.InternalGet(ikey, func(base.InternalKey, []byte) error { return nil })
	require.NoError(t, err)
	require.False(t, found)
}

func TestSeekGELandsOnFirstKeyAtOrAfter(t *testing.T) {
	f := buildTable(t, WriterOptions{BlockSize: 256}, 100)
	r, err := Open(f, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	it, err := r.NewIter()
	require.NoError(t, err)

	target := base.MakeInternalKey([]byte("key-0050"), base.SeqNumMax, base.InternalKeyKindMax)
	buf := make([]byte, target.Size())
	target.Encode(buf)
	it.SeekGE(buf)
	require.True(t, it.Valid())
	require.Equal(t, "key-0050", string(it.Key().UserKey))
}
