// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchSetDeleteForEach(t *testing.T) {
	b := NewBatch(nil)
	require.NoError(t, b.Set([]byte("a"), []byte("1")))
	require.NoError(t, b.Delete([]byte("b")))
	require.NoError(t, b.Set([]byte("c"), []byte("3")))
	require.EqualValues(t, 3, b.Count())

	type rec struct {
		kind       InternalKeyKind
		key, value string
	}
	var got []rec
	require.NoError(t, b.forEach(func(kind InternalKeyKind, key, value []byte) error {
		got = append(got, rec{kind, string(key), string(value)})
		return nil
	}))

	require.Equal(t, []rec{
		{InternalKeyKindSet, "a", "1"},
		{InternalKeyKindDelete, "b", ""},
		{InternalKeyKindSet, "c", "3"},
	}, got)
}

func TestBatchEncodeLoadRoundTrip(t *testing.T) {
	b := NewBatch(nil)
	require.NoError(t, b.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, b.Set([]byte("k2"), []byte("v2")))
	b.setSeqNum(42)

	encoded := append([]byte(nil), b.encoded()...)

	loaded := NewBatch(nil)
	require.NoError(t, loaded.load(encoded))
	require.EqualValues(t, 2, loaded.Count())
	require.Equal(t, uint64(42), loaded.seqNum())

	var keys []string
	require.NoError(t, loaded.forEach(func(kind InternalKeyKind, key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	require.Equal(t, []string{"k1", "k2"}, keys)
}

func TestBatchResetClearsRecords(t *testing.T) {
	b := NewBatch(nil)
	require.NoError(t, b.Set([]byte("a"), []byte("1")))
	b.Reset()
	require.EqualValues(t, 0, b.Count())

	n := 0
	require.NoError(t, b.forEach(func(InternalKeyKind, []byte, []byte) error {
		n++
		return nil
	}))
	require.Equal(t, 0, n)
}

func TestBatchLoadRejectsShortData(t *testing.T) {
	b := NewBatch(nil)
	err := b.load([]byte{1, 2, 3})
	require.Error(t, err)
}
