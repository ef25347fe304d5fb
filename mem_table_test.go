// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/internal/base"
)

func newTestMemTable(t *testing.T) *memTable {
	t.Helper()
	o := &Options{}
	o.EnsureDefaults()
	return newMemTable(o)
}

func TestMemTableAddAndGet(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("1")))
	require.NoError(t, m.add(2, InternalKeyKindSet, []byte("b"), []byte("2")))

	lk := base.MakeLookupKey([]byte("a"), base.SeqNumMax)
	v, found, foundInTable := m.get(&lk)
	require.True(t, foundInTable)
	require.True(t, found)
	require.Equal(t, "1", string(v))
}

func TestMemTableGetMissingKey(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("1")))

	lk := base.MakeLookupKey([]byte("zzz"), base.SeqNumMax)
	_, found, foundInTable := m.get(&lk)
	require.False(t, found)
	require.False(t, foundInTable)
}

func TestMemTableDeleteIsTombstone(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("1")))
	require.NoError(t, m.add(2, InternalKeyKindDelete, []byte("a"), nil))

	lk := base.MakeLookupKey([]byte("a"), base.SeqNumMax)
	_, found, foundInTable := m.get(&lk)
	require.True(t, foundInTable)
	require.False(t, found)
}

func TestMemTableApplyBatchStampsConsecutiveSeqNums(t *testing.T) {
	m := newTestMemTable(t)
	b := NewBatch(nil)
	require.NoError(t, b.Set([]byte("a"), []byte("1")))
	require.NoError(t, b.Set([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("c")))

	require.NoError(t, m.applyBatch(b, 10))

	lkA := base.MakeLookupKey([]byte("a"), base.SeqNumMax)
	va, foundA, _ := m.get(&lkA)
	require.True(t, foundA)
	require.Equal(t, "1", string(va))

	lkC := base.MakeLookupKey([]byte("c"), base.SeqNumMax)
	_, foundC, foundInTableC := m.get(&lkC)
	require.False(t, foundC)
	require.True(t, foundInTableC)

	it := m.newIter()
	it.First()
	for _, want := range []uint64{10, 11, 12} {
		require.True(t, it.Valid())
		require.Equal(t, want, it.Key().SeqNum())
		it.Next()
	}
}

func TestMemTableApproximateMemoryUsageGrows(t *testing.T) {
	m := newTestMemTable(t)
	before := m.approximateMemoryUsage()
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("a"), []byte("payload-bytes")))
	require.Greater(t, m.approximateMemoryUsage(), before)
}

func TestMemTableRefUnref(t *testing.T) {
	m := newTestMemTable(t)
	m.ref()
	require.False(t, m.unref())
	require.True(t, m.unref())
}

func TestMemTableIteratorOrdersEntries(t *testing.T) {
	m := newTestMemTable(t)
	require.NoError(t, m.add(1, InternalKeyKindSet, []byte("b"), []byte("2")))
	require.NoError(t, m.add(2, InternalKeyKindSet, []byte("a"), []byte("1")))
	require.NoError(t, m.add(3, InternalKeyKindSet, []byte("c"), []byte("3")))

	it := m.newIter()
	it.First()
	require.True(t, it.Valid())
	require.Equal(t, "a", string(it.Key().UserKey))
	it.Next()
	require.Equal(t, "b", string(it.Key().UserKey))
	it.Next()
	require.Equal(t, "c", string(it.Key().UserKey))
	it.Next()
	require.False(t, it.Valid())
}
