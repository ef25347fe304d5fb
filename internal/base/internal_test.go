// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternalKeyEncodeDecode(t *testing.T) {
	k := MakeInternalKey([]byte("foo"), 42, InternalKeyKindSet)
	buf := make([]byte, k.Size())
	k.Encode(buf)

	got := DecodeInternalKey(buf)
	require.Equal(t, []byte("foo"), got.UserKey)
	require.Equal(t, uint64(42), got.SeqNum())
	require.Equal(t, InternalKeyKindSet, got.Kind())
}

func TestInternalCompareOrdersNewerSeqNumFirst(t *testing.T) {
	a := MakeInternalKey([]byte("a"), 2, InternalKeyKindSet)
	b := MakeInternalKey([]byte("a"), 1, InternalKeyKindSet)
	require.Less(t, InternalCompare(DefaultComparer.Compare, a, b), 0)
	require.Greater(t, InternalCompare(DefaultComparer.Compare, b, a), 0)
}

func TestInternalCompareOrdersByUserKeyFirst(t *testing.T) {
	a := MakeInternalKey([]byte("a"), 1, InternalKeyKindSet)
	b := MakeInternalKey([]byte("b"), 100, InternalKeyKindSet)
	require.Less(t, InternalCompare(DefaultComparer.Compare, a, b), 0)
}

func TestDefaultSeparator(t *testing.T) {
	// Shared prefix "a"; a[1]='b'+1='c' < b[1]='d', so the separator shortens
	// to the incremented prefix rather than copying a verbatim.
	got := DefaultComparer.Separator(nil, []byte("abc"), []byte("adx"))
	require.Equal(t, []byte("ac"), got)

	// No separator shorter than a exists between a and b; a is returned as-is.
	got = DefaultComparer.Separator(nil, []byte("abc"), []byte(""))
	require.Equal(t, []byte("abc"), got)
}

func TestDefaultSuccessor(t *testing.T) {
	got := DefaultComparer.Successor(nil, []byte("abc"))
	require.Equal(t, []byte("abd"), got)

	got = DefaultComparer.Successor(nil, []byte{0xff, 0xff})
	require.Equal(t, []byte{0xff, 0xff}, got)
}

func TestCorruptionErrorfMarksSentinel(t *testing.T) {
	err := CorruptionErrorf("bad block at offset %d", 17)
	require.ErrorIs(t, err, ErrCorruption)
}
