// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupKeyUserKeyRoundTrips(t *testing.T) {
	lk := MakeLookupKey([]byte("hello"), 7)
	require.Equal(t, []byte("hello"), lk.UserKey())
}

func TestLookupKeyEncodedEndsWithMaxKindTrailer(t *testing.T) {
	lk := MakeLookupKey([]byte("k"), 123)
	enc := lk.Encoded()
	trailer := InternalKeyTrailer(0)
	for i := 0; i < 8; i++ {
		trailer |= InternalKeyTrailer(enc[len(enc)-8+i]) << (8 * i)
	}
	require.Equal(t, uint64(123), trailer.seqNum())
	require.Equal(t, InternalKeyKindMax, trailer.kind())
}

func TestLookupKeyLongUserKeySpillsToHeap(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = byte(i)
	}
	lk := MakeLookupKey(long, 1)
	require.Equal(t, long, lk.UserKey())
}
