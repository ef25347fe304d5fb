// Copyright 2017 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package arenaskl

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocateBumpsWithinBlock(t *testing.T) {
	a := NewArena(0)
	b1, err := a.Allocate(16)
	require.NoError(t, err)
	b2, err := a.Allocate(16)
	require.NoError(t, err)
	require.Len(t, b1, 16)
	require.Len(t, b2, 16)
	require.Equal(t, int64(blockSize)+int64(unsafe.Sizeof([]byte(nil))), a.Size())
}

func TestArenaAllocateOversizedGetsDedicatedBlock(t *testing.T) {
	a := NewArena(0)
	big, err := a.Allocate(blockSize * 2)
	require.NoError(t, err)
	require.Len(t, big, blockSize*2)
}

func TestArenaAllocateRespectsBudget(t *testing.T) {
	a := NewArena(blockSize)
	_, err := a.Allocate(blockSize / 2)
	require.NoError(t, err)
	_, err = a.Allocate(blockSize)
	require.ErrorIs(t, err, ErrArenaFull)
}

func TestArenaAllocateAlignedIsPointerAligned(t *testing.T) {
	a := NewArena(0)
	_, err := a.Allocate(3)
	require.NoError(t, err)
	b, err := a.AllocateAligned(8)
	require.NoError(t, err)
	require.Len(t, b, 8)
	require.Zero(t, uintptr(unsafe.Pointer(&b[0]))%uintptr(ptrAlign))
}
