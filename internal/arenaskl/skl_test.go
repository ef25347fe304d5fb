// Copyright 2017 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package arenaskl

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkiplistInsertAndSeek(t *testing.T) {
	s := NewSkiplist(bytes.Compare, 1)
	keys := []string{"c", "a", "e", "b", "d"}
	for _, k := range keys {
		s.Insert([]byte(k))
	}

	it := s.NewIterator()
	it.SeekToFirst()
	var got []string
	for ; it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestSkiplistSeekGE(t *testing.T) {
	s := NewSkiplist(bytes.Compare, 2)
	for _, k := range []string{"a", "c", "e"} {
		s.Insert([]byte(k))
	}

	it := s.NewIterator()
	it.SeekGE([]byte("b"))
	require.True(t, it.Valid())
	require.Equal(t, "c", string(it.Key()))

	it.SeekGE([]byte("f"))
	require.False(t, it.Valid())
}

func TestSkiplistContains(t *testing.T) {
	s := NewSkiplist(bytes.Compare, 3)
	s.Insert([]byte("present"))
	require.True(t, s.Contains([]byte("present")))
	require.False(t, s.Contains([]byte("absent")))
}

func TestSkiplistSeekToLast(t *testing.T) {
	s := NewSkiplist(bytes.Compare, 4)
	for i := 0; i < 100; i++ {
		s.Insert([]byte(fmt.Sprintf("key-%03d", i)))
	}
	it := s.NewIterator()
	it.SeekToLast()
	require.True(t, it.Valid())
	require.Equal(t, "key-099", string(it.Key()))
}

func TestSkiplistPrev(t *testing.T) {
	s := NewSkiplist(bytes.Compare, 5)
	for _, k := range []string{"a", "b", "c"} {
		s.Insert([]byte(k))
	}
	it := s.NewIterator()
	it.SeekGE([]byte("c"))
	require.Equal(t, "c", string(it.Key()))
	it.Prev()
	require.True(t, it.Valid())
	require.Equal(t, "b", string(it.Key()))
	it.Prev()
	require.Equal(t, "a", string(it.Key()))
	it.Prev()
	require.False(t, it.Valid())
}
