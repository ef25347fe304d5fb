// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package record

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	bytes.Buffer
}

func (*syncBuffer) Sync() error { return nil }

func TestLogWriterReaderRoundTrip(t *testing.T) {
	var buf syncBuffer
	w := NewLogWriter(&buf)

	records := [][]byte{
		[]byte("first"),
		[]byte(""),
		[]byte("a longer record with more bytes in it"),
	}
	for _, r := range records {
		require.NoError(t, w.AddRecord(r))
	}
	require.NoError(t, w.Sync())

	r := NewLogReader(bytes.NewReader(buf.Bytes()), nil)
	for _, want := range records {
		got, err := r.Next()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestLogWriterFragmentsAcrossBlocks(t *testing.T) {
	var buf syncBuffer
	w := NewLogWriter(&buf)

	big := bytes.Repeat([]byte("x"), BlockSize*3+17)
	require.NoError(t, w.AddRecord(big))

	r := NewLogReader(bytes.NewReader(buf.Bytes()), nil)
	got, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, big, got)
}

type collectingReporter struct {
	reasons []error
}

func (c *collectingReporter) Corruption(n int, reason error) {
	c.reasons = append(c.reasons, reason)
}

func TestLogReaderReportsChecksumMismatch(t *testing.T) {
	var buf syncBuffer
	w := NewLogWriter(&buf)
	require.NoError(t, w.AddRecord([]byte("hello")))
	require.NoError(t, w.AddRecord([]byte("world")))

	corrupt := buf.Bytes()
	corrupt[len(corrupt)-1] ^= 0xff // flip a payload byte of the second record

	reporter := &collectingReporter{}
	r := NewLogReader(bytes.NewReader(corrupt), reporter)

	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
	require.NotEmpty(t, reporter.reasons)
}

func TestLogWriterManyRecords(t *testing.T) {
	var buf syncBuffer
	w := NewLogWriter(&buf)
	const n = 1000
	for i := 0; i < n; i++ {
		require.NoError(t, w.AddRecord([]byte(fmt.Sprintf("record-%d", i))))
	}
	r := NewLogReader(bytes.NewReader(buf.Bytes()), nil)
	for i := 0; i < n; i++ {
		got, err := r.Next()
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("record-%d", i), string(got))
	}
}
