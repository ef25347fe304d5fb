// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/internal/base"
)

// buildEditFromLines interprets one "key value..." directive per line of
// input, datadriven-style: each line mutates the edit being built.
func buildEditFromLines(t *testing.T, input string) *versionEdit {
	e := &versionEdit{}
	for _, line := range strings.Split(strings.TrimSpace(input), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "comparator":
			e.setComparatorName(fields[1])
		case "log-number":
			n, err := strconv.ParseUint(fields[1], 10, 64)
			require.NoError(t, err)
			e.setLogNumber(n)
		case "next-file-number":
			n, err := strconv.ParseUint(fields[1], 10, 64)
			require.NoError(t, err)
			e.setNextFileNumber(n)
		case "last-sequence":
			n, err := strconv.ParseUint(fields[1], 10, 64)
			require.NoError(t, err)
			e.setLastSequence(n)
		case "delete-file":
			level, err := strconv.Atoi(fields[1])
			require.NoError(t, err)
			num, err := strconv.ParseUint(fields[2], 10, 64)
			require.NoError(t, err)
			e.deleteFile(level, num)
		case "add-file":
			level, err := strconv.Atoi(fields[1])
			require.NoError(t, err)
			num, err := strconv.ParseUint(fields[2], 10, 64)
			require.NoError(t, err)
			size, err := strconv.ParseUint(fields[3], 10, 64)
			require.NoError(t, err)
			meta := &fileMetadata{
				fileNum:  num,
				size:     size,
				smallest: base.MakeInternalKey([]byte(fields[4]), 1, base.InternalKeyKindSet),
				largest:  base.MakeInternalKey([]byte(fields[5]), 1, base.InternalKeyKindSet),
			}
			meta.initAllowedSeeks()
			e.addFile(level, meta)
		default:
			t.Fatalf("unknown directive %q", fields[0])
		}
	}
	return e
}

// TestVersionEditEncodeDecode drives version_edit's tagged codec through
// testdata/version_edit: each test case builds an edit from the input
// lines, encodes it, decodes the result back, and reports what the decoded
// edit looks like, proving encode/decode round-trip exactly.
func TestVersionEditEncodeDecode(t *testing.T) {
	datadriven.RunTest(t, "testdata/version_edit", func(d *datadriven.TestData) string {
		switch d.Cmd {
		case "roundtrip":
			e := buildEditFromLines(t, d.Input)
			encoded := e.encode()

			got := &versionEdit{}
			if err := got.decode(encoded); err != nil {
				return "error: " + err.Error()
			}
			return formatVersionEdit(0, got) + "\n"
		default:
			t.Fatalf("unknown command %q", d.Cmd)
			return ""
		}
	})
}

func TestVersionEditDecodeRejectsReservedTag(t *testing.T) {
	// Tag 8 is reserved and must never decode successfully: a strict
	// MANIFEST reader rejects unknown tags rather than skip them.
	raw := []byte{8, 0}
	e := &versionEdit{}
	err := e.decode(raw)
	require.Error(t, err)
	require.ErrorIs(t, err, base.ErrCorruption)
}

func TestVersionEditDecodeRejectsTruncatedTag(t *testing.T) {
	e := &versionEdit{}
	err := e.decode([]byte{tagLogNumber})
	require.Error(t, err)
}
