// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cloud

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/DataDog/zstd"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/vfs"
)

func TestSkipUploadExcludesEphemeralFiles(t *testing.T) {
	require.True(t, skipUpload("000012.log"))
	require.True(t, skipUpload("000012.dbtmp"))
	require.True(t, skipUpload("db/LOCK"))
	require.False(t, skipUpload("MANIFEST-000001"))
	require.False(t, skipUpload("000007.sst"))
}

// TestMirrorAddFileWritesTarEntry exercises the archiving half of Backup
// without touching S3: addFile's tar.Writer output must contain the file's
// name, size, and bytes, matching what Restore's tar.Reader expects back.
func TestMirrorAddFileWritesTarEntry(t *testing.T) {
	fs := vfs.NewMem()
	f, err := fs.Create("db/000007.sst")
	require.NoError(t, err)
	_, err = f.Write([]byte("table-bytes"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m := &Mirror{FS: fs}
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, m.addFile(tw, "db", "000007.sst"))
	require.NoError(t, tw.Close())

	tr := tar.NewReader(&buf)
	hdr, err := tr.Next()
	require.NoError(t, err)
	require.Equal(t, "000007.sst", hdr.Name)
	require.Equal(t, int64(11), hdr.Size)

	content, err := io.ReadAll(tr)
	require.NoError(t, err)
	require.Equal(t, "table-bytes", string(content))
}

// TestZstdRoundTripsArchiveBytes proves the compression step Backup/Restore
// rely on is lossless for arbitrary archive payloads.
func TestZstdRoundTripsArchiveBytes(t *testing.T) {
	payload := bytes.Repeat([]byte("riftdb-backup"), 100)
	compressed, err := zstd.Compress(nil, payload)
	require.NoError(t, err)

	decompressed, err := zstd.Decompress(nil, compressed)
	require.NoError(t, err)
	require.Equal(t, payload, decompressed)
}
