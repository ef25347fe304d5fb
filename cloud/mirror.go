// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cloud mirrors a database directory to S3 for disaster recovery.
// It operates over riftdb's own vfs.FS rather than the local filesystem
// directly, and uploads a single compressed archive instead of
// mirroring every file individually.
package cloud

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"

	"github.com/riftdb/riftdb/vfs"
)

// Mirror uploads point-in-time backups of a database directory to S3 and
// restores them. It is optional and orthogonal to the write path — no
// core riftdb operation depends on it.
type Mirror struct {
	FS       vfs.FS
	Bucket   string
	KeyPrefix string

	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

// NewMirror constructs a Mirror backed by the named S3 bucket, using the
// default AWS credential chain.
func NewMirror(fs vfs.FS, bucket, keyPrefix string) (*Mirror, error) {
	sess, err := session.NewSession(aws.NewConfig())
	if err != nil {
		return nil, err
	}
	return &Mirror{
		FS:         fs,
		Bucket:     bucket,
		KeyPrefix:  keyPrefix,
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
	}, nil
}

// skipUpload excludes files that are either ephemeral (WAL, temp) or would
// be regenerated on restore (LOCK).
func skipUpload(name string) bool {
	switch {
	case strings.HasSuffix(name, ".log"):
		return true
	case strings.HasSuffix(name, ".dbtmp"):
		return true
	case filepath.Base(name) == "LOCK":
		return true
	}
	return false
}

// Backup archives every file listed under dbDir except those skipUpload
// rejects (WAL .log files, .dbtmp files and LOCK) into a single
// zstd-compressed tar, and uploads it to
// s3://Bucket/KeyPrefix/<uuid>.tar.zst. It returns the object key.
func (m *Mirror) Backup(ctx context.Context, dbDir string) (string, error) {
	names, err := m.FS.List(dbDir)
	if err != nil {
		return "", err
	}

	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	for _, name := range names {
		if skipUpload(name) {
			continue
		}
		if err := m.addFile(tw, dbDir, name); err != nil {
			tw.Close()
			return "", err
		}
	}
	if err := tw.Close(); err != nil {
		return "", err
	}

	compressed, err := zstd.Compress(nil, raw.Bytes())
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.tar.zst", strings.TrimSuffix(m.KeyPrefix, "/"), uuid.New().String())
	_, err = m.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(compressed),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *Mirror) addFile(tw *tar.Writer, dbDir, name string) error {
	path := filepath.Join(dbDir, name)
	f, err := m.FS.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	size, err := f.Size()
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{Name: name, Size: size, Mode: 0644}); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// Restore downloads the archive at key and extracts it into dbDir, which
// must not already exist as a live database.
func (m *Mirror) Restore(ctx context.Context, key, dbDir string) error {
	buf := aws.NewWriteAtBuffer(nil)
	if _, err := m.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return err
	}

	raw, err := zstd.Decompress(nil, buf.Bytes())
	if err != nil {
		return err
	}

	if err := m.FS.MkdirAll(dbDir, 0755); err != nil {
		return err
	}
	tr := tar.NewReader(bytes.NewReader(raw))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		f, err := m.FS.Create(filepath.Join(dbDir, hdr.Name))
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
}
