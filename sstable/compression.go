// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"github.com/klauspost/compress/zstd"

	"github.com/golang/snappy"

	"github.com/riftdb/riftdb/internal/base"
)

// Compression identifies the per-block compression algorithm. The slot
// is defined by the format; the algorithm itself is pluggable.
type Compression uint8

const (
	// NoCompression stores the block verbatim.
	NoCompression Compression = 0
	// SnappyCompression uses github.com/golang/snappy.
	SnappyCompression Compression = 1
	// ZstdCompression uses klauspost/compress/zstd, a pure-Go codec chosen
	// over DataDog/zstd's cgo binding for this hot read-path use (see
	// DESIGN.md); DataDog/zstd is instead used on the cold cloud-backup
	// path (cloud/mirror.go).
	ZstdCompression Compression = 2
)

var zstdEncoder, _ = zstd.NewWriter(nil)
var zstdDecoder, _ = zstd.NewReader(nil)

// compressBlock compresses payload with c, returning the compressed bytes
// and the compression type actually used. Compression is silently
// disabled if the result does not shrink.
func compressBlock(c Compression, payload []byte) ([]byte, Compression) {
	switch c {
	case SnappyCompression:
		out := snappy.Encode(nil, payload)
		if len(out) < len(payload) {
			return out, SnappyCompression
		}
	case ZstdCompression:
		out := zstdEncoder.EncodeAll(payload, nil)
		if len(out) < len(payload) {
			return out, ZstdCompression
		}
	}
	return payload, NoCompression
}

func decompressBlock(c Compression, compressed []byte) ([]byte, error) {
	switch c {
	case NoCompression:
		return compressed, nil
	case SnappyCompression:
		out, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, base.CorruptionErrorf("riftdb: snappy decode: %v", err)
		}
		return out, nil
	case ZstdCompression:
		out, err := zstdDecoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, base.CorruptionErrorf("riftdb: zstd decode: %v", err)
		}
		return out, nil
	default:
		return nil, base.CorruptionErrorf("riftdb: unknown compression type %d", c)
	}
}
