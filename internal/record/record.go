// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package record implements the 32 KiB block-framed log format shared by the
// WAL and the MANIFEST.
package record

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const (
	// BlockSize is the fixed physical block size records are packed into.
	BlockSize = 32 * 1024
	// headerSize is checksum:fixed32 ‖ length:fixed16 ‖ type:u8.
	headerSize = 4 + 2 + 1
)

type recordType uint8

const (
	recordTypeZero recordType = iota // reserved
	recordTypeFull
	recordTypeFirst
	recordTypeMiddle
	recordTypeLast
)

// checksum covers the type byte and the payload; riftdb uses xxhash64
// truncated to 32 bits in place of a CRC, trading a little collision
// resistance for xxhash's throughput on commodity hardware.
func checksum(t recordType, payload []byte) uint32 {
	h := xxhash.New()
	h.Write([]byte{byte(t)})
	h.Write(payload)
	return uint32(h.Sum64())
}
