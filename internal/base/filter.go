// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// FilterWriter accumulates the keys landing in one filter segment (the
// i-th filter covers all keys whose block offset lies in
// [i*2^base_lg, (i+1)*2^base_lg)) and emits its opaque summary.
type FilterWriter interface {
	AddKey(key []byte)
	Finish(dst []byte) []byte
}

// FilterPolicy is the capability contract for a block filter. Only this
// contract belongs to riftdb; the bit-level filter math is supplied by a
// third-party implementation.
type FilterPolicy interface {
	Name() string
	NewWriter() FilterWriter
	MayContain(filter, key []byte) bool
}
