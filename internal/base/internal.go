// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental types used by the rest of riftdb: the
// internal key encoding, the comparator/filter/merger capability contracts,
// and the error taxonomy.
package base

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// InternalKeyKind enumerates the tag stored with every internal key.
type InternalKeyKind uint8

const (
	// InternalKeyKindDelete is a tombstone: the key has been deleted.
	InternalKeyKindDelete InternalKeyKind = 0
	// InternalKeyKindSet stores a value for the key.
	InternalKeyKindSet InternalKeyKind = 1
	// InternalKeyKindInvalid marks a corrupt or zero-valued key.
	InternalKeyKindInvalid InternalKeyKind = 255
	// InternalKeyKindMax is the tag used by LookupKey: it sorts before every
	// other kind for the same user key and sequence number, so a seek with
	// this kind lands on the newest entry for a user key.
	InternalKeyKindMax InternalKeyKind = 255
)

// SeqNumMax is the largest representable sequence number (56 bits).
const SeqNumMax = uint64(1)<<56 - 1

// InternalKeyZeroSeqNum is reserved to mean "no sequence number assigned".
const InternalKeyZeroSeqNum = uint64(0)

const internalKeyTrailerSize = 8

// InternalKeyTrailer packs a sequence number and kind into the compound
// ordering key used for all internal-key comparisons: (seqnum<<8)|kind.
type InternalKeyTrailer = uint64

// MakeTrailer packs seqNum and kind into a trailer. seqNum is truncated to
// 56 bits.
func MakeTrailer(seqNum uint64, kind InternalKeyKind) InternalKeyTrailer {
	return (seqNum << 8) | uint64(kind)
}

// SeqNum extracts the sequence number from a trailer.
func (t InternalKeyTrailer) seqNum() uint64 { return t >> 8 }

// Kind extracts the kind from a trailer.
func (t InternalKeyTrailer) kind() InternalKeyKind { return InternalKeyKind(t) }

// InternalKey is a user key extended with a packed sequence number and
// kind. It is the unit of ordering throughout the store.
type InternalKey struct {
	UserKey []byte
	Trailer InternalKeyTrailer
}

// MakeInternalKey constructs an internal key from its parts.
func MakeInternalKey(userKey []byte, seqNum uint64, kind InternalKeyKind) InternalKey {
	return InternalKey{UserKey: userKey, Trailer: MakeTrailer(seqNum, kind)}
}

// SeqNum returns the packed sequence number.
func (k InternalKey) SeqNum() uint64 { return k.Trailer.seqNum() }

// Kind returns the packed value kind.
func (k InternalKey) Kind() InternalKeyKind { return k.Trailer.kind() }

// Size returns the encoded length of the key.
func (k InternalKey) Size() int { return len(k.UserKey) + internalKeyTrailerSize }

// Encode writes the key (user key followed by the fixed64 little-endian
// trailer) into buf, which must be at least k.Size() bytes.
func (k InternalKey) Encode(buf []byte) {
	n := copy(buf, k.UserKey)
	binary.LittleEndian.PutUint64(buf[n:], k.Trailer)
}

// Clone returns a deep copy of the key.
func (k InternalKey) Clone() InternalKey {
	if len(k.UserKey) == 0 {
		return InternalKey{Trailer: k.Trailer}
	}
	u := make([]byte, len(k.UserKey))
	copy(u, k.UserKey)
	return InternalKey{UserKey: u, Trailer: k.Trailer}
}

// DecodeInternalKey decodes an internal key from its encoded form. It does
// not panic on malformed input: an encoding shorter than the 8-byte trailer
// decodes to a key with no user key and kind InternalKeyKindInvalid.
func DecodeInternalKey(encoded []byte) InternalKey {
	n := len(encoded) - internalKeyTrailerSize
	if n < 0 {
		return InternalKey{Trailer: MakeTrailer(0, InternalKeyKindInvalid)}
	}
	return InternalKey{
		UserKey: encoded[:n:n],
		Trailer: binary.LittleEndian.Uint64(encoded[n:]),
	}
}

// IsValid reports whether the key decoded to a recognizable kind.
func (k InternalKey) IsValid() bool {
	switch k.Kind() {
	case InternalKeyKindDelete, InternalKeyKindSet:
		return true
	}
	return false
}

// Compare is a user-key comparison function: negative if a<b, zero if equal,
// positive if a>b. The default is bytes.Compare (lexicographic).
type Compare func(a, b []byte) int

// Equal reports key equality under cmp.
func (c Compare) Equal(a, b []byte) bool { return c(a, b) == 0 }

// InternalCompare orders two internal keys ascending by user key, ties
// broken by descending trailer (newer sequence/kind sorts first).
func InternalCompare(userCmp Compare, a, b InternalKey) int {
	if c := userCmp(a.UserKey, b.UserKey); c != 0 {
		return c
	}
	switch {
	case a.Trailer > b.Trailer:
		return -1
	case a.Trailer < b.Trailer:
		return 1
	default:
		return 0
	}
}

// Comparer bundles the user key order with the two index-key-minimization
// helpers the table builder needs. It is the capability contract a
// caller supplies in place of a bespoke ordering.
type Comparer struct {
	Compare Compare
	// Separator appends to dst a key in [a, b) that is short (if feasible)
	// and at least as large as a. It returns the extended dst.
	Separator func(dst, a, b []byte) []byte
	// Successor appends to dst a key >= a that is short (if feasible).
	Successor func(dst, a []byte) []byte
	Name      string
}

// DefaultComparer is the lexicographic byte-string order, built on
// bytes.Compare.
var DefaultComparer = &Comparer{
	Compare:   defaultCompare,
	Separator: defaultSeparator,
	Successor: defaultSuccessor,
	Name:      "riftdb.BytewiseComparator",
}

func defaultCompare(a, b []byte) int {
	return compareBytes(a, b)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// sharedPrefixLen returns the length of the common prefix of a and b.
func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// defaultSeparator mirrors leveldb's BytewiseComparator::FindShortestSeparator:
// shorten a towards b when they diverge on an incrementable byte.
func defaultSeparator(dst, a, b []byte) []byte {
	if len(b) == 0 {
		return append(dst, a...)
	}
	n := sharedPrefixLen(a, b)
	if n >= len(a) || n >= len(b) {
		return append(dst, a...)
	}
	if n < len(a)-1 || n < len(b)-1 {
		if a[n] < 0xff && a[n]+1 < b[n] {
			dst = append(dst, a[:n+1]...)
			dst[len(dst)-1]++
			return dst
		}
	}
	return append(dst, a...)
}

// defaultSuccessor mirrors FindShortSuccessor: the shortest key >= a.
func defaultSuccessor(dst, a []byte) []byte {
	for i := 0; i < len(a); i++ {
		if a[i] != 0xff {
			dst = append(dst, a[:i+1]...)
			dst[len(dst)-1]++
			return dst
		}
	}
	return append(dst, a...)
}

// ErrNotFound is returned by Get for an absent or deleted key.
var ErrNotFound = errors.New("riftdb: not found")

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = errors.New("riftdb: closed")

// CorruptionErrorf builds a corruption error satisfying errors.Is(err,
// ErrCorruption), used throughout recovery and table reading.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// ErrCorruption is the marker sentinel for on-disk corruption; test with
// errors.Is(err, base.ErrCorruption).
var ErrCorruption = errors.New("riftdb: corruption")
