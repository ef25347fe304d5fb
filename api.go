// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package riftdb provides an embedded, ordered, persistent key-value store
// organized as a log-structured-merge tree.
package riftdb

import "github.com/riftdb/riftdb/internal/base"

// Re-exported so callers never need to import internal/base directly.
type (
	// InternalKey is a user key extended with a packed sequence number and
	// kind.
	InternalKey = base.InternalKey
	// InternalKeyKind is the value-type tag.
	InternalKeyKind = base.InternalKeyKind
	// Compare orders two user keys.
	Compare = base.Compare
	// Comparer bundles Compare with the index-key-minimization helpers.
	Comparer = base.Comparer
	// FilterPolicy is the capability contract for a block filter.
	FilterPolicy = base.FilterPolicy
	// Logger is the capability contract for the info log.
	Logger = base.Logger
)

const (
	// InternalKeyKindDelete tombstones a key.
	InternalKeyKindDelete = base.InternalKeyKindDelete
	// InternalKeyKindSet stores a value.
	InternalKeyKindSet = base.InternalKeyKindSet
	// InternalKeyKindMax sorts before every other kind for a given user
	// key and sequence number; used to seek to the newest entry.
	InternalKeyKindMax = base.InternalKeyKindMax
)

// ErrNotFound is returned by Get for an absent or deleted key.
var ErrNotFound = base.ErrNotFound

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = base.ErrClosed

// DefaultComparer is the default lexicographic byte-string order.
var DefaultComparer = base.DefaultComparer
