// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

// EventListener holds optional callbacks fired at points of internal
// lifecycle interest. Any field may be nil. FlushEnd fires when a memtable
// flush finishes, CompactionBegin and CompactionEnd around each compaction,
// and WALCreated when Open creates its WAL; FlushBegin and BackgroundError
// are not invoked by the DB. It carries no core semantics of its own.
type EventListener struct {
	FlushBegin     func(FlushInfo)
	FlushEnd       func(FlushInfo)
	CompactionBegin func(CompactionInfo)
	CompactionEnd   func(CompactionInfo)
	WALCreated     func(logNum uint64)
	BackgroundError func(error)
}

// FlushInfo describes a memtable flush.
type FlushInfo struct {
	FileNum uint64
	Level   int
	Err     error
}

// CompactionInfo describes a background compaction.
type CompactionInfo struct {
	StartLevel, OutputLevel int
	Err                     error
}

func (o *Options) fireFlushBegin(info FlushInfo) {
	if f := o.EventListener.FlushBegin; f != nil {
		f(info)
	}
}

func (o *Options) fireFlushEnd(info FlushInfo) {
	if f := o.EventListener.FlushEnd; f != nil {
		f(info)
	}
}

func (o *Options) fireCompactionBegin(info CompactionInfo) {
	if f := o.EventListener.CompactionBegin; f != nil {
		f(info)
	}
}

func (o *Options) fireCompactionEnd(info CompactionInfo) {
	if f := o.EventListener.CompactionEnd; f != nil {
		f(info)
	}
}

func (o *Options) fireBackgroundError(err error) {
	if f := o.EventListener.BackgroundError; f != nil {
		f(err)
	}
}
