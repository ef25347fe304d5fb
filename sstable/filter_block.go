// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/internal/base"
)

// filterBaseLg is log2 of the number of data bytes covered per filter;
// the default is 2^11 = 2 KiB.
const filterBaseLg = 11
const filterBase = 1 << filterBaseLg

// filterBlockWriter builds the contiguous filter_data ‖ filter_offsets[] ‖
// base_lg layout.
type filterBlockWriter struct {
	policy     base.FilterPolicy
	writer     base.FilterWriter
	keys       [][]byte
	keyData    []byte
	filterData []byte
	offsets    []uint32
}

func newFilterBlockWriter(policy base.FilterPolicy) *filterBlockWriter {
	return &filterBlockWriter{policy: policy, writer: policy.NewWriter()}
}

// addKey records a key as belonging to the data block currently being
// built.
func (w *filterBlockWriter) addKey(key []byte) {
	w.writer.AddKey(key)
}

// startBlock is called whenever the data block offset crosses into a new
// filterBase-sized region, finishing filters for every completed region.
func (w *filterBlockWriter) startBlock(blockOffset uint64) {
	index := blockOffset / filterBase
	for uint64(len(w.offsets)) < index {
		w.generateFilter()
	}
}

func (w *filterBlockWriter) generateFilter() {
	w.offsets = append(w.offsets, uint32(len(w.filterData)))
	w.filterData = w.writer.Finish(w.filterData)
}

// finish emits the final region's filter (if any keys remain), the offset
// array, and the base_lg byte.
func (w *filterBlockWriter) finish() []byte {
	w.generateFilter()
	result := append([]byte(nil), w.filterData...)
	arrayOffset := len(result)
	var tmp4 [4]byte
	for _, off := range w.offsets {
		binary.LittleEndian.PutUint32(tmp4[:], off)
		result = append(result, tmp4[:]...)
	}
	binary.LittleEndian.PutUint32(tmp4[:], uint32(arrayOffset))
	result = append(result, tmp4[:]...)
	result = append(result, filterBaseLg)
	return result
}

// filterBlockReader parses the on-disk filter block layout and answers
// MayContain queries for a given data-block offset.
type filterBlockReader struct {
	policy base.FilterPolicy
	data   []byte
	offset []byte // the offset array, not including base_lg
	num    int
	baseLg uint8
}

func newFilterBlockReader(policy base.FilterPolicy, contents []byte) (*filterBlockReader, error) {
	if len(contents) < 5 {
		return nil, base.CorruptionErrorf("riftdb: corrupt filter block")
	}
	baseLg := contents[len(contents)-1]
	arrayOffset := binary.LittleEndian.Uint32(contents[len(contents)-5:])
	if uint64(arrayOffset) > uint64(len(contents)-5) {
		return nil, base.CorruptionErrorf("riftdb: corrupt filter block: bad array offset")
	}
	offsetBytes := contents[arrayOffset : len(contents)-5]
	return &filterBlockReader{
		policy: policy,
		data:   contents[:arrayOffset],
		offset: offsetBytes,
		num:    len(offsetBytes) / 4,
		baseLg: baseLg,
	}, nil
}

// mayContain reports whether the filter covering blockOffset may contain
// key. A false result is authoritative: if the filter says absent, stop.
func (r *filterBlockReader) mayContain(blockOffset uint64, key []byte) bool {
	index := int(blockOffset >> r.baseLg)
	if index >= r.num {
		return true
	}
	start := binary.LittleEndian.Uint32(r.offset[index*4:])
	var end uint32
	if index+1 < r.num {
		end = binary.LittleEndian.Uint32(r.offset[(index+1)*4:])
	} else {
		end = uint32(len(r.data))
	}
	if start > end || int(end) > len(r.data) {
		return true
	}
	return r.policy.MayContain(r.data[start:end], key)
}
