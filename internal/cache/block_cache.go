// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cache implements the two bounded caches a DB keeps open: the
// table cache (file_number -> open table) and the block cache
// ((cache_id, block_offset) -> decoded block).
package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// numShards is the block cache's shard count.
const numShards = 16

type blockKey struct {
	cacheID uint64
	offset  uint64
}

type blockShard struct {
	mu       sync.Mutex
	lru      *lru.Cache[blockKey, []byte]
	capacity int64
	usage    int64
}

// BlockCache is a sharded LRU keyed by (cache-id, block-offset), with a
// per-entry charge equal to the block's decoded size. It wraps
// hashicorp/golang-lru/v2 per shard rather than reimplementing an LRU
// list by hand.
type BlockCache struct {
	shards [numShards]*blockShard

	hits   int64
	misses int64
}

// NewBlockCache creates a block cache with the given total capacity in
// bytes, spread evenly across shards.
func NewBlockCache(capacityBytes int64) *BlockCache {
	c := &BlockCache{}
	perShard := capacityBytes / numShards
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		s := &blockShard{capacity: perShard}
		// A generous item-count ceiling; Set additionally evicts by byte
		// usage, and the eviction callback below keeps usage in step, so the
		// LRU's own count-based eviction is just a backstop against
		// pathologically tiny blocks.
		l, _ := lru.NewWithEvict[blockKey, []byte](1<<20, func(_ blockKey, v []byte) {
			atomic.AddInt64(&s.usage, -int64(len(v)))
		})
		s.lru = l
		c.shards[i] = s
	}
	return c
}

func (c *BlockCache) shardFor(key blockKey) *blockShard {
	h := key.cacheID*31 + key.offset
	return c.shards[h%numShards]
}

// Get returns the cached block for (cacheID, offset), if present.
func (c *BlockCache) Get(cacheID, offset uint64) ([]byte, bool) {
	s := c.shardFor(blockKey{cacheID, offset})
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lru.Get(blockKey{cacheID, offset})
	if ok {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	return v, ok
}

// Set inserts block into the cache under (cacheID, offset), evicting LRU
// tail entries until usage fits within the shard's capacity.
func (c *BlockCache) Set(cacheID, offset uint64, block []byte) {
	s := c.shardFor(blockKey{cacheID, offset})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(blockKey{cacheID, offset}, block)
	atomic.AddInt64(&s.usage, int64(len(block)))
	for atomic.LoadInt64(&s.usage) > s.capacity {
		if _, _, ok := s.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Stats returns cumulative hit/miss counts.
func (c *BlockCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}
