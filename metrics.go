// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a point-in-time snapshot of DB statistics, returned by
// DB.Metrics(). It is an observability-only snapshot; no core invariant
// depends on it.
type Metrics struct {
	Levels [numLevels]LevelMetrics

	Flush struct {
		Count int64
	}
	Compact struct {
		Count int64
	}
	BlockCache struct {
		Hits   int64
		Misses int64
	}
}

// LevelMetrics summarizes one level's live file set.
type LevelMetrics struct {
	NumFiles int
	Size     uint64
	Score    float64
}

// metricsRecorder owns the live prometheus collectors and HdrHistogram
// sketches that back Metrics() and any /metrics endpoint the embedding
// application wires up.
type metricsRecorder struct {
	mu sync.Mutex

	flushCount     prometheus.Counter
	compactCount   prometheus.Counter
	commitLatency  prometheus.Histogram
	levelBytes     *prometheus.GaugeVec
	levelFileCount *prometheus.GaugeVec

	commitHist    *hdrhistogram.Histogram
	compactHist   *hdrhistogram.Histogram
}

func newMetricsRecorder(namespace string) *metricsRecorder {
	m := &metricsRecorder{
		flushCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "flush_total", Help: "Number of memtable flushes.",
		}),
		compactCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "compaction_total", Help: "Number of background compactions.",
		}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "commit_latency_seconds", Help: "Write commit latency.",
		}),
		levelBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "level_bytes", Help: "Live bytes per level.",
		}, []string{"level"}),
		levelFileCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "level_files", Help: "Live file count per level.",
		}, []string{"level"}),
		commitHist:  hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3),
		compactHist: hdrhistogram.New(1, int64(time.Hour/time.Millisecond), 3),
	}
	return m
}

// Collectors returns every prometheus.Collector for registration by the
// embedding application (e.g. prometheus.MustRegister(m.Collectors()...)).
func (m *metricsRecorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.flushCount, m.compactCount, m.commitLatency, m.levelBytes, m.levelFileCount}
}

func (m *metricsRecorder) recordFlush() { m.flushCount.Inc() }

func (m *metricsRecorder) recordCompaction(d time.Duration) {
	m.compactCount.Inc()
	m.mu.Lock()
	_ = m.compactHist.RecordValue(d.Milliseconds())
	m.mu.Unlock()
}

func (m *metricsRecorder) recordCommit(d time.Duration) {
	m.commitLatency.Observe(d.Seconds())
	m.mu.Lock()
	_ = m.commitHist.RecordValue(d.Microseconds())
	m.mu.Unlock()
}

func (m *metricsRecorder) setLevel(level int, bytes uint64, files int) {
	lbl := prometheus.Labels{"level": levelLabel(level)}
	m.levelBytes.With(lbl).Set(float64(bytes))
	m.levelFileCount.With(lbl).Set(float64(files))
}

func levelLabel(level int) string {
	return string(rune('0' + level))
}

// CompactionLatencyPercentile returns the p-th percentile (0,100] of
// recorded compaction durations in milliseconds.
func (m *metricsRecorder) CompactionLatencyPercentile(p float64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compactHist.ValueAtQuantile(p)
}
