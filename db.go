// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package riftdb

import (
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"

	"github.com/riftdb/riftdb/internal/base"
	"github.com/riftdb/riftdb/internal/cache"
	"github.com/riftdb/riftdb/internal/record"
	"github.com/riftdb/riftdb/sstable"
	"github.com/riftdb/riftdb/vfs"
)

// dbWriter is one queued caller of Write: a batch (nil for
// a bare MemTable-rotation request), a sync flag, and a condition the
// batch-group leader signals on completion.
type dbWriter struct {
	batch *Batch
	sync  bool
	done  bool
	err   error
	cv    *sync.Cond
}

// DB is a concurrent, persistent, ordered key-value store.
type DB struct {
	dirname string
	opts    *Options
	cmp     Compare

	fileLock io.Closer

	tableCache *cache.TableCache
	metrics    *metricsRecorder

	// compactSem enforces the single-background-compaction invariant as a
	// weighted semaphore alongside the bgCompactionScheduled flag, rather
	// than relying on the flag alone.
	compactSem *semaphore.Weighted

	mu struct {
		sync.Mutex

		closed bool

		mem *memTable
		imm *memTable

		logNumber uint64
		logFile   vfs.File
		log       *record.LogWriter

		versions *versionSet
		snapshots snapshotList

		writers []*dbWriter
		bgCond  *sync.Cond

		bgCompactionScheduled bool
		bgError               error
		pendingOutputs        map[uint64]struct{}
	}
}

// Open opens (and, if needed, creates) the DB at dirname.
func Open(dirname string, opts *Options) (*DB, error) {
	opts = opts.EnsureDefaults()
	fs := opts.FS

	if err := fs.MkdirAll(dirname, 0755); err != nil {
		return nil, err
	}
	lock, err := fs.Lock(dbFilename(dirname, fileTypeLock, 0))
	if err != nil {
		return nil, errors.Wrap(err, "riftdb: acquiring LOCK")
	}

	d := &DB{dirname: dirname, opts: opts, cmp: opts.Comparer.Compare, fileLock: lock, compactSem: semaphore.NewWeighted(1)}
	d.mu.bgCond = sync.NewCond(&d.mu)
	d.mu.pendingOutputs = make(map[uint64]struct{})
	d.mu.snapshots.init()
	d.tableCache = cache.NewTableCache(fs, opts.readerOptions(), maxOpenTables(opts.MaxOpenFiles))
	d.metrics = newMetricsRecorder("riftdb")

	current := dbFilename(dirname, fileTypeCurrent, 0)
	_, statErr := fs.Stat(current)
	exists := statErr == nil
	if !exists {
		if !opts.CreateIfMissing {
			lock.Close()
			return nil, errors.Newf("riftdb: %s does not exist (create_if_missing is false)", dirname)
		}
		if err := d.createNewDB(); err != nil {
			lock.Close()
			return nil, err
		}
	} else if opts.ErrorIfExists {
		lock.Close()
		return nil, errors.Newf("riftdb: %s already exists (error_if_exists is true)", dirname)
	} else {
		if err := d.recover(); err != nil {
			lock.Close()
			return nil, err
		}
	}

	d.mu.mem = newMemTable(opts)
	logNum := d.mu.versions.newFileNum()
	logFile, err := fs.Create(dbFilename(dirname, fileTypeLog, logNum))
	if err != nil {
		lock.Close()
		return nil, err
	}
	d.mu.logNumber = logNum
	d.mu.logFile = logFile
	d.mu.log = record.NewLogWriter(logFile)
	if f := opts.EventListener.WALCreated; f != nil {
		f(logNum)
	}

	edit := &versionEdit{}
	edit.setLogNumber(logNum)
	if err := d.mu.versions.logAndApply(nil, edit); err != nil {
		lock.Close()
		return nil, err
	}

	go d.backgroundCompactionLoop()

	return d, nil
}

func maxOpenTables(maxOpenFiles int) int {
	n := maxOpenFiles - 10
	if n < 16 {
		n = 16
	}
	return n
}

func (d *DB) createNewDB() error {
	d.mu.versions = newVersionSet(d.dirname, d.opts.FS, d.opts)
	edit := &versionEdit{}
	edit.setComparatorName(d.opts.Comparer.Name)
	edit.setNextFileNumber(d.mu.versions.nextFileNum)
	edit.setLastSequence(0)
	return d.mu.versions.logAndApply(nil, edit)
}

// recover replays the MANIFEST and any WAL files with number ≥ logNumber
// into a fresh state.
func (d *DB) recover() error {
	vs := newVersionSet(d.dirname, d.opts.FS, d.opts)
	d.mu.versions = vs

	manifestName, err := readCurrentFile(d.opts.FS, d.dirname)
	if err != nil {
		return err
	}
	mf, err := d.opts.FS.Open(filepath.Join(d.dirname, manifestName))
	if err != nil {
		return err
	}
	defer mf.Close()

	rd := record.NewLogReader(mf, nil)
	edit := &versionEdit{}
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := edit.decode(rec); err != nil {
			return err
		}
	}

	v := vs.buildVersion(edit)
	v.finalize(d.opts)
	vs.append(v)
	if edit.hasLogNumber {
		vs.logNumber = edit.logNumber
	}
	if edit.hasPrevLogNumber {
		vs.prevLogNumber = edit.prevLogNumber
	}
	if edit.hasNextFileNumber {
		vs.nextFileNum = edit.nextFileNumber
	}
	if edit.hasLastSequence {
		vs.lastSequence = edit.lastSequence
	}

	return d.replayLogFiles()
}

// replayLogFiles replays every WAL with number ≥ the recovered log_number
// into a fresh memtable, flushing it to level 0 if non-empty at the end.
func (d *DB) replayLogFiles() error {
	names, err := d.opts.FS.List(d.dirname)
	if err != nil {
		return err
	}
	var logNums []uint64
	for _, name := range names {
		t, n, ok := parseDBFilename(name)
		if ok && t == fileTypeLog && n >= d.mu.versions.logNumber {
			logNums = append(logNums, n)
		}
	}
	for i := 0; i < len(logNums); i++ {
		for j := i + 1; j < len(logNums); j++ {
			if logNums[j] < logNums[i] {
				logNums[i], logNums[j] = logNums[j], logNums[i]
			}
		}
	}

	mem := newMemTable(d.opts)
	var maxSeq uint64
	for _, n := range logNums {
		f, err := d.opts.FS.Open(dbFilename(d.dirname, fileTypeLog, n))
		if err != nil {
			return err
		}
		rd := record.NewLogReader(f, nil)
		for {
			rec, err := rd.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				f.Close()
				return err
			}
			b := &Batch{}
			if err := b.load(rec); err != nil {
				f.Close()
				return err
			}
			if err := mem.applyBatch(b, b.seqNum()); err != nil {
				f.Close()
				return err
			}
			if end := b.seqNum() + uint64(b.Count()) - 1; end > maxSeq {
				maxSeq = end
			}
		}
		f.Close()
	}

	if maxSeq > d.mu.versions.lastSequence {
		d.mu.versions.lastSequence = maxSeq
	}

	if mem.approximateMemoryUsage() > 0 {
		fileNum := d.mu.versions.newFileNum()
		meta, err := d.writeLevel0Table(mem, fileNum)
		if err != nil {
			return err
		}
		edit := &versionEdit{}
		edit.addFile(0, meta)
		if err := d.mu.versions.logAndApply(nil, edit); err != nil {
			return err
		}
	}
	return nil
}

func readCurrentFile(fs vfs.FS, dirname string) (string, error) {
	f, err := fs.Open(dbFilename(dirname, fileTypeCurrent, 0))
	if err != nil {
		return "", err
	}
	defer f.Close()
	size, err := f.Size()
	if err != nil {
		return "", err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return "", err
	}
	for len(buf) > 0 && (buf[len(buf)-1] == '\n' || buf[len(buf)-1] == '\r') {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}

// Get returns the value for key, or ErrNotFound.
func (d *DB) Get(key []byte, ro *ReadOptions) ([]byte, error) {
	d.mu.Lock()
	seqNum := d.mu.versions.lastSequence
	if ro != nil && ro.Snapshot != nil {
		seqNum = ro.Snapshot.seqNum
	}
	mem, imm := d.mu.mem, d.mu.imm
	mem.ref()
	if imm != nil {
		imm.ref()
	}
	current := d.mu.versions.current
	current.ref()
	d.mu.Unlock()

	defer func() {
		mem.unref()
		if imm != nil {
			imm.unref()
		}
		current.unref()
	}()

	lk := base.MakeLookupKey(key, seqNum)
	if value, found, inTable := mem.get(&lk); inTable {
		if found {
			return value, nil
		}
		return nil, base.ErrNotFound
	}
	if imm != nil {
		if value, found, inTable := imm.get(&lk); inTable {
			if found {
				return value, nil
			}
			return nil, base.ErrNotFound
		}
	}

	ikey := base.MakeInternalKey(key, seqNum, base.InternalKeyKindMax)
	value, stats, err := current.get(d.cmp, ikey, d.newTableIter)
	if stats.file != nil {
		d.mu.Lock()
		if stats.file.allowedSeeks--; stats.file.allowedSeeks <= 0 && current.fileToCompact == nil {
			current.fileToCompact = stats.file
			current.fileToCompactLevel = stats.level
			d.maybeScheduleCompaction()
		}
		d.mu.Unlock()
	}
	return value, err
}

func (d *DB) newTableIter(f *fileMetadata) (*sstable.Reader, error) {
	return d.tableCache.Get(d.dirname, f.fileNum, func(n uint64) string {
		return dbFilename(d.dirname, fileTypeTable, n)
	})
}

// Set stages and commits a single put.
func (d *DB) Set(key, value []byte, wo *WriteOptions) error {
	b := NewBatch(d)
	b.Set(key, value)
	return d.Write(b, wo)
}

// Delete stages and commits a single tombstone.
func (d *DB) Delete(key []byte, wo *WriteOptions) error {
	b := NewBatch(d)
	b.Delete(key)
	return d.Write(b, wo)
}

// Write commits batch atomically via the writer-queue algorithm.
func (d *DB) Write(b *Batch, wo *WriteOptions) error {
	w := &dbWriter{batch: b, sync: wo != nil && wo.Sync, cv: sync.NewCond(&d.mu)}

	d.mu.Lock()
	d.mu.writers = append(d.mu.writers, w)
	for !w.done && d.mu.writers[0] != w {
		w.cv.Wait()
	}
	if w.done {
		d.mu.Unlock()
		return w.err
	}

	if err := d.makeRoomForWrite(false); err != nil {
		d.popWriter(w, err)
		d.mu.Unlock()
		return err
	}

	last := d.buildBatchGroup(w)
	b = w.batch

	seqNum := d.mu.versions.lastSequence + 1
	b.setSeqNum(seqNum)
	count := b.Count()

	mem := d.mu.mem
	log := d.mu.log
	logFile := d.mu.logFile
	d.mu.Unlock()

	start := time.Now()
	writeErr := log.AddRecord(b.encoded())
	if writeErr == nil && w.sync {
		writeErr = logFile.Sync()
	}
	if writeErr == nil {
		writeErr = mem.applyBatch(b, seqNum)
	}
	d.metrics.recordCommit(time.Since(start))

	d.mu.Lock()
	if writeErr != nil {
		d.mu.bgError = writeErr
	} else {
		d.mu.versions.lastSequence = seqNum + uint64(count) - 1
	}
	d.popWriters(last, writeErr)
	d.mu.Unlock()

	return writeErr
}

// buildBatchGroup folds every writer up to a 1 MiB (or leader_size+128KiB)
// budget into w's batch, honoring the leader's sync flag, and returns the
// last writer folded in.
func (d *DB) buildBatchGroup(w *dbWriter) *dbWriter {
	const maxSize = 1 << 20
	const smallLeaderSlack = 128 << 10

	limit := maxSize
	if len(w.batch.data) <= smallLeaderSlack {
		limit = len(w.batch.data) + smallLeaderSlack
	}

	last := w
	size := len(w.batch.data)
	for i := 1; i < len(d.mu.writers); i++ {
		next := d.mu.writers[i]
		if next.batch == nil {
			break
		}
		if next.sync && !w.sync {
			break
		}
		if size+len(next.batch.data) > limit {
			break
		}
		size += len(next.batch.data)
		if last == w {
			scratch := &Batch{db: w.batch.db}
			scratch.data = append([]byte(nil), w.batch.data...)
			scratch.count = w.batch.count
			w.batch = scratch
		}
		w.batch.data = append(w.batch.data, next.batch.data[batchHeaderLen:]...)
		w.batch.count += next.batch.count
		last = next
	}
	return last
}

// popWriters marks every writer from the head through last as done and
// wakes the new head.
func (d *DB) popWriters(last *dbWriter, err error) {
	for {
		front := d.mu.writers[0]
		d.mu.writers = d.mu.writers[1:]
		front.done = true
		front.err = err
		front.cv.Signal()
		if front == last {
			break
		}
	}
	if len(d.mu.writers) > 0 {
		d.mu.writers[0].cv.Signal()
	}
}

func (d *DB) popWriter(w *dbWriter, err error) {
	for i, q := range d.mu.writers {
		if q == w {
			d.mu.writers = append(d.mu.writers[:i], d.mu.writers[i+1:]...)
			break
		}
	}
	w.done, w.err = true, err
	if len(d.mu.writers) > 0 {
		d.mu.writers[0].cv.Signal()
	}
}

// makeRoomForWrite ensures the active memtable has space for the next
// write, rotating it (and scheduling a compaction) if not. d.mu must be
// held; it is released and reacquired around the one allowed write delay
// and around waits on bgCond.
func (d *DB) makeRoomForWrite(force bool) error {
	allowDelay := true
	for {
		if d.mu.bgError != nil {
			return d.mu.bgError
		}
		l0 := len(d.mu.versions.current.files[0])
		if allowDelay && !force && l0 >= d.opts.L0SlowdownWritesTrigger {
			// Delay the write by 1ms once per call rather than paying a
			// penalty on every write if the compaction falls behind.
			allowDelay = false
			d.mu.Unlock()
			time.Sleep(time.Millisecond)
			d.mu.Lock()
			continue
		}
		if !force && d.mu.mem.approximateMemoryUsage() < d.opts.WriteBufferSize {
			return nil
		}
		if d.mu.imm != nil {
			d.mu.bgCond.Wait()
			continue
		}
		if l0 >= d.opts.L0StopWritesTrigger {
			d.mu.bgCond.Wait()
			continue
		}

		logNum := d.mu.versions.newFileNum()
		logFile, err := d.opts.FS.Create(dbFilename(d.dirname, fileTypeLog, logNum))
		if err != nil {
			return err
		}
		d.mu.logFile.Close()
		d.mu.logFile = logFile
		d.mu.log = record.NewLogWriter(logFile)
		d.mu.logNumber = logNum

		d.mu.imm = d.mu.mem
		d.mu.mem = newMemTable(d.opts)
		force = false
		d.maybeScheduleCompaction()
	}
}

// Flush forces the active memtable to rotate and waits for it to reach
// stable storage.
func (d *DB) Flush() error {
	d.mu.Lock()
	if err := d.makeRoomForWrite(true); err != nil {
		d.mu.Unlock()
		return err
	}
	imm := d.mu.imm
	d.mu.Unlock()
	if imm == nil {
		return nil
	}
	<-imm.flushedCh
	return nil
}

// NewSnapshot pins the current sequence number for later reads.
func (d *DB) NewSnapshot() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mu.snapshots.pushBack(d, d.mu.versions.lastSequence)
}

// NewIter returns an unpositioned iterator over the database as of ro's
// snapshot, or the latest sequence if ro is nil.
func (d *DB) NewIter(ro *ReadOptions) *Iterator {
	d.mu.Lock()
	seqNum := d.mu.versions.lastSequence
	if ro != nil && ro.Snapshot != nil {
		seqNum = ro.Snapshot.seqNum
	}
	mem, imm := d.mu.mem, d.mu.imm
	mem.ref()
	if imm != nil {
		imm.ref()
	}
	current := d.mu.versions.current
	current.ref()
	d.mu.Unlock()

	var sources []internalIterator
	sources = append(sources, mem.newIter())
	if imm != nil {
		sources = append(sources, imm.newIter())
	}
	for _, f := range current.files[0] {
		if it, err := d.newFileIter(f); err == nil {
			sources = append(sources, it)
		}
	}
	for level := 1; level < numLevels; level++ {
		for _, f := range current.files[level] {
			if it, err := d.newFileIter(f); err == nil {
				sources = append(sources, it)
			}
		}
	}

	return &Iterator{
		merge:  newMergingIter(d.cmp, sources),
		cmp:    d.cmp,
		seqNum: seqNum,
		release: func() {
			mem.unref()
			if imm != nil {
				imm.unref()
			}
			current.unref()
		},
	}
}

func (d *DB) newFileIter(f *fileMetadata) (internalIterator, error) {
	r, err := d.newTableIter(f)
	if err != nil {
		return nil, err
	}
	return r.NewIter()
}

// maybeScheduleCompaction starts a background compaction if one is not
// already running and one is warranted. d.mu must be held.
func (d *DB) maybeScheduleCompaction() {
	if d.mu.bgCompactionScheduled || d.mu.closed || d.mu.bgError != nil {
		return
	}
	if d.mu.imm == nil && !d.mu.versions.current.needsCompaction() {
		return
	}
	d.mu.bgCompactionScheduled = true
	d.mu.bgCond.Signal()
}

// backgroundCompactionLoop is the single background worker.
func (d *DB) backgroundCompactionLoop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		for !d.mu.bgCompactionScheduled && !d.mu.closed {
			d.mu.bgCond.Wait()
		}
		if d.mu.closed {
			return
		}
		if d.compactSem.TryAcquire(1) {
			d.backgroundCompaction()
			d.compactSem.Release(1)
		}
		d.mu.bgCompactionScheduled = false
		d.mu.bgCond.Broadcast()
	}
}

// Close waits for any in-flight background compaction to finish and
// releases all resources.
func (d *DB) Close() error {
	d.mu.Lock()
	if d.mu.closed {
		d.mu.Unlock()
		return nil
	}
	d.mu.closed = true
	d.mu.bgCond.Broadcast()
	for d.mu.bgCompactionScheduled {
		d.mu.bgCond.Wait()
	}
	logFile := d.mu.logFile
	vs := d.mu.versions
	d.mu.Unlock()

	err := d.tableCache.Close()
	if e := logFile.Close(); err == nil {
		err = e
	}
	if e := vs.close(); err == nil {
		err = e
	}
	if e := d.fileLock.Close(); err == nil {
		err = e
	}
	return err
}

// Metrics returns a point-in-time snapshot of database statistics.
func (d *DB) Metrics() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	var m Metrics
	for level := 0; level < numLevels; level++ {
		files := d.mu.versions.current.files[level]
		m.Levels[level].NumFiles = len(files)
		m.Levels[level].Size = sumFileSizes(files)
	}
	m.Levels[d.mu.versions.current.compactionLevel].Score = d.mu.versions.current.compactionScore
	hits, misses := d.opts.Cache.Stats()
	m.BlockCache.Hits, m.BlockCache.Misses = hits, misses
	return m
}
