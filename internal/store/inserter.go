// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// samplePeriod is how often the flusher checks process RSS against the
// memory limit. The limit is a soft ceiling: spec allows transient
// overshoot during a flush pass, so this only needs to be frequent enough
// that a breach is noticed promptly, not instantaneously.
const samplePeriod = 200 * time.Millisecond

// Inserter is the memory-bounded buffered staging layer for adjacency
// edges described by the specification's "Buffered Link Inserter"
// component. Producers (parser worker goroutines) call Insert; a single
// background flusher goroutine owns the write transaction and persists
// buffered batches whenever resident memory crosses memoryLimit.
type Inserter struct {
	wtx *WriteTxn

	incMu  sync.Mutex
	incBuf map[uint32][]uint32

	outMu  sync.Mutex
	outBuf map[uint32][]uint32

	memoryLimit int64

	incCount int64 // edges in the incoming table, set once drainAll completes
	outCount int64 // edges in the outgoing table, set once drainAll completes

	flushReq chan chan error
	loopDone chan struct{}
	loopErr  error
	metrics  insertMetrics
}

type insertMetrics struct {
	edgesInserted prometheus.Counter
	rssBytes      prometheus.Gauge
	flushesTotal  prometheus.Counter
}

// BeginInserter starts the buffered inserter's background flusher,
// transferring ownership of wtx to it: the caller must not use wtx again
// until FlushAndCommit returns (see the scoped-thread-pool note in
// spec.md §9 — Go has no borrow checker, so ownership transfer is the
// idiomatic substitute for a lifetime-bounded scope).
//
// reg may be nil, in which case no Prometheus gauges are registered.
func BeginInserter(wtx *WriteTxn, memoryLimit int64, reg prometheus.Registerer) *Inserter {
	ins := &Inserter{
		wtx:         wtx,
		incBuf:      make(map[uint32][]uint32),
		outBuf:      make(map[uint32][]uint32),
		memoryLimit: memoryLimit,
		flushReq:    make(chan chan error),
		loopDone:    make(chan struct{}),
	}
	if reg != nil {
		ins.metrics = newInsertMetrics(reg)
	}
	go ins.loop()
	return ins
}

func newInsertMetrics(reg prometheus.Registerer) insertMetrics {
	m := insertMetrics{
		edgesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wikipath",
			Subsystem: "inserter",
			Name:      "edges_inserted_total",
			Help:      "Number of edges staged through Insert since process start.",
		}),
		rssBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wikipath",
			Subsystem: "inserter",
			Name:      "rss_bytes",
			Help:      "Process resident set size as last sampled by the buffered inserter.",
		}),
		flushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wikipath",
			Subsystem: "inserter",
			Name:      "flush_total",
			Help:      "Number of times the buffered inserter has flushed a buffer to storage.",
		}),
	}
	for _, c := range []prometheus.Collector{m.edgesInserted, m.rssBytes, m.flushesTotal} {
		// A duplicate registration (e.g. a second build in the same
		// process during tests) is not fatal; the gauge just keeps
		// reporting under whichever registration won.
		_ = reg.Register(c)
	}
	return m
}

// Insert stages one directed edge source->target. Producers are
// wait-free except during the brief window the flusher swaps a buffer
// out from under its mutex.
func (ins *Inserter) Insert(source, target uint32) {
	ins.incMu.Lock()
	ins.incBuf[target] = append(ins.incBuf[target], source)
	ins.incMu.Unlock()

	ins.outMu.Lock()
	ins.outBuf[source] = append(ins.outBuf[source], target)
	ins.outMu.Unlock()

	if ins.metrics.edgesInserted != nil {
		ins.metrics.edgesInserted.Inc()
	}
}

// FlushAndCommit signals the flusher to drain all remaining buffered
// edges, verifies incoming/outgoing counts agree (structural consistency
// check), commits the write transaction, and returns the total number of
// edges inserted. It must be called exactly once, after which the
// Inserter is no longer usable.
func (ins *Inserter) FlushAndCommit() (int64, error) {
	reply := make(chan error, 1)
	ins.flushReq <- reply
	err := <-reply
	<-ins.loopDone
	if err != nil {
		return 0, err
	}
	if ins.loopErr != nil {
		return 0, ins.loopErr
	}
	return ins.incCount, nil
}

func (ins *Inserter) loop() {
	defer close(ins.loopDone)
	ticker := time.NewTicker(samplePeriod)
	defer ticker.Stop()

	for {
		select {
		case reply := <-ins.flushReq:
			err := ins.drainAll()
			if err == nil {
				ins.incCount, err = ins.tableEdgeCount(Incoming)
			}
			if err == nil {
				ins.outCount, err = ins.tableEdgeCount(Outgoing)
			}
			if err == nil {
				err = ins.checkConsistency()
			}
			if err == nil {
				err = ins.wtx.Commit()
			} else {
				ins.wtx.Rollback()
			}
			reply <- err
			return

		case <-ticker.C:
			if err := ins.maybeFlush(); err != nil {
				ins.loopErr = err
			}
		}
	}
}

// maybeFlush samples RSS and, if it exceeds the configured limit,
// persists the incoming buffer first (pagelinks is emitted in target
// order, so flushing incoming first tends to hit keys not yet written —
// an optimization, not a correctness requirement) and re-samples before
// deciding whether the outgoing buffer also needs flushing.
func (ins *Inserter) maybeFlush() error {
	rss, err := ProcessRSS()
	if err != nil {
		return err
	}
	if ins.metrics.rssBytes != nil {
		ins.metrics.rssBytes.Set(float64(rss))
	}
	if ins.memoryLimit <= 0 || int64(rss) <= ins.memoryLimit {
		return nil
	}

	if err := ins.flushIncoming(); err != nil {
		return err
	}

	rss, err = ProcessRSS()
	if err != nil {
		return err
	}
	if int64(rss) <= ins.memoryLimit {
		return nil
	}
	return ins.flushOutgoing()
}

func (ins *Inserter) flushIncoming() error {
	ins.incMu.Lock()
	batch := ins.incBuf
	ins.incBuf = make(map[uint32][]uint32)
	ins.incMu.Unlock()
	return ins.persist(Incoming, batch)
}

func (ins *Inserter) flushOutgoing() error {
	ins.outMu.Lock()
	batch := ins.outBuf
	ins.outBuf = make(map[uint32][]uint32)
	ins.outMu.Unlock()
	return ins.persist(Outgoing, batch)
}

func (ins *Inserter) persist(table Table, batch map[uint32][]uint32) error {
	if len(batch) == 0 {
		return nil
	}
	keys := make([]uint32, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		ids := sortedUnique(batch[k])
		if err := ins.wtx.MergeAdjacency(table, k, ids); err != nil {
			return fmt.Errorf("flushing %s[%d]: %w", table, k, err)
		}
	}
	if ins.metrics.flushesTotal != nil {
		ins.metrics.flushesTotal.Inc()
	}
	return nil
}

// tableEdgeCount sums adjacency-list lengths across every key in table. A
// key's list is already sorted and deduplicated by MergeAdjacency, so this
// is the true number of distinct edges table holds, independent of how many
// flush batches it took to get there.
func (ins *Inserter) tableEdgeCount(table Table) (int64, error) {
	var total int64
	err := ins.wtx.ForEach(table, func(key uint32, raw []byte) error {
		ids, err := decodeAdjacency(raw)
		if err != nil {
			return err
		}
		total += int64(len(ids))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return total, nil
}

func (ins *Inserter) drainAll() error {
	if err := ins.flushIncoming(); err != nil {
		return err
	}
	if err := ins.flushOutgoing(); err != nil {
		return err
	}
	return nil
}

// checkConsistency verifies the total number of edges stored in the
// incoming table equals the total stored in outgoing. Both counts are
// taken by scanning the tables themselves after drainAll, not by summing
// per-flush-batch lengths: a duplicate edge whose two Insert calls land
// in different flush batches on one side than the other would make
// batch-summed counters disagree even though the tables end up
// consistent, since MergeAdjacency dedupes each key's list regardless of
// how many batches contributed to it.
func (ins *Inserter) checkConsistency() error {
	if ins.incCount != ins.outCount {
		return fmt.Errorf("%w: incoming edge count %d != outgoing edge count %d",
			ErrIntegrityViolation, ins.incCount, ins.outCount)
	}
	return nil
}
