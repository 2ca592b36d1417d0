package engine

import (
	"context"
	"sync/atomic"
	"time"
)

const snapshotTick = 100 * time.Millisecond

// Aggregator owns the single Stats instance for a run, consuming the
// result stream, applying the warmup boundary, enforcing max_requests,
// and publishing snapshots. It is infallible by construction: a closed
// result channel only ever produces a final snapshot and a returned
// Stats, never an error.
type Aggregator struct {
	stats   *Stats
	warmup  time.Duration
	maxReqs int64

	resultCh <-chan RequestResult
	snapCh   chan Snapshot

	cancel context.CancelFunc

	vusActive  func() int
	vusMax     func() int
	targetRate func() float64
	dropped    *atomic.Int64

	warmupDone bool
	phase      atomic.Value // RunPhase
}

// AggregatorConfig bundles the wiring the Engine Facade hands to a new
// Aggregator.
type AggregatorConfig struct {
	Warmup            time.Duration
	MaxRequests       int64
	LatencyCorrection bool
	ResultCh          <-chan RequestResult
	Cancel            context.CancelFunc
	VUsActive         func() int
	VUsMax            func() int
	TargetRate        func() float64
	Dropped           *atomic.Int64
}

// NewAggregator builds an Aggregator ready to Run.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	a := &Aggregator{
		stats:      NewStats(cfg.LatencyCorrection),
		warmup:     cfg.Warmup,
		maxReqs:    cfg.MaxRequests,
		resultCh:   cfg.ResultCh,
		snapCh:     make(chan Snapshot, 1),
		cancel:     cfg.Cancel,
		vusActive:  cfg.VUsActive,
		vusMax:     cfg.VUsMax,
		targetRate: cfg.TargetRate,
		dropped:    cfg.Dropped,
		warmupDone: cfg.Warmup <= 0,
	}
	if a.warmupDone {
		a.phase.Store(PhaseRunning)
	} else {
		a.phase.Store(PhaseWarmup)
	}
	return a
}

// Subscribe returns the read-latest snapshot channel. It is a broadcast-
// latest channel of capacity 1: readers always see the most recent
// value; missed intermediate values are fine.
func (a *Aggregator) Subscribe() <-chan Snapshot { return a.snapCh }

// Phase returns the current run phase, safe for concurrent reads.
func (a *Aggregator) Phase() RunPhase { return a.phase.Load().(RunPhase) }

// Run drives the control loop until resultCh closes, then publishes a
// final snapshot and returns the owned Stats. It never returns an error;
// per the error-handling design, the Aggregator cannot fail.
func (a *Aggregator) Run(ctx context.Context) *Stats {
	ticker := time.NewTicker(snapshotTick)
	defer ticker.Stop()

	runStart := time.Now()

	for {
		// Biased select: drain any immediately-available results before
		// considering the tick, bounding memory under result bursts. Go's
		// select has no native bias, so this is implemented as an explicit
		// non-blocking drain each loop iteration.
		drained := a.drainAvailable(runStart)
		if drained < 0 {
			a.publish()
			return a.stats
		}

		select {
		case r, ok := <-a.resultCh:
			if !ok {
				a.publish()
				return a.stats
			}
			a.fold(r, runStart)
		case <-ticker.C:
			a.publish()
		case <-ctx.Done():
			// Keep folding until the executors close resultCh, so a
			// cancellation doesn't silently discard in-flight results.
			a.drainRemaining(runStart)
			a.publish()
			return a.stats
		}
	}
}

// drainAvailable folds every result currently buffered on resultCh
// without blocking. It returns the count folded, or -1 if the channel
// was observed closed.
func (a *Aggregator) drainAvailable(runStart time.Time) int {
	n := 0
	for {
		select {
		case r, ok := <-a.resultCh:
			if !ok {
				return -1
			}
			a.fold(r, runStart)
			n++
		default:
			return n
		}
	}
}

func (a *Aggregator) drainRemaining(runStart time.Time) {
	for r := range a.resultCh {
		a.fold(r, runStart)
	}
}

func (a *Aggregator) fold(r RequestResult, runStart time.Time) {
	now := time.Now()
	if !a.warmupDone && now.Sub(runStart) >= a.warmup {
		a.stats.Reset()
		a.warmupDone = true
		a.phase.Store(PhaseRunning)
	}
	a.stats.Record(r, now)

	if a.maxReqs > 0 && a.stats.Total() >= a.maxReqs && a.cancel != nil {
		a.cancel()
	}
}

// publish pushes the current state as a Snapshot, non-blocking, dropping
// a stale pending value if the channel is already full.
func (a *Aggregator) publish() {
	var vusActive, vusMax int
	var rate float64
	var dropped int64
	if a.vusActive != nil {
		vusActive = a.vusActive()
	}
	if a.vusMax != nil {
		vusMax = a.vusMax()
	}
	if a.targetRate != nil {
		rate = a.targetRate()
	}
	if a.dropped != nil {
		dropped = a.dropped.Load()
	}

	snap := BuildSnapshot(a.stats, a.Phase(), vusActive, vusMax, rate, dropped)
	select {
	case <-a.snapCh:
	default:
	}
	select {
	case a.snapCh <- snap:
	default:
	}
}
