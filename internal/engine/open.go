package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

// OpenConfig configures an open-model executor: fixed arrival rate,
// elastic VU pool bound by MaxVUs.
type OpenConfig struct {
	ArrivalRate     float64
	PreAllocatedVUs int
	MaxVUs          int
	StrictPool      bool // disables elastic growth when true
	LatencyCorrect  bool
	Scenarios       []Scenario
}

// OpenExecutor is a single driver goroutine spawning iteration tasks on
// a monotonic schedule, admission-gated by a VUPool. Every failed
// admission after elastic growth counts as a dropped iteration rather
// than blocking the schedule.
type OpenExecutor struct {
	cfg      OpenConfig
	exec     RequestExecutor
	resultCh chan<- RequestResult
	pacer    Pacer
	pool     *VUPool
	dropped  atomic.Int64
	iterID   counter64

	varsMu sync.Mutex
	vars   map[string]string
}

// NewOpenExecutor builds an OpenExecutor with its own token-bucket pacer
// at cfg.ArrivalRate. For the Burst load model, build the pacer
// separately (NewBurstPacer) and use NewOpenExecutorWithPacer instead.
func NewOpenExecutor(cfg OpenConfig, exec RequestExecutor, resultCh chan<- RequestResult) *OpenExecutor {
	return NewOpenExecutorWithPacer(cfg, exec, resultCh, NewTokenBucketPacer(cfg.ArrivalRate))
}

// NewOpenExecutorWithPacer builds an OpenExecutor driven by a caller-
// supplied Pacer, letting Burst and Ramping Open reuse this skeleton.
func NewOpenExecutorWithPacer(cfg OpenConfig, exec RequestExecutor, resultCh chan<- RequestResult, pacer Pacer) *OpenExecutor {
	pool := NewVUPool(VUPoolConfig{
		PreAllocated: cfg.PreAllocatedVUs,
		Max:          cfg.MaxVUs,
		Growth:       !cfg.StrictPool,
	})
	return &OpenExecutor{
		cfg:      cfg,
		exec:     exec,
		resultCh: resultCh,
		pacer:    pacer,
		pool:     pool,
		vars:     map[string]string{},
	}
}

// Run drives the executor until ctx is cancelled, waiting for all
// in-flight iteration tasks to finish before returning.
func (e *OpenExecutor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if err := e.pacer.AwaitNextSlot(ctx); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		scheduledAtUs := nowMicros()
		if !e.pool.AcquireOrGrow() {
			e.dropped.Add(1)
			continue
		}

		wg.Add(1)
		go e.runIteration(ctx, &wg, scheduledAtUs)
	}
}

func (e *OpenExecutor) runIteration(ctx context.Context, wg *sync.WaitGroup, scheduledAtUs int64) {
	defer wg.Done()
	defer e.pool.Release()

	id := e.iterID.next()
	scenario := SelectScenario(e.cfg.Scenarios, id)

	e.varsMu.Lock()
	vars := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		vars[k] = v
	}
	e.varsMu.Unlock()

	resolved := interpolateScenario(scenario, id, vars)

	var schedUs int64 = -1
	if e.cfg.LatencyCorrect {
		schedUs = scheduledAtUs
	}

	result := e.exec.Execute(ctx, &resolved, schedUs, len(scenario.Extract) > 0)

	if len(scenario.Extract) > 0 && len(result.Body) > 0 {
		e.applyExtractions(scenario.Extract, result)
	}

	select {
	case e.resultCh <- result:
	case <-ctx.Done():
	}
}

func (e *OpenExecutor) applyExtractions(extractions []Extraction, r RequestResult) {
	headers := map[string]string{} // header extraction unavailable post-hoc without the raw response; body/status only here
	status := 0
	if r.HasStatus {
		status = int(r.Status)
	}
	updates := make(map[string]string, len(extractions))
	for _, ex := range extractions {
		if v, ok := extractVariable(ex, status, headers, r.Body); ok {
			updates[ex.Name] = v
		}
	}
	if len(updates) == 0 {
		return
	}
	e.varsMu.Lock()
	for k, v := range updates {
		e.vars[k] = v
	}
	e.varsMu.Unlock()
}

// VUsActive reports the pool's currently held permits.
func (e *OpenExecutor) VUsActive() int { return e.pool.ActiveVUs() }

// VUsMax reports the pool's hard cap.
func (e *OpenExecutor) VUsMax() int { return e.pool.Max() }

// Dropped reports the running count of dropped iterations.
func (e *OpenExecutor) Dropped() *atomic.Int64 { return &e.dropped }

// TargetRate reports the pacer's instantaneous target rate.
func (e *OpenExecutor) TargetRate() float64 { return e.pacer.CurrentRate() }

// Stop releases the executor's pacer goroutine.
func (e *OpenExecutor) Stop() { e.pacer.Stop() }
