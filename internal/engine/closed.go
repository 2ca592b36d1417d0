package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// ClosedConfig configures a fixed-concurrency closed-model executor.
type ClosedConfig struct {
	Concurrency int
	RampUp      time.Duration
	ThinkTime   time.Duration
	Scenarios   []Scenario
}

// ClosedExecutor spawns Concurrency long-lived workers, each looping:
// pace, execute, emit, optional think time. Request rate is whatever the
// target can sustain - there is no admission control beyond the fixed
// worker count.
type ClosedExecutor struct {
	cfg      ClosedConfig
	exec     RequestExecutor
	resultCh chan<- RequestResult
	pacer    Pacer // nil when unpaced (as fast as possible)
}

// NewClosedExecutor builds a ClosedExecutor. pacer may be nil for an
// unpaced closed-model run (concurrency alone governs throughput).
func NewClosedExecutor(cfg ClosedConfig, exec RequestExecutor, resultCh chan<- RequestResult, pacer Pacer) *ClosedExecutor {
	return &ClosedExecutor{cfg: cfg, exec: exec, resultCh: resultCh, pacer: pacer}
}

// Run spawns all workers and blocks until ctx is cancelled and every
// worker has exited its loop.
func (e *ClosedExecutor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	concurrency := e.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var iterID counter64
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		// Ramp-up: worker i begins its first iteration at
		// t ~= ramp_up * i / concurrency (linear spread).
		delay := time.Duration(0)
		if e.cfg.RampUp > 0 && concurrency > 1 {
			delay = time.Duration(int64(e.cfg.RampUp) * int64(i) / int64(concurrency))
		}
		go e.worker(ctx, &wg, delay, &iterID)
	}
	wg.Wait()
}

func (e *ClosedExecutor) worker(ctx context.Context, wg *sync.WaitGroup, initialDelay time.Duration, iterID *counter64) {
	defer wg.Done()

	if initialDelay > 0 {
		t := time.NewTimer(initialDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	vars := map[string]string{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if e.pacer != nil {
			if err := e.pacer.AwaitNextSlot(ctx); err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		id := iterID.next()
		scenario := SelectScenario(e.cfg.Scenarios, id)
		resolved := interpolateScenario(scenario, id, vars)

		result := e.exec.Execute(ctx, &resolved, -1, false)

		select {
		case e.resultCh <- result:
		case <-ctx.Done():
			return
		}

		if e.cfg.ThinkTime > 0 {
			jitter := time.Duration(rng.Int63n(int64(e.cfg.ThinkTime) / 4 + 1))
			think := time.NewTimer(e.cfg.ThinkTime + jitter)
			select {
			case <-ctx.Done():
				think.Stop()
				return
			case <-think.C:
			}
		}
	}
}
