package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const resultChannelCapacity = 10_000

// LoadModelKind tags which load model a LoadConfig selects. The set is
// small and closed, so a type-switch-style dispatch table is preferred
// over an open plugin registry (see design notes on tagged variants).
type LoadModelKind string

const (
	ModelClosed      LoadModelKind = "closed"
	ModelOpen        LoadModelKind = "open"
	ModelRampingOpen LoadModelKind = "ramping-open"
	ModelBurst       LoadModelKind = "burst"
)

// LoadConfig is the Engine Facade's single input: everything needed to
// wire and run one load test.
type LoadConfig struct {
	Scenarios []Scenario

	Duration    time.Duration
	Warmup      time.Duration
	RampUp      time.Duration
	MaxRequests int64
	ThinkTime   time.Duration

	Model LoadModelKind

	// Closed
	Concurrency int

	// Open / Ramping Open / Burst
	ArrivalRate     float64
	MaxVUs          int
	PreAllocatedVUs int
	StrictPool      bool
	Stages          []RampStage
	BurstRate       int
	BurstDelay      time.Duration

	LatencyCorrection bool

	HTTPExecutorConfig HTTPExecutorConfig
}

// Engine wires the core components by load model and exposes the
// lifecycle surface external collaborators depend on.
type Engine struct {
	cfg LoadConfig

	cancel      context.CancelFunc
	aggregator  *Aggregator
	phaseCh     chan RunPhase
	vusActiveFn func() int
	vusMaxFn    func() int
	rateFn      func() float64
	dropped     *atomic.Int64
}

// New builds an Engine from a LoadConfig. It performs no I/O and spawns
// no goroutines; call Run to start the test.
func New(cfg LoadConfig) *Engine {
	return &Engine{cfg: cfg, phaseCh: make(chan RunPhase, 1)}
}

// CancelHandle returns a function that, once Run has started, cancels
// the run. Calling it before Run starts, or more than once, is safe
// (idempotent via context cancellation semantics) but a no-op until Run
// has wired cancel.
func (e *Engine) CancelHandle() context.CancelFunc {
	return func() {
		if e.cancel != nil {
			e.cancel()
		}
	}
}

// Subscribe returns the read-latest snapshot channel. Valid only once
// Run has started; the zero value before that is a nil channel, which
// blocks forever on receive rather than panicking.
func (e *Engine) Subscribe() <-chan Snapshot {
	if e.aggregator == nil {
		return nil
	}
	return e.aggregator.Subscribe()
}

// PhaseSubscribe returns a channel carrying phase transitions.
func (e *Engine) PhaseSubscribe() <-chan RunPhase { return e.phaseCh }

// Run wires every component per §4.10 and blocks until the run completes
// or ctx is cancelled, returning the final Stats. Per-request failures
// never surface here; only fatal wiring failures do.
func (e *Engine) Run(ctx context.Context) (*Stats, error) {
	if len(e.cfg.Scenarios) == 0 {
		return nil, &EngineError{Op: "engine.Run", Err: fmt.Errorf("no scenarios configured")}
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	resultCh := make(chan RequestResult, resultChannelCapacity)
	httpExec := NewHTTPExecutor(e.cfg.HTTPExecutorConfig)

	e.dropped = &atomic.Int64{}

	stopFns, err := e.spawnExecutors(runCtx, httpExec, resultCh)
	if err != nil {
		return nil, err
	}

	e.aggregator = NewAggregator(AggregatorConfig{
		Warmup:            e.cfg.Warmup,
		MaxRequests:       e.cfg.MaxRequests,
		LatencyCorrection: e.cfg.LatencyCorrection,
		ResultCh:          resultCh,
		Cancel:            cancel,
		VUsActive:         e.vusActiveFn,
		VUsMax:            e.vusMaxFn,
		TargetRate:        e.rateFn,
		Dropped:           e.dropped,
	})

	e.emitPhase(PhaseInitializing)
	if e.cfg.Warmup > 0 {
		e.emitPhase(PhaseWarmup)
	} else {
		e.emitPhase(PhaseRunning)
	}

	done := make(chan *Stats, 1)
	go func() { done <- e.aggregator.Run(runCtx) }()

	durationTimer := time.NewTimer(e.cfg.Duration)
	defer durationTimer.Stop()

	select {
	case <-durationTimer.C:
		cancel()
	case <-runCtx.Done():
	}

	doneChs := make([]<-chan struct{}, len(stopFns))
	for i, stop := range stopFns {
		doneChs[i] = stop() // signals shutdown, returns a completion channel
	}
	e.awaitGrace(doneChs)
	close(resultCh)

	stats := <-done

	finalPhase := PhaseCompleted
	if ctx.Err() != nil {
		finalPhase = PhaseCancelled
	}
	e.emitPhase(finalPhase)

	return stats, nil
}

// graceDeadline bounds shutdown per §5/§4.10: grace (1s) x effective
// worker count + 100ms, regardless of in-flight requests.
func (e *Engine) graceDeadline() time.Duration {
	workers := e.cfg.Concurrency
	if e.cfg.MaxVUs > workers {
		workers = e.cfg.MaxVUs
	}
	if workers < 1 {
		workers = 1
	}
	return time.Duration(workers)*time.Second + 100*time.Millisecond
}

// awaitGrace waits for every executor's completion channel, bounded by
// graceDeadline. Exceeding the deadline is a defect in a collaborator's
// I/O layer (e.g. an Execute call ignoring ctx), not something the
// Aggregator or caller should block on indefinitely.
func (e *Engine) awaitGrace(doneChs []<-chan struct{}) {
	deadline := time.NewTimer(e.graceDeadline())
	defer deadline.Stop()
	for _, ch := range doneChs {
		select {
		case <-ch:
		case <-deadline.C:
			return
		}
	}
}

func (e *Engine) emitPhase(p RunPhase) {
	select {
	case <-e.phaseCh:
	default:
	}
	select {
	case e.phaseCh <- p:
	default:
	}
}

// spawnExecutors builds the load-model-specific executor(s), launches
// their driver goroutines, and returns stop functions to release their
// background resources (pacers) once the run ends. The result channel
// is never closed here; the caller owns that after every executor has
// stopped producing.
func (e *Engine) spawnExecutors(ctx context.Context, exec RequestExecutor, resultCh chan RequestResult) ([]func() <-chan struct{}, error) {
	switch e.cfg.Model {
	case ModelClosed:
		return e.spawnClosed(ctx, exec, resultCh)
	case ModelOpen:
		return e.spawnOpen(ctx, exec, resultCh)
	case ModelRampingOpen:
		return e.spawnRampingOpen(ctx, exec, resultCh)
	case ModelBurst:
		return e.spawnBurst(ctx, exec, resultCh)
	default:
		return nil, &EngineError{Op: "engine.Run", Err: fmt.Errorf("unknown load model %q", e.cfg.Model)}
	}
}

func (e *Engine) spawnClosed(ctx context.Context, exec RequestExecutor, resultCh chan RequestResult) ([]func() <-chan struct{}, error) {
	concurrency := e.cfg.Concurrency
	if concurrency < 1 {
		return nil, &EngineError{Op: "engine.Run", Err: fmt.Errorf("closed model requires concurrency > 0")}
	}
	var pacer Pacer
	if e.cfg.ArrivalRate > 0 {
		pacer = NewTokenBucketPacer(e.cfg.ArrivalRate)
	}
	closedExec := NewClosedExecutor(ClosedConfig{
		Concurrency: concurrency,
		RampUp:      e.cfg.RampUp,
		ThinkTime:   e.cfg.ThinkTime,
		Scenarios:   e.cfg.Scenarios,
	}, exec, resultCh, pacer)

	var active atomic.Int32
	e.vusActiveFn = func() int { return int(active.Load()) }
	e.vusMaxFn = func() int { return concurrency }
	if pacer != nil {
		e.rateFn = pacer.CurrentRate
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		closedExec.Run(ctx)
	}()

	stop := func() <-chan struct{} {
		if pacer != nil {
			pacer.Stop()
		}
		return done
	}
	return []func() <-chan struct{}{stop}, nil
}

func (e *Engine) spawnOpen(ctx context.Context, exec RequestExecutor, resultCh chan RequestResult) ([]func() <-chan struct{}, error) {
	if e.cfg.ArrivalRate <= 0 {
		return nil, &EngineError{Op: "engine.Run", Err: fmt.Errorf("open model requires arrival_rate > 0")}
	}
	open := NewOpenExecutor(OpenConfig{
		ArrivalRate:     e.cfg.ArrivalRate,
		PreAllocatedVUs: e.cfg.PreAllocatedVUs,
		MaxVUs:          e.cfg.MaxVUs,
		StrictPool:      e.cfg.StrictPool,
		LatencyCorrect:  e.cfg.LatencyCorrection,
		Scenarios:       e.cfg.Scenarios,
	}, exec, resultCh)
	return e.runOpenLike(ctx, open), nil
}

func (e *Engine) spawnRampingOpen(ctx context.Context, exec RequestExecutor, resultCh chan RequestResult) ([]func() <-chan struct{}, error) {
	if len(e.cfg.Stages) == 0 {
		return nil, &EngineError{Op: "engine.Run", Err: fmt.Errorf("ramping-open model requires at least one stage")}
	}
	ramping := NewRampingOpenExecutor(RampingOpenConfig{
		Stages:          e.cfg.Stages,
		PreAllocatedVUs: e.cfg.PreAllocatedVUs,
		MaxVUs:          e.cfg.MaxVUs,
		StrictPool:      e.cfg.StrictPool,
		LatencyCorrect:  e.cfg.LatencyCorrection,
		Scenarios:       e.cfg.Scenarios,
	}, exec, resultCh)
	return e.runOpenLike(ctx, ramping), nil
}

func (e *Engine) spawnBurst(ctx context.Context, exec RequestExecutor, resultCh chan RequestResult) ([]func() <-chan struct{}, error) {
	if e.cfg.BurstRate <= 0 {
		return nil, &EngineError{Op: "engine.Run", Err: fmt.Errorf("burst model requires burst_rate > 0")}
	}
	burst := NewBurstExecutor(BurstConfig{
		Rate:            e.cfg.BurstRate,
		Delay:           e.cfg.BurstDelay,
		PreAllocatedVUs: e.cfg.PreAllocatedVUs,
		MaxVUs:          e.cfg.MaxVUs,
		LatencyCorrect:  e.cfg.LatencyCorrection,
		Scenarios:       e.cfg.Scenarios,
	}, exec, resultCh)
	return e.runOpenLike(ctx, burst), nil
}

// runOpenLike wires the observability hooks shared by Open, Ramping Open
// and Burst (all implemented on top of OpenExecutor) and launches the
// driver goroutine.
func (e *Engine) runOpenLike(ctx context.Context, open *OpenExecutor) []func() <-chan struct{} {
	e.vusActiveFn = open.VUsActive
	e.vusMaxFn = open.VUsMax
	e.rateFn = open.TargetRate
	e.dropped = open.Dropped()

	done := make(chan struct{})
	go func() {
		defer close(done)
		open.Run(ctx)
	}()

	stop := func() <-chan struct{} {
		open.Stop()
		return done
	}
	return []func() <-chan struct{}{stop}
}
