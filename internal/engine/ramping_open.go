package engine

import "time"

// RampingOpenConfig configures a Ramping Open Executor: same admission
// skeleton as OpenExecutor, but paced by a RampPacer walking the given
// stages instead of a constant-rate token bucket.
type RampingOpenConfig struct {
	Stages          []RampStage
	PreAllocatedVUs int
	MaxVUs          int
	StrictPool      bool
	LatencyCorrect  bool
	Scenarios       []Scenario
}

// NewRampingOpenExecutor builds a Ramping Open Executor by wiring a
// RampPacer into the OpenExecutor skeleton - the ramp only changes when
// slots are emitted, not how they are admitted or executed.
func NewRampingOpenExecutor(cfg RampingOpenConfig, exec RequestExecutor, resultCh chan<- RequestResult) *OpenExecutor {
	return NewOpenExecutorWithPacer(OpenConfig{
		PreAllocatedVUs: cfg.PreAllocatedVUs,
		MaxVUs:          cfg.MaxVUs,
		StrictPool:      cfg.StrictPool,
		LatencyCorrect:  cfg.LatencyCorrect,
		Scenarios:       cfg.Scenarios,
	}, exec, resultCh, NewRampPacer(cfg.Stages))
}

// BurstConfig configures the Burst load model: N slots every D,
// reusing the Open Executor skeleton with a BurstPacer.
type BurstConfig struct {
	Rate            int // N per window
	Delay           time.Duration
	PreAllocatedVUs int
	MaxVUs          int
	LatencyCorrect  bool
	Scenarios       []Scenario
}

// NewBurstExecutor builds a Burst-model executor. MaxVUs defaults to
// Rate when unset, so a full burst never self-throttles on VU admission
// - it can still be configured tighter to observe drops.
func NewBurstExecutor(cfg BurstConfig, exec RequestExecutor, resultCh chan<- RequestResult) *OpenExecutor {
	maxVUs := cfg.MaxVUs
	if maxVUs <= 0 {
		maxVUs = cfg.Rate
	}
	preAlloc := cfg.PreAllocatedVUs
	if preAlloc <= 0 {
		preAlloc = maxVUs
	}
	pacer := NewBurstPacer(cfg.Rate, cfg.Delay)
	return NewOpenExecutorWithPacer(OpenConfig{
		PreAllocatedVUs: preAlloc,
		MaxVUs:          maxVUs,
		LatencyCorrect:  cfg.LatencyCorrect,
		Scenarios:       cfg.Scenarios,
	}, exec, resultCh, pacer)
}
