package engine

import "sync/atomic"

// VUPoolConfig controls elastic growth behavior.
type VUPoolConfig struct {
	PreAllocated int
	Max          int
	// Growth enables elastic growth on saturation. When false, the pool
	// behaves as a strict fixed-size semaphore but still shares the same
	// drop-accounting path as the elastic variant.
	Growth bool
}

// growthStep bounds how many permits are added per elastic-growth event.
const growthStep = 10

// VUPool is a semaphore of VU permits with elastic growth up to a hard
// cap. It is the sole admission control point for open-model executors;
// pacing (when to try) is entirely separate from admission (whether the
// try succeeds).
type VUPool struct {
	permits   chan struct{}
	allocated atomic.Int32
	active    atomic.Int32
	max       int32
	growth    bool
}

// NewVUPool builds a pool with cfg.PreAllocated permits available
// immediately and a hard ceiling of cfg.Max.
func NewVUPool(cfg VUPoolConfig) *VUPool {
	max := cfg.Max
	if max < cfg.PreAllocated {
		max = cfg.PreAllocated
	}
	if max < 1 {
		max = 1
	}
	p := &VUPool{
		permits: make(chan struct{}, max),
		max:     int32(max),
		growth:  cfg.Growth,
	}
	for i := 0; i < cfg.PreAllocated; i++ {
		p.permits <- struct{}{}
	}
	p.allocated.Store(int32(cfg.PreAllocated))
	return p
}

// TryAcquire attempts a non-blocking permit acquisition.
func (p *VUPool) TryAcquire() bool {
	select {
	case <-p.permits:
		p.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a permit to the pool.
func (p *VUPool) Release() {
	p.active.Add(-1)
	select {
	case p.permits <- struct{}{}:
	default:
		// Should not happen: releasing more permits than were ever
		// acquired would be a caller bug, not a pool-capacity issue.
	}
}

// Grow adds up to growthStep new permits, bounded by the pool's cap. It
// returns the number of permits actually added. A strict (non-elastic)
// pool never grows.
func (p *VUPool) Grow() int {
	if !p.growth {
		return 0
	}
	for {
		cur := p.allocated.Load()
		if cur >= p.max {
			return 0
		}
		step := int32(growthStep)
		if cur+step > p.max {
			step = p.max - cur
		}
		if p.allocated.CompareAndSwap(cur, cur+step) {
			for i := int32(0); i < step; i++ {
				p.permits <- struct{}{}
			}
			return int(step)
		}
	}
}

// AcquireOrGrow implements the elastic-admission path used by Open and
// Ramping Open executors: try once, and on failure grow the pool (if
// elastic) and retry exactly once more. The boolean return tells the
// caller whether to count a dropped iteration.
func (p *VUPool) AcquireOrGrow() bool {
	if p.TryAcquire() {
		return true
	}
	if p.Grow() == 0 {
		return false
	}
	return p.TryAcquire()
}

// ActiveVUs returns the number of permits currently held.
func (p *VUPool) ActiveVUs() int { return int(p.active.Load()) }

// Allocated returns the number of permits currently provisioned,
// including idle ones - this is vus_max's live counterpart for
// observability, distinct from the hard cap.
func (p *VUPool) Allocated() int { return int(p.allocated.Load()) }

// Max returns the pool's hard cap.
func (p *VUPool) Max() int { return int(p.max) }
