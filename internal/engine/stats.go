package engine

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMinUs     = 1
	histogramMaxUs     = 60_000_000 // 60s in microseconds
	histogramSigFigs   = 3
	rollingWindow      = time.Second
)

// TimelineBucket is an immutable per-second record published in
// arrival order by the Aggregator's own clock.
type TimelineBucket struct {
	ElapsedSecs int64
	Requests    int64
	Errors      int64
}

// Stats is the single-owner, mutable statistics store living inside the
// Aggregator. Nothing outside the Aggregator's goroutine ever mutates it;
// observers only ever see a Snapshot copy.
type Stats struct {
	startedAt time.Time

	rawLatency       *hdrhistogram.Histogram
	correctedLatency *hdrhistogram.Histogram
	queueTime        *hdrhistogram.Histogram
	hasCorrection    bool

	total, successful, failed, bytesReceived int64
	checksPassed, checksFailed               int64

	statusCodes map[uint16]int64
	errorKinds  map[ErrorKind]int64

	timeline      []TimelineBucket
	currentBucket int64 // elapsed seconds of the open timeline bucket

	rollingTimestamps []time.Time // ring of recent request times, pruned to 1s
}

// NewStats allocates a Stats instance. latencyCorrection enables the
// corrected-latency and queue-time histograms; they stay nil otherwise,
// matching the spec's "optional" fields.
func NewStats(latencyCorrection bool) *Stats {
	s := &Stats{
		startedAt:     time.Now(),
		rawLatency:    hdrhistogram.New(histogramMinUs, histogramMaxUs, histogramSigFigs),
		statusCodes:   make(map[uint16]int64),
		errorKinds:    make(map[ErrorKind]int64),
		hasCorrection: latencyCorrection,
		currentBucket: -1,
	}
	if latencyCorrection {
		s.correctedLatency = hdrhistogram.New(histogramMinUs, histogramMaxUs, histogramSigFigs)
		s.queueTime = hdrhistogram.New(histogramMinUs, histogramMaxUs, histogramSigFigs)
	}
	return s
}

// Record folds one RequestResult into the running statistics. now is
// passed in explicitly so the Aggregator's clock domain - not the
// result's own timestamp - governs timeline bucketing, per the ordering
// guarantee in the concurrency model.
func (s *Stats) Record(r RequestResult, now time.Time) {
	s.total++
	if r.HasError {
		s.failed++
		s.errorKinds[r.Error]++
	} else {
		s.successful++
		s.statusCodes[r.Status]++
	}
	s.bytesReceived += r.BytesReceived

	for _, c := range r.Checks {
		if c.Passed {
			s.checksPassed++
		} else {
			s.checksFailed++
		}
	}

	clamped := clampUs(r.LatencyUs)
	s.rawLatency.RecordValue(clamped)

	if s.hasCorrection && r.HasScheduled {
		corrected := clampUs(r.StartedAtUs + r.LatencyUs - r.ScheduledAtUs)
		s.correctedLatency.RecordValue(corrected)
		if r.HasQueueTime {
			s.queueTime.RecordValue(clampUs(r.QueueTimeUs))
		}
	}

	s.recordRolling(now)
	s.recordTimeline(now, r.HasError)
}

func clampUs(v int64) int64 {
	if v < histogramMinUs {
		return histogramMinUs
	}
	if v > histogramMaxUs {
		return histogramMaxUs
	}
	return v
}

func (s *Stats) recordRolling(now time.Time) {
	s.rollingTimestamps = append(s.rollingTimestamps, now)
	cutoff := now.Add(-rollingWindow)
	i := 0
	for i < len(s.rollingTimestamps) && s.rollingTimestamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		s.rollingTimestamps = s.rollingTimestamps[i:]
	}
}

// RollingRPS returns the request count observed in the trailing 1s
// window as of the last recorded result.
func (s *Stats) RollingRPS() int {
	return len(s.rollingTimestamps)
}

func (s *Stats) recordTimeline(now time.Time, isError bool) {
	elapsed := int64(now.Sub(s.startedAt) / time.Second)
	if elapsed != s.currentBucket {
		s.timeline = append(s.timeline, TimelineBucket{ElapsedSecs: elapsed})
		s.currentBucket = elapsed
	}
	b := &s.timeline[len(s.timeline)-1]
	b.Requests++
	if isError {
		b.Errors++
	}
}

// Timeline returns a copy of the per-second bucket sequence so far.
func (s *Stats) Timeline() []TimelineBucket {
	out := make([]TimelineBucket, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// Reset zeros all state and restarts the clock. Used exactly once, at
// the warmup/Running boundary.
func (s *Stats) Reset() {
	s.startedAt = time.Now()
	s.rawLatency.Reset()
	if s.correctedLatency != nil {
		s.correctedLatency.Reset()
		s.queueTime.Reset()
	}
	s.total, s.successful, s.failed, s.bytesReceived = 0, 0, 0, 0
	s.checksPassed, s.checksFailed = 0, 0
	s.statusCodes = make(map[uint16]int64)
	s.errorKinds = make(map[ErrorKind]int64)
	s.timeline = nil
	s.currentBucket = -1
	s.rollingTimestamps = nil
}

// Elapsed returns time since the last Reset (or since construction, if
// never reset).
func (s *Stats) Elapsed() time.Duration { return time.Since(s.startedAt) }

func (s *Stats) Total() int64 { return s.total }

func microsToMs(us int64) float64 { return float64(us) / 1000.0 }
