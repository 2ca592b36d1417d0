package engine

import "time"

// LatencyPercentiles bundles the mean, the max and the six percentiles
// reported for any histogram-backed latency view.
type LatencyPercentiles struct {
	Mean float64
	P50  float64
	P75  float64
	P90  float64
	P95  float64
	P99  float64
	P999 float64
	Max  float64
}

// Snapshot is an immutable, self-contained projection of Stats plus
// open-model fields. It is safe to copy and hand to arbitrary observers;
// publishing it never blocks on slow consumers (see Aggregator).
type Snapshot struct {
	Phase RunPhase

	Total, Successful, Failed, BytesReceived int64
	StatusCodes                              map[uint16]int64
	ErrorKinds                               map[ErrorKind]int64

	RawLatencyMs       LatencyPercentiles
	CorrectedLatencyMs *LatencyPercentiles
	QueueTimeMs        *LatencyPercentiles

	RollingRPS int
	Elapsed    time.Duration
	Timeline   []TimelineBucket

	VUsActive         int
	VUsMax            int
	TargetRate        float64
	DroppedIterations int64

	ChecksPassed, ChecksFailed int64
	CheckPassRate              float64
}

// BuildSnapshot projects a Stats instance (plus the open-model fields an
// Aggregator tracks alongside it) into an immutable Snapshot.
func BuildSnapshot(s *Stats, phase RunPhase, vusActive, vusMax int, targetRate float64, dropped int64) Snapshot {
	snap := Snapshot{
		Phase:         phase,
		Total:         s.total,
		Successful:    s.successful,
		Failed:        s.failed,
		BytesReceived: s.bytesReceived,
		StatusCodes:   copyStatusMap(s.statusCodes),
		ErrorKinds:    copyErrorMap(s.errorKinds),
		RawLatencyMs:  percentilesMs(s.rawLatency),
		RollingRPS:    s.RollingRPS(),
		Elapsed:       s.Elapsed(),
		Timeline:      s.Timeline(),
		VUsActive:     vusActive,
		VUsMax:        vusMax,
		TargetRate:    targetRate,
		DroppedIterations: dropped,
		ChecksPassed:  s.checksPassed,
		ChecksFailed:  s.checksFailed,
	}
	if s.correctedLatency != nil {
		p := percentilesMs(s.correctedLatency)
		snap.CorrectedLatencyMs = &p
	}
	if s.queueTime != nil {
		p := percentilesMs(s.queueTime)
		snap.QueueTimeMs = &p
	}
	if snap.ChecksPassed+snap.ChecksFailed == 0 {
		snap.CheckPassRate = 1.0 // neutral-passing default, per §4.9
	} else {
		snap.CheckPassRate = float64(snap.ChecksPassed) / float64(snap.ChecksPassed+snap.ChecksFailed)
	}
	return snap
}

func percentilesMs(h interface {
	Mean() float64
	Max() int64
	ValueAtQuantile(float64) int64
}) LatencyPercentiles {
	return LatencyPercentiles{
		Mean: h.Mean() / 1000.0,
		P50:  microsToMs(h.ValueAtQuantile(50)),
		P75:  microsToMs(h.ValueAtQuantile(75)),
		P90:  microsToMs(h.ValueAtQuantile(90)),
		P95:  microsToMs(h.ValueAtQuantile(95)),
		P99:  microsToMs(h.ValueAtQuantile(99)),
		P999: microsToMs(h.ValueAtQuantile(99.9)),
		Max:  microsToMs(h.Max()),
	}
}

func copyStatusMap(m map[uint16]int64) map[uint16]int64 {
	out := make(map[uint16]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyErrorMap(m map[ErrorKind]int64) map[ErrorKind]int64 {
	out := make(map[ErrorKind]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
