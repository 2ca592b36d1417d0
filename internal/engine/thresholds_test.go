package engine_test

import (
	"testing"
	"time"

	"github.com/arkhound/ballast/internal/engine"
)

func buildSnapshotFor(t *testing.T, total, failed int64, elapsed time.Duration) engine.Snapshot {
	t.Helper()
	s := engine.NewStats(false)
	now := time.Now()
	for i := int64(0); i < total-failed; i++ {
		s.Record(engine.RequestResult{LatencyUs: 1000, Status: 200}, now)
	}
	for i := int64(0); i < failed; i++ {
		s.Record(engine.RequestResult{LatencyUs: 1000, HasError: true, Error: engine.ErrorTimeout}, now)
	}
	snap := engine.BuildSnapshot(s, engine.PhaseRunning, 0, 0, 0, 0)
	snap.Elapsed = elapsed
	return snap
}

func TestEvaluateThresholds_ErrorRate(t *testing.T) {
	snap := buildSnapshotFor(t, 100, 5, time.Second)
	thresholds := []engine.Threshold{
		{Metric: engine.MetricErrorRate, Operator: engine.OpLT, Value: 0.1},
	}
	results := engine.EvaluateThresholds(thresholds, snap)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if !results[0].Passed {
		t.Errorf("error_rate < 0.1 with 5%% errors should pass, got Passed=%v Actual=%v", results[0].Passed, results[0].Actual)
	}
}

func TestEvaluateThresholds_ErrorRateFails(t *testing.T) {
	snap := buildSnapshotFor(t, 100, 50, time.Second)
	thresholds := []engine.Threshold{
		{Metric: engine.MetricErrorRate, Operator: engine.OpLT, Value: 0.1},
	}
	results := engine.EvaluateThresholds(thresholds, snap)
	if results[0].Passed {
		t.Errorf("error_rate < 0.1 with 50%% errors should fail")
	}
}

func TestEvaluateThresholds_CheckPassRateDefaultsToOne(t *testing.T) {
	snap := buildSnapshotFor(t, 10, 0, time.Second)
	thresholds := []engine.Threshold{
		{Metric: engine.MetricCheckPassRate, Operator: engine.OpGE, Value: 1.0},
	}
	results := engine.EvaluateThresholds(thresholds, snap)
	if !results[0].Passed {
		t.Errorf("check_pass_rate with no checks configured should default to 1.0 and pass, got Actual=%v", results[0].Actual)
	}
}

func TestEvaluateThresholds_IsPure(t *testing.T) {
	snap := buildSnapshotFor(t, 10, 1, time.Second)
	thresholds := []engine.Threshold{
		{Metric: engine.MetricErrorRate, Operator: engine.OpLT, Value: 0.5},
	}
	first := engine.EvaluateThresholds(thresholds, snap)
	second := engine.EvaluateThresholds(thresholds, snap)
	if first[0].Actual != second[0].Actual || first[0].Passed != second[0].Passed {
		t.Error("EvaluateThresholds is not deterministic across repeated calls with the same snapshot")
	}
}

func TestAllPassed(t *testing.T) {
	results := []engine.ThresholdResult{{Passed: true}, {Passed: true}}
	if !engine.AllPassed(results) {
		t.Error("AllPassed() with all-true results = false, want true")
	}
	results = append(results, engine.ThresholdResult{Passed: false})
	if engine.AllPassed(results) {
		t.Error("AllPassed() with one false result = true, want false")
	}
}

func TestCompareOperators(t *testing.T) {
	snap := buildSnapshotFor(t, 10, 0, time.Second)
	cases := []struct {
		op   engine.ThresholdOperator
		want float64
		pass bool
	}{
		{engine.OpGE, 1.0, true},
		{engine.OpGT, 1.0, false},
		{engine.OpEQ, 1.0, true},
		{engine.OpNE, 1.0, false},
		{engine.OpLE, 1.0, true},
		{engine.OpLT, 1.0, false},
	}
	for _, c := range cases {
		results := engine.EvaluateThresholds([]engine.Threshold{
			{Metric: engine.MetricCheckPassRate, Operator: c.op, Value: c.want},
		}, snap)
		if results[0].Passed != c.pass {
			t.Errorf("operator %v against 1.0 == %v: Passed = %v, want %v", c.op, c.want, results[0].Passed, c.pass)
		}
	}
}
