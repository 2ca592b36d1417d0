package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arkhound/ballast/internal/engine"
)

func TestReporter_PrintHeader(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "checkout-load", Writer: &buf})

	r.PrintHeader("closed")

	out := buf.String()
	if !strings.Contains(out, "checkout-load") || !strings.Contains(out, "closed") {
		t.Errorf("PrintHeader() output = %q, want it to contain the run name and model", out)
	}
}

func TestReporter_PrintHeader_QuietSuppressesOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "x", Writer: &buf, Quiet: true})

	r.PrintHeader("closed")

	if buf.Len() != 0 {
		t.Errorf("PrintHeader() in quiet mode wrote %q, want no output", buf.String())
	}
}

func TestReporter_PrintProgress(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "x", Writer: &buf})

	r.PrintProgress(engine.Snapshot{
		Phase:      engine.PhaseRunning,
		Total:      100,
		Failed:     2,
		RollingRPS: 50,
		VUsActive:  4,
	}, 10)

	out := buf.String()
	if !strings.Contains(out, "reqs=100") {
		t.Errorf("PrintProgress() output = %q, want it to contain reqs=100", out)
	}
	if !strings.Contains(out, "rps=50") {
		t.Errorf("PrintProgress() output = %q, want it to contain rps=50", out)
	}
}

func TestReporter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "checkout-load", Writer: &buf})

	r.PrintSummary(engine.Snapshot{
		Phase:         engine.PhaseCompleted,
		Total:         500,
		Successful:    490,
		Failed:        10,
		RollingRPS:    100,
		VUsActive:     5,
		VUsMax:        10,
		ChecksPassed:  480,
		ChecksFailed:  20,
		CheckPassRate: 0.96,
		RawLatencyMs:  engine.LatencyPercentiles{Mean: 12.3, P50: 10, P95: 25, P99: 40, Max: 80},
	})

	out := buf.String()
	if !strings.Contains(out, "checkout-load") {
		t.Errorf("PrintSummary() output missing run name: %q", out)
	}
	if !strings.Contains(out, "500") {
		t.Errorf("PrintSummary() output missing total count: %q", out)
	}
}

func TestReporter_PrintThresholds_AllPassed(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "x", Writer: &buf})

	ok := r.PrintThresholds([]engine.ThresholdResult{
		{Metric: engine.MetricErrorRate, Condition: "error_rate lt 0.05", Actual: 0.01, Passed: true},
		{Metric: engine.MetricP95Latency, Condition: "p95_latency_ms lt 200", Actual: 150, Passed: true},
	})
	if !ok {
		t.Error("PrintThresholds() = false, want true when every result passed")
	}
	if !strings.Contains(buf.String(), "PASS") {
		t.Errorf("PrintThresholds() output = %q, want it to mention PASS", buf.String())
	}
}

func TestReporter_PrintThresholds_OneFailed(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "x", Writer: &buf})

	ok := r.PrintThresholds([]engine.ThresholdResult{
		{Metric: engine.MetricErrorRate, Condition: "error_rate lt 0.05", Actual: 0.01, Passed: true},
		{Metric: engine.MetricP95Latency, Condition: "p95_latency_ms lt 200", Actual: 250, Passed: false},
	})
	if ok {
		t.Error("PrintThresholds() = true, want false when one result failed")
	}
	if !strings.Contains(buf.String(), "FAIL") {
		t.Errorf("PrintThresholds() output = %q, want it to mention FAIL", buf.String())
	}
}

func TestReporter_PrintThresholds_EmptyPasses(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Name: "x", Writer: &buf})

	if !r.PrintThresholds(nil) {
		t.Error("PrintThresholds(nil) = false, want true (no thresholds configured is vacuously passing)")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
