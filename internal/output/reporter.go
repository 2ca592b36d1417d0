package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/arkhound/ballast/internal/engine"
)

const (
	boxHorizontal  = "━"
	boxVertical    = "│"
	boxTopLeft     = "┌"
	boxTopRight    = "┐"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"

	progressFilled = "█"
	progressEmpty  = "░"
)

// Reporter renders Snapshot and ThresholdResult values to a writer. Unlike
// the v2 ConsoleOutput it replaces, it never repaints a live region with
// raw cursor-control escapes - it is a snapshot-at-a-time reporter, not a
// TUI, so every Print call appends rather than overwrites.
type Reporter struct {
	name    string
	writer  io.Writer
	isTTY   bool
	quiet   bool
	noColor bool

	scheme *ColorScheme
}

// ReporterConfig configures a Reporter.
type ReporterConfig struct {
	Name        string
	Writer      io.Writer
	Quiet       bool
	ForceColors bool
	ForceTTY    bool
}

// NewReporter builds a Reporter. TTY and color detection mirror the
// teacher's console output: ForceColors/ForceTTY override, NO_COLOR
// disables, otherwise it defers to isatty on the underlying *os.File.
func NewReporter(cfg ReporterConfig) *Reporter {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	isTTY := cfg.ForceTTY || isTerminal(cfg.Writer)
	useColors := cfg.ForceColors || (isTTY && os.Getenv("NO_COLOR") == "")

	scheme := NoColorScheme()
	if useColors {
		scheme = DefaultColorScheme()
	}

	return &Reporter{
		name:    cfg.Name,
		writer:  cfg.Writer,
		isTTY:   isTTY,
		quiet:   cfg.Quiet,
		noColor: !useColors,
		scheme:  scheme,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintHeader prints the run banner.
func (r *Reporter) PrintHeader(model string) {
	if r.quiet {
		return
	}
	line := strings.Repeat(boxHorizontal, 56)
	fmt.Fprintln(r.writer, r.scheme.Dim.Sprint(line))
	fmt.Fprintln(r.writer, r.scheme.Bold.Sprintf("%s [%s]", r.name, model))
	fmt.Fprintln(r.writer, r.scheme.Dim.Sprint(line))
}

// PrintProgress writes one line describing the current Snapshot. It is
// meant to be called periodically off the Aggregator's Subscribe channel.
func (r *Reporter) PrintProgress(snap engine.Snapshot, targetVUs int) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.writer, fmt.Sprintf(
		"[%s] %-10s reqs=%s rps=%d vus=%d/%d errs=%s (%.1f%%) p95=%.1fms",
		formatElapsed(snap.Elapsed),
		snap.Phase,
		formatNumber(snap.Total),
		snap.RollingRPS,
		snap.VUsActive, targetVUs,
		formatNumber(snap.Failed),
		errorRate(snap)*100,
		snap.RawLatencyMs.P95,
	))
}

// PrintSummary prints the final statistics block for a completed run.
func (r *Reporter) PrintSummary(snap engine.Snapshot) {
	boxWidth := 55
	top := r.scheme.Dim.Sprint(boxTopLeft + strings.Repeat(boxHorizontal, boxWidth-2) + boxTopRight)
	bottom := r.scheme.Dim.Sprint(boxBottomLeft + strings.Repeat(boxHorizontal, boxWidth-2) + boxBottomRight)

	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, r.scheme.Bold.Sprintf("%s - %s", r.name, snap.Phase))
	fmt.Fprintln(r.writer, top)
	fmt.Fprintf(r.writer, "Total: %-12s Errors: %-12s Dropped: %d\n",
		formatNumber(snap.Total), r.colorizeRate(formatNumber(snap.Failed)+fmt.Sprintf(" (%.2f%%)", errorRate(snap)*100), errorRate(snap)),
		snap.DroppedIterations)
	fmt.Fprintf(r.writer, "VUs:   %d/%d            RPS: %d\n", snap.VUsActive, snap.VUsMax, snap.RollingRPS)
	fmt.Fprintln(r.writer, bottom)

	fmt.Fprintln(r.writer, r.scheme.Bold.Sprint("Latency (ms):"))
	p := snap.RawLatencyMs
	fmt.Fprintf(r.writer, "  mean=%.1f p50=%.1f p75=%.1f p90=%.1f p95=%.1f p99=%.1f p999=%.1f max=%.1f\n",
		p.Mean, p.P50, p.P75, p.P90, p.P95, p.P99, p.P999, p.Max)
	if snap.CorrectedLatencyMs != nil {
		c := *snap.CorrectedLatencyMs
		fmt.Fprintf(r.writer, "  corrected: mean=%.1f p50=%.1f p95=%.1f p99=%.1f max=%.1f\n",
			c.Mean, c.P50, c.P95, c.P99, c.Max)
	}
	fmt.Fprintf(r.writer, "Checks: %s passed / %s failed (%.1f%%)\n",
		formatNumber(snap.ChecksPassed), formatNumber(snap.ChecksFailed), snap.CheckPassRate*100)
}

// PrintThresholds prints each ThresholdResult with a pass/fail marker and
// returns whether every threshold passed.
func (r *Reporter) PrintThresholds(results []engine.ThresholdResult) bool {
	if len(results) == 0 {
		return true
	}
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, r.scheme.Bold.Sprint("Thresholds:"))
	for _, res := range results {
		icon := SuccessIcon(r.noColor)
		mark := r.scheme.StatusOK.Sprint("PASS")
		if !res.Passed {
			icon = ErrorIcon(r.noColor)
			mark = r.scheme.StatusError.Sprint("FAIL")
		}
		fmt.Fprintf(r.writer, "  %s %s %-26s actual=%.3f\n", icon, mark, res.Condition, res.Actual)
	}
	return engine.AllPassed(results)
}

func (r *Reporter) colorizeRate(s string, rate float64) string {
	switch {
	case rate > 0.05:
		return r.scheme.StatusError.Sprint(s)
	case rate > 0.01:
		return r.scheme.StatusWarn.Sprint(s)
	default:
		return r.scheme.StatusOK.Sprint(s)
	}
}

func errorRate(snap engine.Snapshot) float64 {
	if snap.Total == 0 {
		return 0
	}
	return float64(snap.Failed) / float64(snap.Total)
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%5.1fs", d.Seconds())
	}
	return fmt.Sprintf("%3dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}
	var b strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		b.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(str[i : i+3])
	}
	return b.String()
}
