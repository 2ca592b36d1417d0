package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arkhound/ballast/internal/config"
	"github.com/arkhound/ballast/internal/engine"
	"github.com/arkhound/ballast/internal/output"
)

// Exit codes, per the engine's exit-code contract: the core returns data,
// the CLI maps it to a process exit status.
const (
	exitOK                 = 0
	exitFatalConfiguration = 1
	exitThresholdViolation = 4
)

var runCmd = &cobra.Command{
	Use:   "run CONFIG",
	Short: "Run a load test from a YAML config file",
	Long: `Run executes a load test described by a YAML config file: the scenarios
to request, the load model (closed, open, ramping-open, or burst), and
any pass/fail thresholds to evaluate against the final result.

  ballast run load.yaml
  ballast run load.yaml --quiet`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runLoadTest(cmd, args[0]))
	},
}

func init() {
	runCmd.Flags().Bool("quiet", false, "suppress progress output; print only the summary and exit status")
	runCmd.Flags().Duration("progress-interval", time.Second, "interval between progress lines")
}

func runLoadTest(cmd *cobra.Command, configPath string) int {
	quiet, _ := cmd.Flags().GetBool("quiet")
	progressInterval, _ := cmd.Flags().GetDuration("progress-interval")

	file, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitFatalConfiguration
	}

	loadCfg, err := config.ToLoadConfig(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building load config: %v\n", err)
		return exitFatalConfiguration
	}

	reporter := output.NewReporter(output.ReporterConfig{
		Name:  file.Name,
		Quiet: quiet,
	})
	reporter.PrintHeader(string(loadCfg.Model))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	eng := engine.New(loadCfg)

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	done := make(chan struct{})
	finalSnap := make(chan engine.Snapshot, 1)
	go func() {
		var latest engine.Snapshot
		haveSnap := false
		for {
			select {
			case snap := <-eng.Subscribe():
				latest = snap
				haveSnap = true
			case <-ticker.C:
				if haveSnap {
					reporter.PrintProgress(latest, loadCfg.MaxVUs)
				}
			case <-done:
				finalSnap <- latest
				return
			}
		}
	}()

	stats, err := eng.Run(ctx)
	close(done)
	last := <-finalSnap
	// The Aggregator publishes its final snapshot before Run returns; take
	// it here in case the progress loop never received it.
	select {
	case snap := <-eng.Subscribe():
		last = snap
	default:
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running load test: %v\n", err)
		return exitFatalConfiguration
	}

	snap := engine.BuildSnapshot(stats, engine.PhaseCompleted, last.VUsActive, loadCfg.MaxVUs, last.TargetRate, last.DroppedIterations)
	reporter.PrintSummary(snap)

	thresholds := config.ToThresholds(file)
	results := engine.EvaluateThresholds(thresholds, snap)
	if !reporter.PrintThresholds(results) {
		return exitThresholdViolation
	}
	return exitOK
}
