package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sim "github.com/bakeline/bakeline/sim"
	"github.com/bakeline/bakeline/sim/promexport"
	"github.com/bakeline/bakeline/sim/trace"
)

var (
	// CLI flags for the line
	configPath     string  // YAML or TOML config file
	logLevel       string  // Log verbosity level
	mixDuration    int64   // Minutes in the mixer
	bakeDuration   int64   // Minutes in the oven
	packDuration   int64   // Minutes in the packer
	transitDelay   int64   // Minutes to carry a batch between stations
	batchSizes     []int   // Units per batch, in creation order
	speed          float64 // Wall-clock speed multiplier (realtime mode)
	baseIntervalMs int64   // Wall-clock milliseconds per minute at speed 1

	// CLI flags for the run itself
	realtime     bool   // Pace ticks against the wall clock
	metricsAddr  string // Serve Prometheus metrics on this address (realtime mode)
	maxTicks     int64  // Give up after this many simulated minutes
	showLog      bool   // Print the event log
	summarizeLog bool   // Print per-kind event log counts
	outputFormat string // "text" or "json"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "bakeline",
	Short: "Discrete-time simulator for a mix/bake/pack production line",
}

// runCmd executes the simulation using parameters from config, environment and flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the production line simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if outputFormat != "text" && outputFormat != "json" {
			logrus.Fatalf("Invalid output format %q (want text or json)", outputFormat)
		}

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		logrus.Infof("Starting simulation: mix=%d bake=%d pack=%d transit=%d batches=%v",
			cfg.MixDuration, cfg.BakeDuration, cfg.PackDuration, cfg.TransitDelay, cfg.BatchSizes)

		startTime := time.Now()

		var snap sim.Snapshot
		if realtime {
			snap, err = runRealtime(cmd.Context(), cfg)
		} else {
			snap, err = runHeadless(cfg)
		}
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if err := writeReport(cmd.OutOrStdout(), cfg, snap); err != nil {
			logrus.Fatalf("Failed to write report: %v", err)
		}
		logrus.Infof("Simulation complete in %v wall time.", time.Since(startTime))
	},
}

// speedsCmd lists the recognized speed multipliers
var speedsCmd = &cobra.Command{
	Use:   "speeds",
	Short: "List recognized speed multipliers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, m := range sim.ValidSpeeds {
			fmt.Fprintf(cmd.OutOrStdout(), "%vx\n", m)
		}
	},
}

// runHeadless simulates as fast as possible.
func runHeadless(cfg sim.Config) (sim.Snapshot, error) {
	run, err := sim.NewPipelineRun(cfg, sim.WithManualTicks())
	if err != nil {
		return sim.Snapshot{}, err
	}
	return run.RunToCompletion(maxTicks)
}

// runRealtime paces the run with the wall clock until it completes or the
// process is interrupted. With --metrics-addr, /metrics is served alongside.
func runRealtime(parent context.Context, cfg sim.Config) (sim.Snapshot, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	run, err := sim.NewPipelineRun(cfg)
	if err != nil {
		return sim.Snapshot{}, err
	}
	defer run.Close()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(promexport.NewCollector(run))
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logrus.Infof("Serving metrics on %s/metrics", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		run.Start()
		done := run.Done()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			run.Pause()
			return fmt.Errorf("interrupted at minute %d", run.Snapshot().Time)
		}
	})

	err = g.Wait()
	cancel()
	return run.Snapshot(), err
}

// report is the JSON form of a finished run.
type report struct {
	RunID        string              `json:"run_id"`
	Config       sim.Config          `json:"config"`
	Stats        sim.Statistics      `json:"stats"`
	Log          []trace.Record      `json:"log,omitempty"`
	TraceSummary *trace.TraceSummary `json:"trace_summary,omitempty"` // nil unless --summarize-log
}

// writeReport renders the final snapshot in the selected format.
func writeReport(w io.Writer, cfg sim.Config, snap sim.Snapshot) error {
	if outputFormat == "json" {
		r := report{RunID: snap.RunID, Config: cfg, Stats: snap.Stats}
		if showLog {
			r.Log = snap.Log
		}
		if summarizeLog {
			r.TraceSummary = trace.Summarize(snap.Log)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	if showLog {
		if _, err := io.WriteString(w, trace.Text(snap.Log)); err != nil {
			return err
		}
	}
	snap.Stats.Print(w)
	if summarizeLog {
		trace.Summarize(snap.Log).Print(w)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags on cmd to the package-level variables.
func registerRunFlags(cmd *cobra.Command) {
	def := sim.DefaultConfig()

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Line configs
	cmd.Flags().Int64Var(&mixDuration, "mix", def.MixDuration, "Minutes a batch spends in the mixer")
	cmd.Flags().Int64Var(&bakeDuration, "bake", def.BakeDuration, "Minutes a batch spends in the oven")
	cmd.Flags().Int64Var(&packDuration, "pack", def.PackDuration, "Minutes a batch spends in the packer")
	cmd.Flags().Int64Var(&transitDelay, "transit", def.TransitDelay, "Minutes to carry a batch to the next station")
	cmd.Flags().IntSliceVar(&batchSizes, "batches", def.BatchSizes, "Comma-separated batch sizes, in creation order")
	cmd.Flags().Float64Var(&speed, "speed", def.Speed, "Speed multiplier for realtime mode (0.5, 1, 2, 5, 10)")
	cmd.Flags().Int64Var(&baseIntervalMs, "base-interval-ms", def.BaseIntervalMs, "Wall-clock milliseconds per minute at speed 1")

	// Run configs
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Pace the simulation against the wall clock")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address in realtime mode (e.g. :9090)")
	cmd.Flags().Int64Var(&maxTicks, "max-ticks", 100_000, "Stop with an error after this many simulated minutes")
	cmd.Flags().BoolVar(&showLog, "show-log", false, "Print the event log")
	cmd.Flags().BoolVar(&summarizeLog, "summarize-log", false, "Print per-kind event log counts after the metrics")
	cmd.Flags().StringVar(&outputFormat, "output", "text", "Report format (text, json)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(speedsCmd)
}
