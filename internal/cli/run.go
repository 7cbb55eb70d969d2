package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/madgwhat/internal/aggregate"
	"github.com/roach88/madgwhat/internal/catalog"
	"github.com/roach88/madgwhat/internal/filter"
	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/harness"
	"github.com/roach88/madgwhat/internal/measure"
	"github.com/roach88/madgwhat/internal/metrics"
	"github.com/roach88/madgwhat/internal/publish"
	"github.com/roach88/madgwhat/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SourceOptions

	Scenario         string
	Seed             uint64
	Beta             float32
	Deltat           float32
	Tolerance        float64
	Database         string
	MetricsFile      string
	MQTTBroker       string
	MQTTTopic        string
	FailOnDivergence bool

	// Loader allows overriding how modules are opened (for testing).
	// If nil, native modules are loaded with filter.NewLoader.
	Loader filter.Loader
}

// RunResult is the output of the run command.
type RunResult struct {
	Scenario      string           `json:"scenario,omitempty"`
	RunID         string           `json:"run_id,omitempty"`
	Seed          *uint64          `json:"seed,omitempty"`
	MeasurementFP string           `json:"measurement_fp"`
	OutcomesFP    string           `json:"outcomes_fp"`
	Tolerance     float64          `json:"tolerance"`
	Report        aggregate.Report `json:"report"`
}

func (r RunResult) WriteText(w io.Writer, verbose bool) error {
	if len(r.Report.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No modules loaded.")
		return err
	}

	fmt.Fprintf(w, "Measurement: %s\n", r.Report.Measurement)
	if r.Seed != nil {
		fmt.Fprintf(w, "Seed: %d\n", *r.Seed)
	}
	for _, e := range r.Report.Entries {
		switch {
		case !e.Present():
			fmt.Fprintf(w, "  %s  absent (%s)\n", e.Module, e.Err)
		case e.Reference:
			fmt.Fprintf(w, "  %s  %s  reference\n", e.Module, *e.Quaternion)
		case e.Agree:
			fmt.Fprintf(w, "  %s  %s  max_abs_err=%g\n", e.Module, *e.Quaternion, float64(e.MaxAbsErr))
		default:
			fmt.Fprintf(w, "  %s  %s  max_abs_err=%g DIVERGED\n", e.Module, *e.Quaternion, float64(e.MaxAbsErr))
		}
	}

	present := 0
	for _, e := range r.Report.Entries {
		if e.Present() {
			present++
		}
	}
	fmt.Fprintf(w, "%d module(s), %d result(s), %d divergent (tolerance %g)\n",
		len(r.Report.Entries), present, r.Report.Divergent, r.Tolerance)

	if verbose {
		fmt.Fprintf(w, "Measurement fingerprint: %s\n", r.MeasurementFP)
		fmt.Fprintf(w, "Outcomes fingerprint: %s\n", r.OutcomesFP)
	}
	if r.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", r.RunID)
	}
	return nil
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Feed one measurement to every module and compare results",
		Long: `Discover and load filter modules, feed each the same measurement, and
print the sorted results with their divergence from the reference module.

The measurement is random unless --seed or a scenario fixes it. Modules that
fail to load are reported on stderr and left out. A module without the
madgwick_filter entry point yields an absent result.

Exit codes:
  0 - Run completed (including an empty bench)
  1 - Modules diverged and --fail-on-divergence was set
  2 - Command error (bad flags, unreadable scenario, store failure)

Examples:
  madgwhat run -d ./build
  madgwhat run ./build/refac2.so ./build/reference.so --seed 42 --beta 0.6
  madgwhat run --scenario bench.yaml --db history.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, args, cmd)
		},
	}

	opts.SourceOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "bench profile YAML file")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for a reproducible measurement")
	cmd.Flags().Float32Var(&opts.Beta, "beta", 0, "call set_beta on every module that exports it")
	cmd.Flags().Float32Var(&opts.Deltat, "deltat", 0, "call set_deltat on every module that exports it")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", aggregate.DefaultTolerance, "largest absolute difference counted as agreement")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite history database")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	cmd.Flags().StringVar(&opts.MQTTBroker, "mqtt-broker", "", "publish the result to this MQTT broker (e.g. tcp://localhost:1883)")
	cmd.Flags().StringVar(&opts.MQTTTopic, "mqtt-topic", publish.DefaultTopic, "MQTT topic for published results")
	cmd.Flags().BoolVar(&opts.FailOnDivergence, "fail-on-divergence", false, "exit 1 when modules disagree beyond tolerance")

	return cmd
}

// benchPlan is the merged configuration of scenario and flags.
type benchPlan struct {
	name        string
	files       []string
	dirs        []string
	seed        *uint64
	measurement *fusion.Measurement
	tuning      harness.Tuning
	tolerance   float64
}

// plan merges the scenario with the flags. Flags override scenario values;
// file and directory lists append.
func plan(opts *RunOptions, args []string, cmd *cobra.Command) (benchPlan, error) {
	p := benchPlan{tolerance: aggregate.DefaultTolerance}

	if opts.Scenario != "" {
		s, err := harness.LoadScenario(opts.Scenario)
		if err != nil {
			return benchPlan{}, err
		}
		p.name = s.Name
		p.files = s.Files
		p.dirs = s.Dirs
		p.seed = s.Seed
		if s.Measurement != nil {
			p.seed = nil
			p.measurement = s.Measurement
		}
		p.tuning = s.Tuning()
		if s.Tolerance != nil {
			p.tolerance = *s.Tolerance
		}
	}

	p.files = slices.Concat(p.files, opts.Files, args)
	p.dirs = slices.Concat(p.dirs, opts.Dirs)

	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed := opts.Seed
		p.seed = &seed
		p.measurement = nil
	}
	if flags.Changed("beta") {
		if !finite(float64(opts.Beta)) {
			return benchPlan{}, fmt.Errorf("beta must be finite, got %v", opts.Beta)
		}
		beta := opts.Beta
		p.tuning.Beta = &beta
	}
	if flags.Changed("deltat") {
		if !finite(float64(opts.Deltat)) {
			return benchPlan{}, fmt.Errorf("deltat must be finite, got %v", opts.Deltat)
		}
		deltat := opts.Deltat
		p.tuning.Deltat = &deltat
	}
	if flags.Changed("tolerance") {
		if !finite(opts.Tolerance) || opts.Tolerance < 0 {
			return benchPlan{}, fmt.Errorf("tolerance must be finite and non-negative, got %v", opts.Tolerance)
		}
		p.tolerance = opts.Tolerance
	}
	return p, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (p benchPlan) generate() fusion.Measurement {
	switch {
	case p.measurement != nil:
		return *p.measurement
	case p.seed != nil:
		return measure.NewSeeded(*p.seed).Generate()
	default:
		return measure.NewFresh().Generate()
	}
}

func runBench(opts *RunOptions, args []string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	out := newFormatter(opts.RootOptions, cmd)

	p, err := plan(opts, args, cmd)
	if err != nil {
		return out.Fail(CodeScenario, WrapExitError(ExitCommandError, "invalid bench configuration", err))
	}

	var rec *metrics.Recorder
	if opts.MetricsFile != "" {
		rec = metrics.New()
	}

	paths := catalog.Discover(p.files, p.dirs, logger)
	rec.ModulesDiscovered(len(paths))
	logger.Debug("discovered modules", "count", len(paths))

	bench := harness.New(paths, harness.Options{
		Loader:  opts.Loader,
		Logger:  logger,
		Metrics: rec,
	})
	if bench.Len() == 0 {
		logger.Warn("no modules loaded", "candidates", len(paths))
	}
	bench.Tune(p.tuning)

	run := bench.Run(p.generate())
	report := aggregate.Aggregate(run, aggregate.Tolerance{Abs: p.tolerance})
	rec.DivergentModules(report.Divergent)

	outcomesFP, err := report.Fingerprint()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint outcomes", err)
	}
	result := RunResult{
		Scenario:      p.name,
		Seed:          p.seed,
		MeasurementFP: fusion.MeasurementFingerprint(report.Measurement),
		OutcomesFP:    outcomesFP,
		Tolerance:     p.tolerance,
		Report:        report,
	}

	if opts.Database != "" {
		id, err := recordRun(cmd.Context(), opts.Database, report, p.seed)
		if err != nil {
			return out.Fail(CodeStore, WrapExitError(ExitCommandError, "failed to record run", err))
		}
		result.RunID = id
		logger.Debug("run recorded", "db", opts.Database, "run_id", id)
	}

	if opts.MQTTBroker != "" {
		publishResult(opts, result, logger)
	}

	if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
		logger.Warn("metrics not written", "path", opts.MetricsFile, "error", err)
	}

	if err := out.Success(result); err != nil {
		return err
	}

	if opts.FailOnDivergence && report.Diverged {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d module(s) diverged from reference %s", report.Divergent, report.Reference))
	}
	return nil
}

func recordRun(ctx context.Context, path string, report aggregate.Report, seed *uint64) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := store.NewRun(report.Measurement, report.Outcomes(), seed)
	if err != nil {
		return "", err
	}
	stored, _, err := st.WriteRun(ctx, run)
	if err != nil {
		return "", err
	}
	return stored.ID, nil
}

// publishResult sends the result to MQTT. Failures never change the run result.
func publishResult(opts *RunOptions, result RunResult, logger *slog.Logger) {
	payload, err := json.Marshal(result)
	if err != nil {
		logger.Warn("result not published", "error", err)
		return
	}

	p := publish.MQTT{Broker: opts.MQTTBroker, Topic: opts.MQTTTopic}
	if err := p.Publish(payload); err != nil {
		logger.Warn("result not published", "broker", opts.MQTTBroker, "error", err)
		return
	}
	logger.Debug("result published", "broker", opts.MQTTBroker, "topic", opts.MQTTTopic)
}
