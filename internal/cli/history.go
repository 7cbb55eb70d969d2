package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/madgwhat/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database    string
	Measurement string
	Results     string
}

// HistoryList is the output of history without a run id.
type HistoryList struct {
	Runs []store.Run `json:"runs"`
}

func (h HistoryList) WriteText(w io.Writer, verbose bool) error {
	if len(h.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	for _, r := range h.Runs {
		seed := "fresh"
		if r.Seed != nil {
			seed = fmt.Sprintf("seed=%d", *r.Seed)
		}
		fmt.Fprintf(w, "%4d  %s  %d module(s)  %s  input=%s  results=%s\n",
			r.Seq, r.ID, r.ModuleCount, seed, short(r.MeasurementFP), short(r.OutcomesFP))
	}
	return nil
}

// HistoryRun is the output of history with a run id.
type HistoryRun struct {
	Run store.Run `json:"run"`
}

func (h HistoryRun) WriteText(w io.Writer, verbose bool) error {
	r := h.Run
	fmt.Fprintf(w, "Run %s (seq %d)\n", r.ID, r.Seq)
	fmt.Fprintf(w, "Measurement: %s\n", r.Measurement)
	if r.Seed != nil {
		fmt.Fprintf(w, "Seed: %d\n", *r.Seed)
	}
	for _, o := range r.Outcomes {
		if o.Present() {
			fmt.Fprintf(w, "  %s  %s\n", o.Module, *o.Quaternion)
		} else {
			fmt.Fprintf(w, "  %s  absent (%s)\n", o.Module, o.Err)
		}
	}
	if verbose {
		fmt.Fprintf(w, "Measurement fingerprint: %s\n", r.MeasurementFP)
		fmt.Fprintf(w, "Outcomes fingerprint: %s\n", r.OutcomesFP)
	}
	return nil
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List the runs recorded with run --db, oldest first, or show one run's
outcomes.

Runs with equal input fingerprints fed their modules identical measurements;
equal result fingerprints mean byte-identical outcomes. --measurement and
--results list only the runs whose fingerprint starts with the given prefix,
as printed by the list.

Examples:
  madgwhat history --db history.db
  madgwhat history --db history.db --measurement 3f9a0c1d2e4b
  madgwhat history --db history.db --results 7be21f90a6c3
  madgwhat history --db history.db 0190a5c4-7d1e-7c3a-9f7e-2b1d4c6e8a90`,
		Args:          commandArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (required)")
	cmd.Flags().StringVar(&opts.Measurement, "measurement", "", "list runs whose input fingerprint starts with this prefix")
	cmd.Flags().StringVar(&opts.Results, "results", "", "list runs whose result fingerprint starts with this prefix")
	_ = cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("measurement", "results")

	return cmd
}

func showHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	filtered := opts.Measurement != "" || opts.Results != ""
	if filtered && len(args) > 0 {
		return out.Fail(CodeUsage, NewExitError(ExitCommandError, "a run id cannot be combined with --measurement or --results"))
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return out.Fail(CodeStore, WrapExitError(ExitCommandError, "database not found", err))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return out.Fail(CodeStore, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		var runs []store.Run
		switch {
		case opts.Measurement != "":
			runs, err = st.RunsByMeasurement(ctx, opts.Measurement)
		case opts.Results != "":
			runs, err = st.RunsByResults(ctx, opts.Results)
		default:
			runs, err = st.ListRuns(ctx)
		}
		if err != nil {
			return out.Fail(CodeStore, WrapExitError(ExitCommandError, "failed to list runs", err))
		}
		return out.Success(HistoryList{Runs: runs})
	}

	run, err := st.ReadRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		return out.Fail(CodeNotFound, WrapExitError(ExitCommandError, "unknown run", err))
	}
	if err != nil {
		return out.Fail(CodeStore, WrapExitError(ExitCommandError, "failed to read run", err))
	}
	return out.Success(HistoryRun{Run: run})
}
