package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/madgwhat/internal/catalog"
	"github.com/roach88/madgwhat/internal/filter"
	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/testutil"
)

// touchModule creates an empty file with the platform module extension and
// returns its canonical path.
func touchModule(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name+catalog.Extension)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	canonical, err := catalog.Canonicalize(path)
	require.NoError(t, err)
	return canonical
}

func constant(path string, q fusion.Quaternion) *testutil.FakeModule {
	return testutil.NewFakeModule(path, q)
}

// execRun runs the run command with a fake loader and returns stdout, stderr
// and the command error.
func execRun(t *testing.T, loader filter.Loader, args ...string) (string, string, error) {
	t.Helper()
	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}, Loader: loader}
	cmd := newRunCommand(opts)
	return execute(cmd, args, &opts.Format, &opts.Verbose)
}

// execute registers the global flags on cmd so a single subcommand can be
// run in isolation.
func execute(cmd *cobra.Command, args []string, format *string, verbose *bool) (string, string, error) {
	cmd.PersistentFlags().StringVar(format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "verbose output")

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// execRoot runs the full command tree.
func execRoot(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
