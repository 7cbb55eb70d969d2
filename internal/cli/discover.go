package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/madgwhat/internal/catalog"
)

// SourceOptions selects candidate modules. Shared by run and discover.
type SourceOptions struct {
	Files []string
	Dirs  []string
}

func (s *SourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&s.Files, "file", "f", nil, "module path to load (repeatable)")
	cmd.Flags().StringArrayVarP(&s.Dirs, "dir", "d", nil, "directory to scan for modules (repeatable)")
}

// DiscoverResult lists the candidates a run would attempt to load.
type DiscoverResult struct {
	Extension string   `json:"extension"`
	Modules   []string `json:"modules"`
}

func (r DiscoverResult) WriteText(w io.Writer, verbose bool) error {
	if len(r.Modules) == 0 {
		_, err := fmt.Fprintln(w, "No modules found.")
		return err
	}
	for _, m := range r.Modules {
		if _, err := fmt.Fprintln(w, m); err != nil {
			return err
		}
	}
	if verbose {
		_, err := fmt.Fprintf(w, "%d candidate(s) with extension %s\n", len(r.Modules), r.Extension)
		return err
	}
	return nil
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	src := &SourceOptions{}

	cmd := &cobra.Command{
		Use:   "discover [paths...]",
		Short: "List candidate modules without loading them",
		Long: `List the canonical paths of every candidate module.

Explicit paths (positional or -f) that do not exist are dropped. Directories
(-d) are scanned for regular files with the platform module extension.

Examples:
  madgwhat discover -d ./build
  madgwhat discover ./build/refac2.so --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(rootOpts, cmd.ErrOrStderr())
			modules := catalog.Discover(slices.Concat(src.Files, args), src.Dirs, logger)
			return newFormatter(rootOpts, cmd).Success(DiscoverResult{
				Extension: catalog.Extension,
				Modules:   modules,
			})
		},
	}
	src.register(cmd)

	return cmd
}
