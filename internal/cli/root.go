package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "markdown" | "csv"
}

// NewRootCommand creates the root command for the arbiter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "arbiter",
		Short: "Deterministic governance evaluation engine",
		Long: `Arbiter evaluates scenario packs against governance gates and
produces reproducible, provenance-carrying result envelopes.

For a fixed pack, seed, and mode, decisions and hard gate failures are
byte-identical across runs; only run IDs and timestamps vary.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "report format (json|markdown|csv)")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))

	return cmd
}
