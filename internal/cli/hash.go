package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfeld/arbiter/internal/pack"
)

// NewHashCommand creates the hash command: print a pack's canonical
// fingerprint without evaluating it. Useful for joining a pack file
// to recorded audit rows.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "hash <pack-file>",
		Short:         "Print the canonical input hash of a scenario pack",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := LoadPack(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid pack", err)
			}
			digest, err := pack.Hash(p)
			if err != nil {
				return WrapExitError(ExitCommandError, "pack is not hashable", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
}
