package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Overrides string
}

// NewValidateCommand creates the validate command: schema-check a
// pack (and optionally an override list) without evaluating anything.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "validate <pack-file>",
		Short:         "Validate a scenario pack against the schema",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := LoadPack(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid pack", err)
			}

			if opts.Overrides != "" {
				overrides, err := LoadOverrides(opts.Overrides)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid overrides", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "overrides OK: %d entries\n", len(overrides))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pack OK: stream %s, %d scenario(s), version %s\n",
				p.Stream, len(p.Scenarios), p.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Overrides, "overrides", "", "path to override list to validate as well")

	return cmd
}
