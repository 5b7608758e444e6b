package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfeld/arbiter/internal/engine"
	"github.com/mfeld/arbiter/internal/pack"
	"github.com/mfeld/arbiter/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Seed      int64
	Mode      string
	Overrides string
	Database  string
	Out       string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <pack-file>",
		Short: "Evaluate a scenario pack",
		Long: `Evaluate a scenario pack and emit one result envelope per scenario
(or one aggregate envelope for the policy stream).

In report mode the command always exits 0 on valid input; gate
failures are just data. In enforce mode non-empty hard gate failures
map to exit code 1, distinct from exit code 2 for invalid input.

Example:
  arbiter eval pack.json --seed 42 --mode report
  arbiter eval pack.yaml --seed 7 --mode enforce --overrides ov.json --db audit.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "deterministic generator seed")
	cmd.Flags().StringVar(&opts.Mode, "mode", "report", "evaluation mode (report|enforce)")
	cmd.Flags().StringVar(&opts.Overrides, "overrides", "", "path to override list (JSON or YAML)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite audit database (optional)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the report to a file instead of stdout")

	return cmd
}

func runEval(opts *EvalOptions, packPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	slog.Info("loading pack", "path", packPath)
	p, err := LoadPack(packPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pack", err)
	}

	var overrides []pack.Override
	if opts.Overrides != "" {
		overrides, err = LoadOverrides(opts.Overrides)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load overrides", err)
		}
		slog.Info("overrides loaded", "count", len(overrides))
	}

	mode := engine.Mode(opts.Mode)
	eng := engine.New()
	result, err := eng.Evaluate(engine.Request{
		Pack:      p,
		Seed:      opts.Seed,
		Mode:      mode,
		Overrides: overrides,
		Now:       time.Now().UTC(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "evaluation failed", err)
	}
	slog.Info("evaluation complete",
		"input_hash", result.InputHash,
		"stream", string(p.Stream),
		"envelopes", len(result.Envelopes),
	)

	if opts.Database != "" {
		if err := persistResult(cmd, opts.Database, result); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist audit trail", err)
		}
	}

	if err := writeReport(opts, result); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	// Enforce mode: non-empty hard gate failures become a distinct
	// exit code AFTER the full report is written. The core evaluated
	// identically in both modes.
	if mode == engine.ModeEnforce {
		failures := 0
		for _, env := range result.Envelopes {
			failures += len(env.Base().HardGateFailures)
		}
		if failures > 0 {
			return NewExitError(ExitGateFailure, fmt.Sprintf("%d hard gate failure(s)", failures))
		}
	}
	return nil
}

func persistResult(cmd *cobra.Command, dbPath string, result *engine.Result) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing audit database", "error", closeErr)
		}
	}()

	if err := st.WriteResult(cmd.Context(), result); err != nil {
		return err
	}
	slog.Info("audit trail written", "db", dbPath, "envelopes", len(result.Envelopes))
	return nil
}

func writeReport(opts *EvalOptions, result *engine.Result) error {
	var w io.Writer = os.Stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return Render(opts.Format, w, result)
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
