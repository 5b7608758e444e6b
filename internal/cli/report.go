package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mfeld/arbiter/internal/engine"
)

// ValidFormats lists the supported report formats.
var ValidFormats = []string{"json", "markdown", "csv"}

// Render writes an evaluation result in the requested format.
func Render(format string, w io.Writer, res *engine.Result) error {
	switch format {
	case "json":
		return renderJSON(w, res)
	case "markdown":
		return renderMarkdown(w, res)
	case "csv":
		return renderCSV(w, res)
	default:
		return fmt.Errorf("unknown format %q: must be one of %v", format, ValidFormats)
	}
}

type jsonReport struct {
	InputHash string            `json:"inputHash"`
	Envelopes []engine.Envelope `json:"envelopes"`
}

func renderJSON(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{InputHash: res.InputHash, Envelopes: res.Envelopes})
}

func renderMarkdown(w io.Writer, res *engine.Result) error {
	fmt.Fprintf(w, "# Governance Evaluation Report\n\n")
	fmt.Fprintf(w, "- Input hash: `%s`\n", res.InputHash)
	fmt.Fprintf(w, "- Envelopes: %d\n", len(res.Envelopes))

	for _, env := range res.Envelopes {
		base := env.Base()

		title := string(env.Stream())
		if base.ScenarioID != "" {
			title += " / " + base.ScenarioID
		} else {
			title += " / aggregate"
		}
		fmt.Fprintf(w, "\n## %s\n\n", title)
		fmt.Fprintf(w, "- Run: `%s` at %s\n", base.RunID, base.Timestamp)
		fmt.Fprintf(w, "- Seed: %d, mode: %s\n", base.Seed, base.Mode)
		fmt.Fprintf(w, "- Decision: **%s** (%s)\n", base.Decision, verdict(base))

		if len(base.HardGateFailures) > 0 {
			fmt.Fprintf(w, "\n### Hard gate failures\n\n")
			for _, f := range base.HardGateFailures {
				fmt.Fprintf(w, "- %s\n", f)
			}
		}
		if len(base.Warnings) > 0 {
			fmt.Fprintf(w, "\n### Warnings\n\n")
			for _, warn := range base.Warnings {
				fmt.Fprintf(w, "- %s\n", warn)
			}
		}
		if len(base.GateResults) > 0 {
			fmt.Fprintf(w, "\n### Gates\n\n")
			fmt.Fprintf(w, "| Gate | Kind | Pass | Observed | Threshold | Overridden |\n")
			fmt.Fprintf(w, "|------|------|------|----------|-----------|------------|\n")
			for _, g := range base.GateResults {
				fmt.Fprintf(w, "| %s | %s | %t | %s | %s %s | %t |\n",
					g.GateID, g.Kind, g.Pass, g.Observed, g.Direction, g.Threshold, g.Overridden)
			}
		}
	}
	return nil
}

func renderCSV(w io.Writer, res *engine.Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"runId", "inputHash", "seed", "mode", "stream", "scenarioId",
		"decision", "pass", "hardGateFailures", "warnings",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, env := range res.Envelopes {
		base := env.Base()
		row := []string{
			base.RunID,
			base.InputHash,
			strconv.FormatInt(base.Seed, 10),
			string(base.Mode),
			string(env.Stream()),
			base.ScenarioID,
			base.Decision,
			strconv.FormatBool(base.Passed()),
			strings.Join(base.HardGateFailures, "; "),
			strings.Join(base.Warnings, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func verdict(base *engine.BaseEnvelope) string {
	if base.Passed() {
		return "pass"
	}
	return fmt.Sprintf("%d hard gate failure(s)", len(base.HardGateFailures))
}
