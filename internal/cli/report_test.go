package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfeld/arbiter/internal/engine"
)

// reportResult builds a fully pinned result: fixed run IDs and
// timestamps make the rendered bytes reproducible.
func reportResult() *engine.Result {
	method := &engine.MethodEnvelope{
		BaseEnvelope: engine.BaseEnvelope{
			RunID:      "run-000",
			InputHash:  "a1b2c3",
			Seed:       42,
			Mode:       engine.ModeReport,
			Timestamp:  "2026-03-01T12:00:00Z",
			ScenarioID: "s1",
			Decision:   "do_calculus",
			HardGateFailures: []string{
				"selected decision must equal the scenario's declared expectation: observed do_calculus, required == granger_screen",
			},
			Warnings: []string{
				"backdoor_adjustment: sensitive to 1 known confounder(s)",
			},
			GateResults: []engine.GateResult{
				{
					GateID: "decision_matches_expectation", Name: "selected decision must equal the scenario's declared expectation",
					Kind: engine.GateHard, ScenarioID: "", Pass: false,
					Observed: "do_calculus", Threshold: "granger_screen", Direction: "==",
				},
				{
					GateID: "disqualified_never_selected", Name: "a disqualified entry must never be the one selected",
					Kind: engine.GateHard, Pass: true,
					Observed: "eligible", Threshold: "eligible", Direction: "==",
				},
			},
		},
		RankedMethods: []engine.ScoredEntry{{ID: "do_calculus", Score: 0.87}},
	}

	policy := &engine.PolicyEnvelope{
		BaseEnvelope: engine.BaseEnvelope{
			RunID:            "run-001",
			InputHash:        "a1b2c3",
			Seed:             42,
			Mode:             engine.ModeReport,
			Timestamp:        "2026-03-01T12:00:00Z",
			Decision:         "factorial_ab",
			HardGateFailures: []string{},
			Warnings:         []string{},
			GateResults:      []engine.GateResult{},
		},
		WinRates: map[string]float64{"factorial_ab": 1.0},
	}

	return &engine.Result{
		InputHash: "a1b2c3",
		Envelopes: []engine.Envelope{method, policy},
	}
}

func TestRenderMarkdownGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render("markdown", &buf, reportResult()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report_markdown", buf.Bytes())
}

func TestRenderCSVGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render("csv", &buf, reportResult()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report_csv", buf.Bytes())
}

func TestRenderJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render("json", &buf, reportResult()))

	var decoded struct {
		InputHash string            `json:"inputHash"`
		Envelopes []json.RawMessage `json:"envelopes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a1b2c3", decoded.InputHash)
	require.Len(t, decoded.Envelopes, 2)

	var method engine.MethodEnvelope
	require.NoError(t, json.Unmarshal(decoded.Envelopes[0], &method))
	assert.Equal(t, "run-000", method.RunID)
	assert.Equal(t, "do_calculus", method.Decision)
	assert.Equal(t, []engine.ScoredEntry{{ID: "do_calculus", Score: 0.87}}, method.RankedMethods)
}

func TestRenderCSVQuotesListFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render("csv", &buf, reportResult()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"runId,inputHash,seed,mode,stream,scenarioId,decision,pass,hardGateFailures,warnings",
		lines[0])
	assert.Contains(t, lines[1], `"selected decision`)
	assert.True(t, strings.HasSuffix(lines[2], "factorial_ab,true,,"))
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Render("xml", &buf, reportResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}
