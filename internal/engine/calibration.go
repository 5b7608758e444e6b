package engine

import (
	"fmt"
	"math"

	"github.com/mfeld/arbiter/internal/pack"
)

// Calibration thresholds. The drift computation is an intentionally
// simple seed-driven placeholder; the evaluation protocol around it
// is the point, not the statistics.
const (
	// calibrationTolerance is the |drift| band treated as calibrated.
	calibrationTolerance = 0.1

	// calibrationDriftCeiling is the hard-gate bound on |drift|.
	calibrationDriftCeiling = 0.35

	// calibrationSampleFloor is the hard-gate minimum sample count.
	calibrationSampleFloor = 30

	// calibrationSampleComfort is the soft-gate sample count below
	// which a small-sample warning is surfaced.
	calibrationSampleComfort = 100
)

// Calibration verdicts.
const (
	VerdictCalibrated     = "calibrated"
	VerdictOverconfident  = "overconfident"
	VerdictUnderconfident = "underconfident"
)

// evaluateCalibrationScenario classifies one claimed-vs-observed
// confidence pair.
//
// Draw order: exactly ONE generator draw per scenario, consumed as a
// ±0.005 jitter on the drift before classification.
func (e *Engine) evaluateCalibrationScenario(sc *pack.Scenario, ctx *runContext) *CalibrationEnvelope {
	in := *sc.Calibration

	drift := in.ClaimedConfidence - in.ObservedSupport
	drift += 0.01 * (ctx.gen.Next() - 0.5)

	verdict := VerdictCalibrated
	switch {
	case drift > calibrationTolerance:
		verdict = VerdictOverconfident
	case drift < -calibrationTolerance:
		verdict = VerdictUnderconfident
	}

	observations := []Observation{
		{
			GateID:    "decision_matches_expectation",
			Name:      "selected decision must equal the scenario's declared expectation",
			Kind:      GateHard,
			Pass:      verdict == sc.ExpectedDecision,
			Observed:  verdict,
			Threshold: sc.ExpectedDecision,
			Direction: "==",
		},
		{
			GateID:    "sample_floor",
			Name:      "sample count must meet the floor",
			Kind:      GateHard,
			Pass:      in.SampleCount >= calibrationSampleFloor,
			Observed:  fmt.Sprintf("%d", in.SampleCount),
			Threshold: fmt.Sprintf("%d", calibrationSampleFloor),
			Direction: ">=",
		},
		{
			GateID:    "drift_ceiling",
			Name:      "absolute drift must stay under the ceiling",
			Kind:      GateHard,
			Pass:      math.Abs(drift) <= calibrationDriftCeiling,
			Observed:  fmt.Sprintf("%.4f", math.Abs(drift)),
			Threshold: fmt.Sprintf("%.2f", calibrationDriftCeiling),
			Direction: "<=",
		},
		{
			GateID:    "sample_comfort",
			Name:      "sample count below comfort threshold",
			Kind:      GateSoft,
			Pass:      in.SampleCount >= calibrationSampleComfort,
			Observed:  fmt.Sprintf("%d samples", in.SampleCount),
			Threshold: fmt.Sprintf("%d", calibrationSampleComfort),
			Direction: ">=",
		},
	}

	failures, warnings, gateResults := EvaluateGates(observations, ctx.overrides, ctx.now)

	return &CalibrationEnvelope{
		BaseEnvelope: ctx.newBase(sc.ScenarioID, verdict, failures, warnings, gateResults),
		Calibration: CalibrationAssessment{
			ClaimedConfidence: in.ClaimedConfidence,
			ObservedSupport:   in.ObservedSupport,
			Drift:             drift,
			Verdict:           verdict,
		},
	}
}
