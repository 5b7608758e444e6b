package engine

import (
	"fmt"
	"time"

	"github.com/mfeld/arbiter/internal/pack"
)

// GateKind distinguishes blocking from advisory gates.
type GateKind string

const (
	// GateHard failures block approval unless overridden.
	GateHard GateKind = "hard"
	// GateSoft failures are surfaced as warnings regardless of
	// override state.
	GateSoft GateKind = "soft"
)

// OverriddenPrefix marks a hard-gate failure that an active override
// reclassified into a warning. The prefix is part of the output
// contract: audit trails must never be silent about suppression.
const OverriddenPrefix = "[OVERRIDDEN] "

// Observation is one evaluated gate condition, before override
// processing. Evaluators produce observations in a fixed order per
// stream; that order is part of the determinism contract.
type Observation struct {
	GateID     string
	Name       string
	Kind       GateKind
	ScenarioID string
	Pass       bool
	Observed   string
	Threshold  string
	Direction  string // "==", ">=", "<="
}

// GateResult is the audit record for one gate outcome.
type GateResult struct {
	GateID     string   `json:"gateId"`
	Name       string   `json:"name"`
	Kind       GateKind `json:"kind"`
	ScenarioID string   `json:"scenarioId,omitempty"`
	Pass       bool     `json:"pass"`
	Observed   string   `json:"observed"`
	Threshold  string   `json:"threshold"`
	Direction  string   `json:"direction"`
	Overridden bool     `json:"overridden,omitempty"`
	OverrideID string   `json:"overrideId,omitempty"`
}

// EvaluateGates classifies observations into hard failures and
// warnings, honoring time-bounded overrides.
//
// An override is active iff its gate field equals the observation's
// GateID and now is strictly before expiresAt; an override expiring
// exactly at now is already inert. `now` is an explicit parameter,
// never read from a global clock, so tests can pin expiry boundaries.
//
// Overrides reclassify, they never delete: a suppressed hard failure
// becomes a warning carrying the original failure text behind
// OverriddenPrefix, and the GateResult records which override fired.
//
// Never returns an error; zero hard failures is the only pass signal.
// Mode does not reach this function.
func EvaluateGates(observations []Observation, overrides []pack.Override, now time.Time) (failures, warnings []string, results []GateResult) {
	failures = []string{}
	warnings = []string{}
	results = make([]GateResult, 0, len(observations))

	for _, obs := range observations {
		res := GateResult{
			GateID:     obs.GateID,
			Name:       obs.Name,
			Kind:       obs.Kind,
			ScenarioID: obs.ScenarioID,
			Pass:       obs.Pass,
			Observed:   obs.Observed,
			Threshold:  obs.Threshold,
			Direction:  obs.Direction,
		}

		if obs.Pass {
			results = append(results, res)
			continue
		}

		text := failureText(obs)
		if obs.Kind == GateSoft {
			warnings = append(warnings, text)
			results = append(results, res)
			continue
		}

		if ov := activeOverride(obs.GateID, overrides, now); ov != nil {
			res.Overridden = true
			res.OverrideID = ov.ID
			warnings = append(warnings, OverriddenPrefix+text)
		} else {
			failures = append(failures, text)
		}
		results = append(results, res)
	}

	return failures, warnings, results
}

// IsGateOverridden reports whether some override suppresses the named
// gate at the given instant.
func IsGateOverridden(gateID string, overrides []pack.Override, now time.Time) bool {
	return activeOverride(gateID, overrides, now) != nil
}

// activeOverride returns the first active override targeting gateID,
// in list order. Expired or mismatched overrides are inert.
func activeOverride(gateID string, overrides []pack.Override, now time.Time) *pack.Override {
	for i := range overrides {
		if overrides[i].ActiveFor(gateID, now) {
			return &overrides[i]
		}
	}
	return nil
}

func failureText(obs Observation) string {
	var text string
	if obs.Threshold != "" {
		text = fmt.Sprintf("%s: observed %s, required %s %s", obs.Name, obs.Observed, obs.Direction, obs.Threshold)
	} else {
		text = fmt.Sprintf("%s: %s", obs.Name, obs.Observed)
	}
	if obs.ScenarioID != "" {
		text = fmt.Sprintf("scenario %s: %s", obs.ScenarioID, text)
	}
	return text
}
