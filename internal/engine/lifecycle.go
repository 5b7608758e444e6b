package engine

import (
	"fmt"

	"github.com/mfeld/arbiter/internal/pack"
)

// lifecycleTransitions is the law lifecycle transition table.
// CRITICAL: retracted is terminal. It has no outgoing edges for any
// candidate, unconditionally.
var lifecycleTransitions = map[pack.LawState][]pack.LawState{
	pack.LawProposed:  {pack.LawTested},
	pack.LawTested:    {pack.LawFalsified, pack.LawConfirmed},
	pack.LawFalsified: {pack.LawRetracted},
	pack.LawConfirmed: {pack.LawRetracted},
	pack.LawRetracted: {},
}

// ConfirmationConfidenceFloor is the minimum confidence score for the
// tested→confirmed edge.
const ConfirmationConfidenceFloor = 0.3

// ConfirmationReplicationFloor is the minimum number of strong
// experimental evidence entries (independent replications) for
// tested→confirmed.
const ConfirmationReplicationFloor = 2

// IsValidTransition reports whether the edge from→to exists in the
// transition table. Pure lookup; preconditions are checked separately
// and only when the edge itself is structurally valid.
func IsValidTransition(from, to pack.LawState) bool {
	for _, next := range lifecycleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionRequirementFailures evaluates the per-edge preconditions
// for a structurally valid edge. Every failed requirement is
// reported; the check does not short-circuit.
func TransitionRequirementFailures(c *pack.LawCandidate, to pack.LawState) []string {
	failures := []string{}

	switch {
	case c.Status == pack.LawProposed && to == pack.LawTested:
		if countAtLeastModerate(c.EvidenceBasis) < 1 {
			failures = append(failures, "requires at least one strong or moderate evidence entry")
		}

	case c.Status == pack.LawTested && to == pack.LawFalsified:
		if len(c.FalsificationEvidence) < 1 {
			failures = append(failures, "requires at least one falsification evidence entry")
		}

	case c.Status == pack.LawTested && to == pack.LawConfirmed:
		if n := countStrongExperiments(c.EvidenceBasis); n < ConfirmationReplicationFloor {
			failures = append(failures, fmt.Sprintf(
				"requires %d strong experimental replications, found %d",
				ConfirmationReplicationFloor, n))
		}
		if len(c.FalsificationEvidence) > 0 {
			failures = append(failures, fmt.Sprintf(
				"%d outstanding falsification evidence entries must be resolved",
				len(c.FalsificationEvidence)))
		}
		if c.ConfidenceScore < ConfirmationConfidenceFloor {
			failures = append(failures, fmt.Sprintf(
				"confidence %.2f below floor %.2f",
				c.ConfidenceScore, ConfirmationConfidenceFloor))
		}
	}

	return failures
}

// Disqualifiers evaluates the candidate-level blockers that are
// independent of the requested edge and capable of blocking ANY
// transition.
func Disqualifiers(c *pack.LawCandidate) []string {
	disq := []string{}

	if len(c.FalsificationCriteria) == 0 {
		disq = append(disq, "unfalsifiable: no falsification criteria declared")
	}
	if circularEvidence(c) {
		disq = append(disq, "circular evidence: every evidence entry references the candidate itself")
	}
	for _, reason := range c.DisqualifyReasons {
		disq = append(disq, "upstream: "+reason)
	}
	if c.Disqualified && len(c.DisqualifyReasons) == 0 {
		disq = append(disq, "upstream: candidate flagged disqualified")
	}

	return disq
}

// circularEvidence reports whether the candidate's entire evidence
// basis points back at the candidate's own ID. An empty basis is not
// circular, it just fails evidence floors.
func circularEvidence(c *pack.LawCandidate) bool {
	if len(c.EvidenceBasis) == 0 {
		return false
	}
	for _, ev := range c.EvidenceBasis {
		if ev.Source != c.ID {
			return false
		}
	}
	return true
}

// lifecycleComplete reports whether a state is terminal-or-settled
// for audit purposes. falsified and confirmed still have one edge to
// retracted, but the candidate's scientific question is resolved.
func lifecycleComplete(s pack.LawState) bool {
	return s == pack.LawFalsified || s == pack.LawConfirmed || s == pack.LawRetracted
}

func countAtLeastModerate(evidence []pack.Evidence) int {
	n := 0
	for _, ev := range evidence {
		if ev.Strength == pack.StrengthStrong || ev.Strength == pack.StrengthModerate {
			n++
		}
	}
	return n
}

func countStrongExperiments(evidence []pack.Evidence) int {
	n := 0
	for _, ev := range evidence {
		if ev.SourceType == pack.SourceTypeExperiment && ev.Strength == pack.StrengthStrong {
			n++
		}
	}
	return n
}

func summarizeEvidence(c *pack.LawCandidate) EvidenceSummary {
	sum := EvidenceSummary{
		Total:         len(c.EvidenceBasis),
		Falsification: len(c.FalsificationEvidence),
	}
	for _, ev := range c.EvidenceBasis {
		switch ev.Strength {
		case pack.StrengthStrong:
			sum.Strong++
		case pack.StrengthModerate:
			sum.Moderate++
		case pack.StrengthWeak:
			sum.Weak++
		}
		if ev.SourceType == pack.SourceTypeExperiment {
			sum.Experimental++
		}
	}
	return sum
}

// evaluateLawScenario applies the lifecycle rules to one scenario.
// The law stream consumes no generator draws: lifecycle decisions are
// entirely rule-driven.
func (e *Engine) evaluateLawScenario(sc *pack.Scenario, ctx *runContext) *LawEnvelope {
	c := &sc.Law.Candidate
	from := c.Status
	to := sc.Law.RequestedState

	valid := IsValidTransition(from, to)
	var reqFailures []string
	if valid {
		reqFailures = TransitionRequirementFailures(c, to)
	} else {
		reqFailures = []string{}
	}
	disq := Disqualifiers(c)

	// The transition takes effect only when the edge is structurally
	// valid AND its preconditions hold AND nothing disqualifies the
	// candidate outright.
	newState := from
	decision := "blocked:" + string(from)
	if valid && len(reqFailures) == 0 && len(disq) == 0 {
		newState = to
		decision = string(to)
	}

	observations := []Observation{
		{
			GateID:    "decision_matches_expectation",
			Name:      "selected decision must equal the scenario's declared expectation",
			Kind:      GateHard,
			Pass:      decision == sc.ExpectedDecision,
			Observed:  decision,
			Threshold: sc.ExpectedDecision,
			Direction: "==",
		},
		{
			GateID:    "evidence_floor",
			Name:      "evidence count must meet the floor",
			Kind:      GateHard,
			Pass:      len(c.EvidenceBasis) >= 1,
			Observed:  fmt.Sprintf("%d", len(c.EvidenceBasis)),
			Threshold: "1",
			Direction: ">=",
		},
	}
	if to == pack.LawConfirmed {
		observations = append(observations, Observation{
			GateID:    "confidence_floor",
			Name:      "confidence must clear the floor before confirmation",
			Kind:      GateHard,
			Pass:      c.ConfidenceScore >= ConfirmationConfidenceFloor,
			Observed:  fmt.Sprintf("%.2f", c.ConfidenceScore),
			Threshold: fmt.Sprintf("%.2f", ConfirmationConfidenceFloor),
			Direction: ">=",
		})
	}

	failures, warnings, gateResults := EvaluateGates(observations, ctx.overrides, ctx.now)

	env := &LawEnvelope{
		BaseEnvelope:        ctx.newBase(sc.ScenarioID, decision, failures, warnings, gateResults),
		CandidateID:         c.ID,
		FromState:           from,
		RequestedState:      to,
		NewState:            newState,
		TransitionValid:     valid,
		RequirementFailures: reqFailures,
		Disqualifiers:       disq,
		LifecycleComplete:   lifecycleComplete(newState),
		EvidenceSummary:     summarizeEvidence(c),
	}
	return env
}
