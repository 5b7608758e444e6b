package engine

import (
	"fmt"

	"github.com/mfeld/arbiter/internal/catalog"
	"github.com/mfeld/arbiter/internal/pack"
)

// evaluateMethodScenario selects a causal-inference method for one
// data regime.
//
// Draw order: one generator draw per ELIGIBLE catalog entry, in
// catalog declaration order. Ineligible entries consume no draws.
// This order is part of the determinism contract.
func (e *Engine) evaluateMethodScenario(sc *pack.Scenario, ctx *runContext) *MethodEnvelope {
	regime := *sc.Regime

	// Eligibility for EVERY catalog entry, declaration order. Pure;
	// depends on the regime, never the seed.
	eligibility := make([]catalog.EligibilityResult, 0, len(e.methods))
	var eligible []catalog.MethodCard
	for _, card := range e.methods {
		res := catalog.CheckMethodEligibility(card, regime)
		eligibility = append(eligibility, res)
		if res.Eligible {
			eligible = append(eligible, card)
		}
	}

	ranked, fallbackUsed := e.scoreMethods(eligible, ctx)
	selected := ranked[0]

	observations := selectionObservations("", selected, sc.ExpectedDecision, eligibility, fallbackUsed)
	failures, warnings, gateResults := EvaluateGates(observations, ctx.overrides, ctx.now)

	// Eligibility soft warnings surface on the envelope too, after
	// the gate warnings, in declaration order.
	warnings = appendEligibilityWarnings(warnings, eligibility)

	return &MethodEnvelope{
		BaseEnvelope:  ctx.newBase(sc.ScenarioID, selected.ID, failures, warnings, gateResults),
		Regime:        regime,
		Eligibility:   eligibility,
		RankedMethods: ranked,
	}
}

// fallbackMethod resolves the designated fallback against the
// configured catalog, preferring a custom catalog's own Fallback
// entry over the built-in default.
func (e *Engine) fallbackMethod() catalog.MethodCard {
	for _, card := range e.methods {
		if card.Fallback {
			return card
		}
	}
	return catalog.FallbackMethod()
}

// scoreMethods draws one value per eligible entry, combines it with
// the entry's base weight, clamps, and ranks descending with ties
// broken by declaration order. With no eligible entries it returns
// the designated fallback at the fixed minimal score: selection
// never fails.
func (e *Engine) scoreMethods(eligible []catalog.MethodCard, ctx *runContext) (ranked []ScoredEntry, fallbackUsed bool) {
	if len(eligible) == 0 {
		fb := e.fallbackMethod()
		return []ScoredEntry{{ID: fb.ID, Score: catalog.FallbackScore, Fallback: true}}, true
	}

	ranked = make([]ScoredEntry, 0, len(eligible))
	for _, card := range eligible {
		draw := ctx.gen.Next()
		ranked = append(ranked, ScoredEntry{
			ID:    card.ID,
			Score: clampScore(card.BaseWeight + draw*0.5),
		})
	}
	rankDescending(ranked)
	return ranked, false
}

// selectionObservations builds the gate observations shared by both
// selection streams.
func selectionObservations(scenarioID string, selected ScoredEntry, expected string, eligibility []catalog.EligibilityResult, fallbackUsed bool) []Observation {
	// The selected entry must never be one the eligibility check
	// rejected. The explicit fallback path is the documented
	// exception: it is reported through the soft gate below instead.
	disqualifiedSelected := false
	eligibleCount := 0
	for _, res := range eligibility {
		if res.Eligible {
			eligibleCount++
		}
		if res.EntryID == selected.ID && !res.Eligible && !fallbackUsed {
			disqualifiedSelected = true
		}
	}

	obs := []Observation{
		{
			GateID:     "decision_matches_expectation",
			Name:       "selected decision must equal the scenario's declared expectation",
			Kind:       GateHard,
			ScenarioID: scenarioID,
			Pass:       selected.ID == expected,
			Observed:   selected.ID,
			Threshold:  expected,
			Direction:  "==",
		},
		{
			GateID:     "disqualified_never_selected",
			Name:       "a disqualified entry must never be the one selected",
			Kind:       GateHard,
			ScenarioID: scenarioID,
			Pass:       !disqualifiedSelected,
			Observed:   selectionState(selected, fallbackUsed),
			Threshold:  "eligible",
			Direction:  "==",
		},
		{
			GateID:     "eligible_set_nonempty",
			Name:       "at least one catalog entry should be eligible",
			Kind:       GateSoft,
			ScenarioID: scenarioID,
			Pass:       !fallbackUsed,
			Observed:   observedEligibleSet(eligibleCount, selected, fallbackUsed),
		},
	}
	return obs
}

func observedEligibleSet(eligibleCount int, selected ScoredEntry, fallbackUsed bool) string {
	if fallbackUsed {
		return fmt.Sprintf("no eligible entries, fallback %s selected at fixed score", selected.ID)
	}
	return fmt.Sprintf("%d eligible entries", eligibleCount)
}

func selectionState(selected ScoredEntry, fallbackUsed bool) string {
	if fallbackUsed {
		return "fallback"
	}
	return "eligible"
}

func appendEligibilityWarnings(warnings []string, eligibility []catalog.EligibilityResult) []string {
	for _, res := range eligibility {
		for _, w := range res.Warnings {
			warnings = append(warnings, fmt.Sprintf("%s: %s", res.EntryID, w))
		}
	}
	return warnings
}
