package engine

import (
	"fmt"

	"github.com/mfeld/arbiter/internal/catalog"
	"github.com/mfeld/arbiter/internal/pack"
)

// evaluatePolicyPack scores experiment-policy families across all
// scenarios in a pack and produces ONE aggregate envelope.
//
// Draw order: scenarios in array order; within a scenario, one draw
// per eligible family in catalog declaration order.
func (e *Engine) evaluatePolicyPack(p *pack.Pack, ctx *runContext) *PolicyEnvelope {
	var observations []Observation
	var eligWarnings []string
	scenarioResults := make([]PolicyScenarioResult, 0, len(p.Scenarios))
	winCounts := make(map[string]int, len(e.policies))

	for i := range p.Scenarios {
		sc := &p.Scenarios[i]
		exp := *sc.Experiment

		eligibility := make([]catalog.EligibilityResult, 0, len(e.policies))
		var eligible []catalog.PolicyFamily
		for _, fam := range e.policies {
			res := catalog.CheckPolicyEligibility(fam, exp)
			eligibility = append(eligibility, res)
			if res.Eligible {
				eligible = append(eligible, fam)
			}
		}

		ranked, fallbackUsed := e.scorePolicies(eligible, ctx)
		selected := ranked[0]
		winCounts[selected.ID]++

		observations = append(observations,
			selectionObservations(sc.ScenarioID, selected, sc.ExpectedDecision, eligibility, fallbackUsed)...)
		for _, res := range eligibility {
			for _, w := range res.Warnings {
				eligWarnings = append(eligWarnings, fmt.Sprintf("scenario %s: %s: %s", sc.ScenarioID, res.EntryID, w))
			}
		}

		scenarioResults = append(scenarioResults, PolicyScenarioResult{
			ScenarioID:  sc.ScenarioID,
			Selected:    selected.ID,
			Score:       selected.Score,
			Eligibility: eligibility,
			Ranked:      ranked,
		})
	}

	// Win rate per family over all scenarios. Every catalog family is
	// reported, including zero-rate ones, so the aggregate is
	// self-describing. A fallback winner outside the configured
	// catalog is ranked last, after every declared family.
	ids := make([]string, 0, len(e.policies)+1)
	declared := make(map[string]bool, len(e.policies))
	for _, fam := range e.policies {
		ids = append(ids, fam.ID)
		declared[fam.ID] = true
	}
	if fb := e.fallbackPolicy(); !declared[fb.ID] && winCounts[fb.ID] > 0 {
		ids = append(ids, fb.ID)
	}

	winRates := make(map[string]float64, len(ids))
	for _, id := range ids {
		winRates[id] = float64(winCounts[id]) / float64(len(p.Scenarios))
	}

	// The aggregate decision is the entry with the highest win rate;
	// ties resolve to declaration order.
	decision := ids[0]
	best := winRates[decision]
	for _, id := range ids[1:] {
		if winRates[id] > best {
			decision = id
			best = winRates[id]
		}
	}

	failures, warnings, gateResults := EvaluateGates(observations, ctx.overrides, ctx.now)
	warnings = append(warnings, eligWarnings...)

	return &PolicyEnvelope{
		BaseEnvelope:    ctx.newBase("", decision, failures, warnings, gateResults),
		WinRates:        winRates,
		ScenarioResults: scenarioResults,
	}
}

// fallbackPolicy resolves the designated fallback against the
// configured catalog, so a custom catalog's own Fallback entry is
// honored. The built-in fallback applies only when no configured
// family carries the mark.
func (e *Engine) fallbackPolicy() catalog.PolicyFamily {
	for _, fam := range e.policies {
		if fam.Fallback {
			return fam
		}
	}
	return catalog.FallbackPolicy()
}

// scorePolicies mirrors scoreMethods for the policy catalog.
func (e *Engine) scorePolicies(eligible []catalog.PolicyFamily, ctx *runContext) (ranked []ScoredEntry, fallbackUsed bool) {
	if len(eligible) == 0 {
		fb := e.fallbackPolicy()
		return []ScoredEntry{{ID: fb.ID, Score: catalog.FallbackScore, Fallback: true}}, true
	}

	ranked = make([]ScoredEntry, 0, len(eligible))
	for _, fam := range eligible {
		draw := ctx.gen.Next()
		ranked = append(ranked, ScoredEntry{
			ID:    fam.ID,
			Score: clampScore(fam.BaseWeight + draw*0.5),
		})
	}
	rankDescending(ranked)
	return ranked, false
}
