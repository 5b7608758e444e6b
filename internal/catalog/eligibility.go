package catalog

import "fmt"

// EligibilityResult is the per-entry outcome of the static
// precondition check. Produced fresh per evaluation; eligibility
// depends on the scenario's regime, never on the seed.
type EligibilityResult struct {
	EntryID           string   `json:"entryId"`
	Eligible          bool     `json:"eligible"`
	DisqualifyReasons []string `json:"disqualifyReasons,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// CheckMethodEligibility evaluates a method card against a data
// regime. Pure, no randomness.
//
// Every rule is evaluated with no short-circuiting, so a caller
// sees all disqualifying reasons at once. Soft warnings accumulate
// separately and never affect the eligible flag.
func CheckMethodEligibility(card MethodCard, regime DataRegime) EligibilityResult {
	res := EligibilityResult{EntryID: card.ID, Eligible: true}

	if regime.SampleSize < card.MinSampleSize {
		res.disqualify("sample size %d below minimum %d", regime.SampleSize, card.MinSampleSize)
	}
	if card.RequiresInterventions && !regime.HasInterventions {
		res.disqualify("requires intervention data, regime has none")
	}
	if card.RequiresTemporalOrder && !regime.HasTemporalOrder {
		res.disqualify("requires temporal ordering, regime has none")
	}
	if regime.NoiseLevel.Ordinal() > card.MaxNoise.Ordinal() {
		res.disqualify("noise level %s exceeds tolerance %s", regime.NoiseLevel, card.MaxNoise)
	}
	for _, cond := range card.DisqualifyWhen {
		if regimeCondition(cond, regime) {
			res.disqualify("disqualifying condition: %s", cond)
		}
	}

	if card.ConfounderSensitive && len(regime.KnownConfounders) > 0 {
		res.warn("sensitive to %d known confounder(s)", len(regime.KnownConfounders))
	}

	return res
}

// CheckPolicyEligibility evaluates a policy family against an
// experiment context. Same accumulation contract as the method check.
func CheckPolicyEligibility(fam PolicyFamily, exp ExperimentContext) EligibilityResult {
	res := EligibilityResult{EntryID: fam.ID, Eligible: true}

	if perArm := exp.UnitsPerArm(); perArm < fam.MinUnitsPerArm {
		res.disqualify("units per arm %d below minimum %d", perArm, fam.MinUnitsPerArm)
	}
	if fam.RequiresRandomization && !exp.HasRandomization {
		res.disqualify("requires randomization infrastructure, context has none")
	}
	if exp.RiskTier.Ordinal() > fam.MaxRisk.Ordinal() {
		res.disqualify("risk tier %s exceeds tolerance %s", exp.RiskTier, fam.MaxRisk)
	}

	if !exp.HasHoldout {
		res.warn("no holdout group declared")
	}

	return res
}

// regimeCondition evaluates a named disqualifying condition. Unknown
// names never match: a typo in catalog data must not silently
// disqualify everything.
func regimeCondition(name string, regime DataRegime) bool {
	switch name {
	case CondUnmeasuredConfounding:
		return len(regime.KnownConfounders) == 0
	case CondHighDimensional:
		return regime.Dimensionality > 100
	}
	return false
}

func (r *EligibilityResult) disqualify(format string, args ...any) {
	r.Eligible = false
	r.DisqualifyReasons = append(r.DisqualifyReasons, fmt.Sprintf(format, args...))
}

func (r *EligibilityResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
