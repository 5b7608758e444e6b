// Package catalog holds the static descriptors of the selectable
// alternatives (causal-inference methods and experiment policy
// families) together with their pure eligibility rules.
//
// INVARIANTS:
//   - Catalog slices are in declaration order and that order NEVER
//     changes at runtime: score ties are broken by it, so reordering
//     entries silently changes decisions.
//   - Entries are static data. They are loaded once and never mutated
//     during evaluation.
package catalog

// Score bounds shared by both selection streams. Scores are
// intentionally simple seed-driven placeholders; the engine's value
// is its evaluation protocol, not these numbers.
const (
	ScoreMin = 0.05
	ScoreMax = 0.99

	// FallbackScore is the fixed minimal score assigned when no
	// catalog entry is eligible and the designated least-restrictive
	// default is returned instead. Selection never fails.
	FallbackScore = 0.05
)

// Named disqualifying conditions referenced by catalog entries.
// The names appear verbatim in disqualify reasons, so they are part
// of the output contract.
const (
	CondUnmeasuredConfounding = "unmeasured_confounding"
	CondHighDimensional       = "high_dimensional"
)

// MethodCard describes one causal-inference method.
type MethodCard struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	MinSampleSize         int        `json:"minSampleSize"`
	RequiresInterventions bool       `json:"requiresInterventions"`
	RequiresTemporalOrder bool       `json:"requiresTemporalOrder"`
	MaxNoise              NoiseLevel `json:"maxNoise"`

	// DisqualifyWhen names regime conditions that rule the method
	// out entirely (see the Cond* constants).
	DisqualifyWhen []string `json:"disqualifyWhen,omitempty"`

	// ConfounderSensitive methods warn (soft) when the regime lists
	// known confounders; the warning never affects eligibility.
	ConfounderSensitive bool `json:"confounderSensitive"`

	// BaseWeight is the fixed per-entry prior combined with one
	// generator draw during scoring.
	BaseWeight float64 `json:"baseWeight"`

	// Fallback marks the designated least-restrictive default.
	Fallback bool `json:"fallback,omitempty"`
}

// PolicyFamily describes one experiment-policy family.
type PolicyFamily struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	MinUnitsPerArm        int      `json:"minUnitsPerArm"`
	RequiresRandomization bool     `json:"requiresRandomization"`
	MaxRisk               RiskTier `json:"maxRisk"`

	BaseWeight float64 `json:"baseWeight"`
	Fallback   bool    `json:"fallback,omitempty"`
}

// Methods returns the causal-method catalog in declaration order.
// A fresh slice is returned each call so callers cannot corrupt the
// declaration order other evaluations depend on.
func Methods() []MethodCard {
	return []MethodCard{
		{
			ID:                    "do_calculus",
			Label:                 "Do-calculus identification",
			MinSampleSize:         1000,
			RequiresInterventions: true,
			MaxNoise:              NoiseMedium,
			BaseWeight:            0.46,
		},
		{
			ID:                  "backdoor_adjustment",
			Label:               "Backdoor adjustment",
			MinSampleSize:       500,
			MaxNoise:            NoiseMedium,
			DisqualifyWhen:      []string{CondUnmeasuredConfounding},
			ConfounderSensitive: true,
			BaseWeight:          0.44,
		},
		{
			ID:            "instrumental_variables",
			Label:         "Instrumental variables",
			MinSampleSize: 2000,
			MaxNoise:      NoiseHigh,
			BaseWeight:    0.40,
		},
		{
			ID:                    "difference_in_differences",
			Label:                 "Difference in differences",
			MinSampleSize:         800,
			RequiresTemporalOrder: true,
			MaxNoise:              NoiseMedium,
			DisqualifyWhen:        []string{CondHighDimensional},
			BaseWeight:            0.42,
		},
		{
			ID:                    "granger_screen",
			Label:                 "Granger causality screen",
			MinSampleSize:         300,
			RequiresTemporalOrder: true,
			MaxNoise:              NoiseLow,
			ConfounderSensitive:   true,
			BaseWeight:            0.35,
		},
		{
			ID:            "correlation_screen",
			Label:         "Correlation screen (baseline)",
			MinSampleSize: 0,
			MaxNoise:      NoiseHigh,
			BaseWeight:    0.10,
			Fallback:      true,
		},
	}
}

// Policies returns the policy-family catalog in declaration order.
func Policies() []PolicyFamily {
	return []PolicyFamily{
		{
			ID:                    "factorial_ab",
			Label:                 "Factorial A/B test",
			MinUnitsPerArm:        500,
			RequiresRandomization: true,
			MaxRisk:               RiskMedium,
			BaseWeight:            0.45,
		},
		{
			ID:                    "sequential_ab",
			Label:                 "Sequential A/B test",
			MinUnitsPerArm:        200,
			RequiresRandomization: true,
			MaxRisk:               RiskMedium,
			BaseWeight:            0.42,
		},
		{
			ID:                    "multi_armed_bandit",
			Label:                 "Multi-armed bandit",
			MinUnitsPerArm:        100,
			RequiresRandomization: true,
			MaxRisk:               RiskLow,
			BaseWeight:            0.40,
		},
		{
			ID:             "staged_rollout",
			Label:          "Staged rollout",
			MinUnitsPerArm: 50,
			MaxRisk:        RiskHigh,
			BaseWeight:     0.38,
		},
		{
			ID:             "shadow_launch",
			Label:          "Shadow launch (baseline)",
			MinUnitsPerArm: 0,
			MaxRisk:        RiskHigh,
			BaseWeight:     0.10,
			Fallback:       true,
		},
	}
}

// FallbackMethod returns the designated least-restrictive method.
func FallbackMethod() MethodCard {
	for _, m := range Methods() {
		if m.Fallback {
			return m
		}
	}
	// The catalog always declares a fallback; reaching this would be
	// a programming error, not an input error.
	panic("catalog: no fallback method declared")
}

// FallbackPolicy returns the designated least-restrictive policy.
func FallbackPolicy() PolicyFamily {
	for _, p := range Policies() {
		if p.Fallback {
			return p
		}
	}
	panic("catalog: no fallback policy declared")
}
