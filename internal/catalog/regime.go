package catalog

// NoiseLevel is the ordered noise characterization of a data regime.
type NoiseLevel string

const (
	NoiseLow    NoiseLevel = "low"
	NoiseMedium NoiseLevel = "medium"
	NoiseHigh   NoiseLevel = "high"
)

// Ordinal maps noise levels onto the explicit ordering low < medium <
// high. Comparison happens on these integers, never on the strings;
// lexicographic order would put "high" before "low".
func (n NoiseLevel) Ordinal() int {
	switch n {
	case NoiseLow:
		return 1
	case NoiseMedium:
		return 2
	case NoiseHigh:
		return 3
	}
	return 0
}

// RiskTier is the ordered blast-radius characterization of an
// experiment context. Same ordinal scheme as NoiseLevel.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

func (r RiskTier) Ordinal() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// DataRegime characterizes an observational dataset for causal-method
// selection. Eligibility depends on the regime alone, never the seed.
type DataRegime struct {
	SampleSize       int        `json:"sampleSize"`
	Dimensionality   int        `json:"dimensionality"`
	HasInterventions bool       `json:"hasInterventions"`
	HasTemporalOrder bool       `json:"hasTemporalOrder"`
	KnownConfounders []string   `json:"knownConfounders,omitempty"`
	NoiseLevel       NoiseLevel `json:"noiseLevel"`
}

// ExperimentContext characterizes the setting in which an experiment
// policy would run.
type ExperimentContext struct {
	UnitsAvailable   int      `json:"unitsAvailable"`
	Arms             int      `json:"arms"`
	RiskTier         RiskTier `json:"riskTier"`
	HasRandomization bool     `json:"hasRandomization"`
	HasHoldout       bool     `json:"hasHoldout"`
}

// UnitsPerArm returns the per-arm allocation, guarding the degenerate
// zero-arm case.
func (e *ExperimentContext) UnitsPerArm() int {
	if e.Arms <= 0 {
		return 0
	}
	return e.UnitsAvailable / e.Arms
}
