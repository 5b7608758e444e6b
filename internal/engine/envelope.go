package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mfeld/arbiter/internal/catalog"
	"github.com/mfeld/arbiter/internal/pack"
)

// Mode selects the caller's failure policy. CRITICAL: the core
// evaluates identically in both modes; enforce only changes how an
// external boundary (the CLI) treats non-empty hardGateFailures.
type Mode string

const (
	ModeReport  Mode = "report"
	ModeEnforce Mode = "enforce"
)

// BaseEnvelope carries the provenance and decision fields common to
// every stream's result.
//
// Determinism invariant: for fixed (inputHash, seed, mode), Decision,
// HardGateFailures, Warnings, and all stream-specific fields are
// byte-identical across repeated runs. RunID and Timestamp are
// provenance, not decision state, and are allowed to differ.
type BaseEnvelope struct {
	RunID      string `json:"runId"`
	InputHash  string `json:"inputHash"`
	Seed       int64  `json:"seed"`
	Mode       Mode   `json:"mode"`
	Timestamp  string `json:"timestamp"`
	ScenarioID string `json:"scenarioId,omitempty"` // empty on the aggregate policy envelope

	Decision         string       `json:"decision"`
	HardGateFailures []string     `json:"hardGateFailures"`
	Warnings         []string     `json:"warnings"`
	GateResults      []GateResult `json:"gateResults"`
}

// Passed reports whether the evaluation cleared every hard gate.
// An empty HardGateFailures list is the only pass signal.
func (b *BaseEnvelope) Passed() bool {
	return len(b.HardGateFailures) == 0
}

// Envelope is the tagged sum over the four stream results. Every
// implementation embeds BaseEnvelope; the Stream tag drives
// exhaustive switches in rendering and storage.
type Envelope interface {
	Base() *BaseEnvelope
	Stream() pack.Stream
}

// ScoredEntry is one ranked selection candidate.
type ScoredEntry struct {
	ID       string  `json:"id"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback,omitempty"`
}

// MethodEnvelope is the per-scenario result of the causal-method
// stream.
type MethodEnvelope struct {
	BaseEnvelope

	Regime        catalog.DataRegime          `json:"dataRegime"`
	Eligibility   []catalog.EligibilityResult `json:"eligibilityResults"`
	RankedMethods []ScoredEntry               `json:"rankedMethods"`
}

func (e *MethodEnvelope) Base() *BaseEnvelope { return &e.BaseEnvelope }
func (e *MethodEnvelope) Stream() pack.Stream { return pack.StreamCausalMethod }

// PolicyScenarioResult is one scenario's outcome inside the aggregate
// policy envelope.
type PolicyScenarioResult struct {
	ScenarioID  string                      `json:"scenarioId"`
	Selected    string                      `json:"selected"`
	Score       float64                     `json:"score"`
	Eligibility []catalog.EligibilityResult `json:"eligibilityResults"`
	Ranked      []ScoredEntry               `json:"ranked"`
}

// PolicyEnvelope is the single aggregate result of the policy stream.
type PolicyEnvelope struct {
	BaseEnvelope

	WinRates        map[string]float64     `json:"winRates"`
	ScenarioResults []PolicyScenarioResult `json:"scenarioResults"`
}

func (e *PolicyEnvelope) Base() *BaseEnvelope { return &e.BaseEnvelope }
func (e *PolicyEnvelope) Stream() pack.Stream { return pack.StreamPolicy }

// CalibrationAssessment summarizes one calibration check.
type CalibrationAssessment struct {
	ClaimedConfidence float64 `json:"claimedConfidence"`
	ObservedSupport   float64 `json:"observedSupport"`
	Drift             float64 `json:"drift"`
	Verdict           string  `json:"verdict"`
}

// CalibrationEnvelope is the per-scenario result of the calibration
// stream.
type CalibrationEnvelope struct {
	BaseEnvelope

	Calibration CalibrationAssessment `json:"calibration"`
}

func (e *CalibrationEnvelope) Base() *BaseEnvelope { return &e.BaseEnvelope }
func (e *CalibrationEnvelope) Stream() pack.Stream { return pack.StreamCalibration }

// EvidenceSummary counts a candidate's evidence by tier.
type EvidenceSummary struct {
	Total         int `json:"total"`
	Strong        int `json:"strong"`
	Moderate      int `json:"moderate"`
	Weak          int `json:"weak"`
	Experimental  int `json:"experimental"`
	Falsification int `json:"falsification"`
}

// LawEnvelope is the per-scenario result of the law-lifecycle stream.
type LawEnvelope struct {
	BaseEnvelope

	CandidateID         string          `json:"candidateId"`
	FromState           pack.LawState   `json:"fromState"`
	RequestedState      pack.LawState   `json:"requestedState"`
	NewState            pack.LawState   `json:"newState"`
	TransitionValid     bool            `json:"transitionValid"`
	RequirementFailures []string        `json:"requirementFailures"`
	Disqualifiers       []string        `json:"disqualifiers"`
	LifecycleComplete   bool            `json:"lifecycleComplete"`
	EvidenceSummary     EvidenceSummary `json:"evidenceSummary"`
}

func (e *LawEnvelope) Base() *BaseEnvelope { return &e.BaseEnvelope }
func (e *LawEnvelope) Stream() pack.Stream { return pack.StreamLaw }

// RunIDGenerator generates globally-unique, time-sortable run IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator
// (tests). Run IDs are explicitly NOT part of the determinism
// invariant.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so run IDs
// sort by creation time, which is handy when walking an audit trail.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string. Panics if
// UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run IDs for tests that compare
// complete envelopes.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order and
// panics when exhausted so a misconfigured test fails fast.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all run IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
