// Package pack defines the scenario pack: the versioned, hashable
// unit of input consumed by the evaluation engine. A pack carries
// scenarios for exactly one stream; its canonical form is the hashing
// unit that joins an evaluation to its audit trail.
package pack

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mfeld/arbiter/internal/canon"
	"github.com/mfeld/arbiter/internal/catalog"
)

// Stream identifies which evaluator a pack targets.
type Stream string

const (
	StreamPolicy       Stream = "policy"
	StreamCausalMethod Stream = "causal_method"
	StreamCalibration  Stream = "calibration"
	StreamLaw          Stream = "law"
)

// KnownStreams lists all valid stream tags, in declaration order.
var KnownStreams = []Stream{StreamPolicy, StreamCausalMethod, StreamCalibration, StreamLaw}

// Pack is the immutable input unit. Its serialized, key-sorted form
// is what gets hashed; never mutate a pack after decoding.
type Pack struct {
	Version   string     `json:"version"`
	Stream    Stream     `json:"stream"`
	Scenarios []Scenario `json:"scenarios"`
}

// Scenario is one test case within a pack. Exactly one payload field
// is set, matching the pack's stream.
//
// ExpectedDecision and ExpectedHardGates exist for the conformance
// gate and for tests. CRITICAL: evaluators must never consult them
// when computing a decision, since doing so would make the expectation
// gate trivially self-fulfilling.
type Scenario struct {
	ScenarioID        string   `json:"scenarioId"`
	Label             string   `json:"label"`
	ExpectedDecision  string   `json:"expectedDecision"`
	ExpectedHardGates []string `json:"expectedHardGates,omitempty"`

	// Stream payloads. One of:
	Experiment  *catalog.ExperimentContext `json:"experiment,omitempty"`
	Regime      *catalog.DataRegime        `json:"regime,omitempty"`
	Calibration *CalibrationInput          `json:"calibration,omitempty"`
	Law         *LawInput                  `json:"law,omitempty"`
}

// CalibrationInput characterizes one uncertainty-calibration check:
// how confident the upstream system claimed to be versus how often
// its claims actually held.
type CalibrationInput struct {
	Domain            string  `json:"domain"`
	ClaimedConfidence float64 `json:"claimedConfidence"`
	ObservedSupport   float64 `json:"observedSupport"`
	SampleCount       int     `json:"sampleCount"`
}

// LawInput pairs a law candidate with the lifecycle transition being
// requested for it.
type LawInput struct {
	Candidate      LawCandidate `json:"candidate"`
	RequestedState LawState     `json:"requestedState"`
}

// Decode parses and validates a scenario pack from JSON bytes.
// Unknown fields are rejected: a misspelled field silently changing a
// hash is exactly the failure mode canonical hashing exists to
// prevent.
func Decode(data []byte) (*Pack, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p Pack
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks structural invariants. Malformed input is the one
// class of problem that fails loudly; everything downstream of a
// valid pack is reported as data, not errors.
func (p *Pack) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("pack: version is required")
	}
	if !knownStream(p.Stream) {
		return fmt.Errorf("pack: unknown stream %q", p.Stream)
	}
	if len(p.Scenarios) == 0 {
		return fmt.Errorf("pack: at least one scenario is required")
	}

	seen := make(map[string]bool, len(p.Scenarios))
	for i, sc := range p.Scenarios {
		if sc.ScenarioID == "" {
			return fmt.Errorf("pack: scenario[%d]: scenarioId is required", i)
		}
		if seen[sc.ScenarioID] {
			return fmt.Errorf("pack: duplicate scenarioId %q", sc.ScenarioID)
		}
		seen[sc.ScenarioID] = true

		if err := sc.validatePayload(p.Stream); err != nil {
			return fmt.Errorf("pack: scenario %q: %w", sc.ScenarioID, err)
		}
	}
	return nil
}

func (sc *Scenario) validatePayload(stream Stream) error {
	var want string
	var ok bool
	switch stream {
	case StreamPolicy:
		want, ok = "experiment", sc.Experiment != nil
		// Unknown risk tiers map to ordinal 0 and would slide under
		// every risk ceiling, so they fail loudly here instead.
		if ok && sc.Experiment.RiskTier.Ordinal() == 0 {
			return fmt.Errorf("unknown risk tier %q", sc.Experiment.RiskTier)
		}
	case StreamCausalMethod:
		want, ok = "regime", sc.Regime != nil
		if ok && sc.Regime.NoiseLevel.Ordinal() == 0 {
			return fmt.Errorf("unknown noise level %q", sc.Regime.NoiseLevel)
		}
	case StreamCalibration:
		want, ok = "calibration", sc.Calibration != nil
	case StreamLaw:
		want, ok = "law", sc.Law != nil
		if ok {
			if err := sc.Law.Candidate.Validate(); err != nil {
				return err
			}
			if !KnownLawState(sc.Law.RequestedState) {
				return fmt.Errorf("unknown requested state %q", sc.Law.RequestedState)
			}
		}
	}
	if !ok {
		return fmt.Errorf("missing %q payload for stream %q", want, stream)
	}
	return nil
}

func knownStream(s Stream) bool {
	for _, k := range KnownStreams {
		if s == k {
			return true
		}
	}
	return false
}

// Hash computes the pack's canonical fingerprint.
//
// The digest depends only on pack content, never on seed, mode, or
// wall-clock time. Key order and whitespace in the source document do
// not matter: the pack is re-serialized, canonicalized (sorted keys,
// NFC, fixed number formatting), and hashed under a versioned domain.
func Hash(p *Pack) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("hash pack: %w", err)
	}
	digest, err := canon.HashJSON(canon.DomainPack, raw)
	if err != nil {
		return "", fmt.Errorf("hash pack: %w", err)
	}
	return digest, nil
}
