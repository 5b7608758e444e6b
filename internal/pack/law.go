package pack

import "fmt"

// LawState is one of the five lifecycle states of a law candidate.
type LawState string

const (
	LawProposed  LawState = "proposed"
	LawTested    LawState = "tested"
	LawFalsified LawState = "falsified"
	LawConfirmed LawState = "confirmed"
	// LawRetracted is terminal. The record persists for audit: a
	// retracted candidate is never deleted, it just has no outgoing
	// transitions.
	LawRetracted LawState = "retracted"
)

// KnownLawState reports whether s is one of the five lifecycle states.
func KnownLawState(s LawState) bool {
	switch s {
	case LawProposed, LawTested, LawFalsified, LawConfirmed, LawRetracted:
		return true
	}
	return false
}

// Strength tiers for evidence entries.
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
)

// SourceTypeExperiment marks evidence obtained by intervention.
// Confirmation requires independent experimental replications, so
// this source type is load-bearing for the tested→confirmed edge.
const SourceTypeExperiment = "experiment"

// Evidence is one entry in a candidate's evidence basis or
// falsification record.
type Evidence struct {
	// Source identifies where the evidence came from. Evidence whose
	// source is the candidate's own ID is circular and disqualifies
	// the candidate when no independent entry exists.
	Source     string   `json:"source"`
	SourceType string   `json:"sourceType"`
	Strength   Strength `json:"strength"`
	Summary    string   `json:"summary,omitempty"`
}

// LawCandidate is the only entity in the engine with a lifecycle.
// Candidates are created upstream by discovery, mutated only by
// applying a lifecycle transition, and never deleted.
type LawCandidate struct {
	ID         string `json:"id"`
	Hypothesis string `json:"hypothesis"`
	Domain     string `json:"domain"`

	EvidenceBasis         []Evidence `json:"evidenceBasis,omitempty"`
	FalsificationEvidence []Evidence `json:"falsificationEvidence,omitempty"`

	Status LawState `json:"status"`

	// FalsificationCriteria must be non-empty for the candidate to be
	// progressible at all: an unfalsifiable claim is not a law
	// candidate, it is an opinion.
	FalsificationCriteria []string `json:"falsificationCriteria,omitempty"`

	ConfidenceScore   float64  `json:"confidenceScore"`
	Disqualified      bool     `json:"disqualified,omitempty"`
	DisqualifyReasons []string `json:"disqualifyReasons,omitempty"`
}

// Validate checks the structural invariants of a candidate record.
func (c *LawCandidate) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("law candidate: id is required")
	}
	if c.Hypothesis == "" {
		return fmt.Errorf("law candidate %s: hypothesis is required", c.ID)
	}
	if !KnownLawState(c.Status) {
		return fmt.Errorf("law candidate %s: unknown status %q", c.ID, c.Status)
	}
	if c.ConfidenceScore < 0 || c.ConfidenceScore > 1 {
		return fmt.Errorf("law candidate %s: confidenceScore %v outside [0,1]", c.ID, c.ConfidenceScore)
	}
	return nil
}
