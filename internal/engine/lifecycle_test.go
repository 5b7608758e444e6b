package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfeld/arbiter/internal/pack"
)

func TestIsValidTransition(t *testing.T) {
	valid := []struct{ from, to pack.LawState }{
		{pack.LawProposed, pack.LawTested},
		{pack.LawTested, pack.LawFalsified},
		{pack.LawTested, pack.LawConfirmed},
		{pack.LawFalsified, pack.LawRetracted},
		{pack.LawConfirmed, pack.LawRetracted},
	}
	for _, tr := range valid {
		assert.True(t, IsValidTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	invalid := []struct{ from, to pack.LawState }{
		{pack.LawProposed, pack.LawConfirmed},
		{pack.LawProposed, pack.LawFalsified},
		{pack.LawProposed, pack.LawRetracted},
		{pack.LawTested, pack.LawProposed},
		{pack.LawTested, pack.LawRetracted},
		{pack.LawFalsified, pack.LawTested},
		{pack.LawFalsified, pack.LawConfirmed},
		{pack.LawConfirmed, pack.LawTested},
		{pack.LawConfirmed, pack.LawFalsified},
	}
	for _, tr := range invalid {
		assert.False(t, IsValidTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestRetractedIsTerminal(t *testing.T) {
	targets := []pack.LawState{
		pack.LawProposed, pack.LawTested, pack.LawFalsified,
		pack.LawConfirmed, pack.LawRetracted,
	}
	for _, to := range targets {
		assert.False(t, IsValidTransition(pack.LawRetracted, to), "retracted -> %s must not exist", to)
	}
}

func strongExperiment(source string) pack.Evidence {
	return pack.Evidence{Source: source, SourceType: pack.SourceTypeExperiment, Strength: pack.StrengthStrong}
}

func TestTransitionRequirementFailures(t *testing.T) {
	tests := []struct {
		name      string
		candidate pack.LawCandidate
		to        pack.LawState
		want      []string
	}{
		{
			"proposed to tested with moderate evidence",
			pack.LawCandidate{
				Status:        pack.LawProposed,
				EvidenceBasis: []pack.Evidence{{Source: "obs-1", SourceType: "observation", Strength: pack.StrengthModerate}},
			},
			pack.LawTested,
			[]string{},
		},
		{
			"proposed to tested with only weak evidence",
			pack.LawCandidate{
				Status:        pack.LawProposed,
				EvidenceBasis: []pack.Evidence{{Source: "obs-1", Strength: pack.StrengthWeak}},
			},
			pack.LawTested,
			[]string{"requires at least one strong or moderate evidence entry"},
		},
		{
			"tested to falsified with counter-evidence",
			pack.LawCandidate{
				Status:                pack.LawTested,
				FalsificationEvidence: []pack.Evidence{strongExperiment("exp-9")},
			},
			pack.LawFalsified,
			[]string{},
		},
		{
			"tested to falsified without counter-evidence",
			pack.LawCandidate{Status: pack.LawTested},
			pack.LawFalsified,
			[]string{"requires at least one falsification evidence entry"},
		},
		{
			"tested to confirmed meeting every floor",
			pack.LawCandidate{
				Status:          pack.LawTested,
				EvidenceBasis:   []pack.Evidence{strongExperiment("exp-1"), strongExperiment("exp-2")},
				ConfidenceScore: 0.72,
			},
			pack.LawConfirmed,
			[]string{},
		},
		{
			"tested to confirmed failing every floor",
			pack.LawCandidate{
				Status:                pack.LawTested,
				EvidenceBasis:         []pack.Evidence{strongExperiment("exp-1")},
				FalsificationEvidence: []pack.Evidence{strongExperiment("exp-9")},
				ConfidenceScore:       0.1,
			},
			pack.LawConfirmed,
			[]string{
				"requires 2 strong experimental replications, found 1",
				"1 outstanding falsification evidence entries must be resolved",
				"confidence 0.10 below floor 0.30",
			},
		},
		{
			"strong non-experimental evidence does not count as replication",
			pack.LawCandidate{
				Status: pack.LawTested,
				EvidenceBasis: []pack.Evidence{
					{Source: "obs-1", SourceType: "observation", Strength: pack.StrengthStrong},
					{Source: "obs-2", SourceType: "observation", Strength: pack.StrengthStrong},
				},
				ConfidenceScore: 0.9,
			},
			pack.LawConfirmed,
			[]string{"requires 2 strong experimental replications, found 0"},
		},
		{
			"edges without preconditions",
			pack.LawCandidate{Status: pack.LawFalsified},
			pack.LawRetracted,
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransitionRequirementFailures(&tt.candidate, tt.to))
		})
	}
}

func TestDisqualifiers(t *testing.T) {
	base := func() pack.LawCandidate {
		return pack.LawCandidate{
			ID:                    "law-1",
			Status:                pack.LawProposed,
			FalsificationCriteria: []string{"drop in conversion after rollback"},
			EvidenceBasis:         []pack.Evidence{{Source: "exp-1", Strength: pack.StrengthModerate}},
		}
	}

	t.Run("clean candidate", func(t *testing.T) {
		c := base()
		assert.Empty(t, Disqualifiers(&c))
	})

	t.Run("unfalsifiable", func(t *testing.T) {
		c := base()
		c.FalsificationCriteria = nil
		assert.Equal(t, []string{"unfalsifiable: no falsification criteria declared"}, Disqualifiers(&c))
	})

	t.Run("circular evidence", func(t *testing.T) {
		c := base()
		c.EvidenceBasis = []pack.Evidence{
			{Source: "law-1", Strength: pack.StrengthStrong},
			{Source: "law-1", Strength: pack.StrengthModerate},
		}
		assert.Equal(t, []string{"circular evidence: every evidence entry references the candidate itself"}, Disqualifiers(&c))
	})

	t.Run("one independent entry breaks circularity", func(t *testing.T) {
		c := base()
		c.EvidenceBasis = []pack.Evidence{
			{Source: "law-1", Strength: pack.StrengthStrong},
			{Source: "exp-7", Strength: pack.StrengthWeak},
		}
		assert.Empty(t, Disqualifiers(&c))
	})

	t.Run("empty basis is not circular", func(t *testing.T) {
		c := base()
		c.EvidenceBasis = nil
		assert.Empty(t, Disqualifiers(&c))
	})

	t.Run("upstream reasons are prefixed", func(t *testing.T) {
		c := base()
		c.Disqualified = true
		c.DisqualifyReasons = []string{"duplicate of law-0"}
		assert.Equal(t, []string{"upstream: duplicate of law-0"}, Disqualifiers(&c))
	})

	t.Run("flagged without reasons", func(t *testing.T) {
		c := base()
		c.Disqualified = true
		assert.Equal(t, []string{"upstream: candidate flagged disqualified"}, Disqualifiers(&c))
	})
}

func lawPack(scenarios ...pack.Scenario) *pack.Pack {
	return &pack.Pack{Version: "1", Stream: pack.StreamLaw, Scenarios: scenarios}
}

func lawScenario(id string, expected string, c pack.LawCandidate, to pack.LawState) pack.Scenario {
	return pack.Scenario{
		ScenarioID:       id,
		ExpectedDecision: expected,
		Law:              &pack.LawInput{Candidate: c, RequestedState: to},
	}
}

func confirmableCandidate() pack.LawCandidate {
	return pack.LawCandidate{
		ID:                    "law-42",
		Hypothesis:            "checkout latency above 2s halves conversion",
		Domain:                "commerce",
		Status:                pack.LawTested,
		EvidenceBasis:         []pack.Evidence{strongExperiment("exp-1"), strongExperiment("exp-2")},
		FalsificationCriteria: []string{"conversion unchanged under injected latency"},
		ConfidenceScore:       0.72,
	}
}

func TestEvaluateLawConfirmation(t *testing.T) {
	p := lawPack(lawScenario("s1", "confirmed", confirmableCandidate(), pack.LawConfirmed))

	res, err := testEngine().Evaluate(Request{Pack: p, Seed: 42, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)
	require.Len(t, res.Envelopes, 1)

	env := res.Envelopes[0].(*LawEnvelope)
	assert.Equal(t, "law-42", env.CandidateID)
	assert.Equal(t, pack.LawTested, env.FromState)
	assert.Equal(t, pack.LawConfirmed, env.RequestedState)
	assert.Equal(t, pack.LawConfirmed, env.NewState)
	assert.True(t, env.TransitionValid)
	assert.Empty(t, env.RequirementFailures)
	assert.Empty(t, env.Disqualifiers)
	assert.True(t, env.LifecycleComplete)
	assert.Equal(t, "confirmed", env.Decision)
	assert.True(t, env.Passed())
	assert.Equal(t, EvidenceSummary{Total: 2, Strong: 2, Experimental: 2}, env.EvidenceSummary)

	// The confirmation path carries the extra confidence gate.
	var gateIDs []string
	for _, g := range env.GateResults {
		gateIDs = append(gateIDs, g.GateID)
	}
	assert.Equal(t, []string{"decision_matches_expectation", "evidence_floor", "confidence_floor"}, gateIDs)
}

func TestEvaluateLawInvalidEdgeBlocks(t *testing.T) {
	c := confirmableCandidate()
	c.Status = pack.LawProposed

	p := lawPack(lawScenario("s1", "blocked:proposed", c, pack.LawConfirmed))
	res, err := testEngine().Evaluate(Request{Pack: p, Seed: 42, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)

	env := res.Envelopes[0].(*LawEnvelope)
	assert.Equal(t, "blocked:proposed", env.Decision)
	assert.Equal(t, pack.LawProposed, env.NewState, "a blocked transition leaves the state untouched")
	assert.False(t, env.TransitionValid)
	assert.Empty(t, env.RequirementFailures, "preconditions are not evaluated on invalid edges")
	assert.False(t, env.LifecycleComplete)
	assert.True(t, env.Passed())
}

func TestEvaluateLawRequirementFailureBlocks(t *testing.T) {
	c := confirmableCandidate()
	c.EvidenceBasis = c.EvidenceBasis[:1] // one replication short

	p := lawPack(lawScenario("s1", "blocked:tested", c, pack.LawConfirmed))
	res, err := testEngine().Evaluate(Request{Pack: p, Seed: 42, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)

	env := res.Envelopes[0].(*LawEnvelope)
	assert.Equal(t, "blocked:tested", env.Decision)
	assert.Equal(t, pack.LawTested, env.NewState)
	assert.True(t, env.TransitionValid)
	assert.Equal(t, []string{"requires 2 strong experimental replications, found 1"}, env.RequirementFailures)
	assert.True(t, env.Passed())
}

func TestEvaluateLawDisqualifierBlocks(t *testing.T) {
	c := confirmableCandidate()
	c.FalsificationCriteria = nil

	p := lawPack(lawScenario("s1", "blocked:tested", c, pack.LawConfirmed))
	res, err := testEngine().Evaluate(Request{Pack: p, Seed: 42, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)

	env := res.Envelopes[0].(*LawEnvelope)
	assert.Equal(t, "blocked:tested", env.Decision)
	assert.True(t, env.TransitionValid, "the edge itself is fine, the candidate is not")
	assert.Empty(t, env.RequirementFailures)
	assert.Equal(t, []string{"unfalsifiable: no falsification criteria declared"}, env.Disqualifiers)
}

func TestEvaluateLawRetraction(t *testing.T) {
	c := confirmableCandidate()
	c.Status = pack.LawConfirmed

	p := lawPack(lawScenario("s1", "retracted", c, pack.LawRetracted))
	res, err := testEngine().Evaluate(Request{Pack: p, Seed: 42, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)

	env := res.Envelopes[0].(*LawEnvelope)
	assert.Equal(t, pack.LawRetracted, env.NewState)
	assert.True(t, env.LifecycleComplete)
	assert.True(t, env.Passed())
}

func TestEvaluateLawSeedIndependent(t *testing.T) {
	// The law stream consumes no generator draws, so everything except
	// the recorded seed is identical across seeds.
	p := lawPack(lawScenario("s1", "confirmed", confirmableCandidate(), pack.LawConfirmed))

	r1, err := testEngine().Evaluate(Request{Pack: p, Seed: 1, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)
	r2, err := testEngine().Evaluate(Request{Pack: p, Seed: 2, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)

	e1 := r1.Envelopes[0].(*LawEnvelope)
	e2 := r2.Envelopes[0].(*LawEnvelope)
	e1.Seed, e2.Seed = 0, 0
	assert.Equal(t, e1, e2)
}

func TestEvaluateLawEvidenceFloorGate(t *testing.T) {
	c := confirmableCandidate()
	c.Status = pack.LawFalsified
	c.EvidenceBasis = nil

	p := lawPack(lawScenario("s1", "retracted", c, pack.LawRetracted))
	res, err := testEngine().Evaluate(Request{Pack: p, Seed: 42, Mode: ModeReport, Now: testNow})
	require.NoError(t, err)

	env := res.Envelopes[0].(*LawEnvelope)
	assert.Equal(t, pack.LawRetracted, env.NewState)
	assert.False(t, env.Passed())
	assert.Equal(t, []string{"evidence count must meet the floor: observed 0, required >= 1"}, env.HardGateFailures)
}
