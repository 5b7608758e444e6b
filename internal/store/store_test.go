package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfeld/arbiter/internal/engine"
	"github.com/mfeld/arbiter/internal/pack"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func methodEnvelope(runID, inputHash string) *engine.MethodEnvelope {
	return &engine.MethodEnvelope{
		BaseEnvelope: engine.BaseEnvelope{
			RunID:            runID,
			InputHash:        inputHash,
			Seed:             42,
			Mode:             engine.ModeReport,
			Timestamp:        "2026-03-01T12:00:00Z",
			ScenarioID:       "s1",
			Decision:         "do_calculus",
			HardGateFailures: []string{},
			Warnings:         []string{"backdoor_adjustment: sensitive to 1 known confounder(s)"},
			GateResults:      []engine.GateResult{},
		},
		RankedMethods: []engine.ScoredEntry{{ID: "do_calculus", Score: 0.87}},
	}
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestWriteAndReadEnvelope(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	env := methodEnvelope("run-001", "hash-a")
	require.NoError(t, s.WriteEnvelope(ctx, env))

	got, err := s.ReadEnvelope(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, "run-001", got.RunID)
	assert.Equal(t, "hash-a", got.InputHash)
	assert.Equal(t, int64(42), got.Seed)
	assert.Equal(t, "report", got.Mode)
	assert.Equal(t, "causal_method", got.Stream)
	assert.Equal(t, "s1", got.ScenarioID)
	assert.Equal(t, "do_calculus", got.Decision)
	assert.Empty(t, got.HardGateFailures)
	assert.Equal(t, []string{"backdoor_adjustment: sensitive to 1 known confounder(s)"}, got.Warnings)
	assert.NotEmpty(t, got.CreatedAt)

	// The full envelope survives verbatim, stream fields included.
	var decoded engine.MethodEnvelope
	require.NoError(t, json.Unmarshal(got.Envelope, &decoded))
	assert.Equal(t, env.RankedMethods, decoded.RankedMethods)
}

func TestReadEnvelopeNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadEnvelope(context.Background(), "run-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestWriteEnvelopeIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := methodEnvelope("run-001", "hash-a")
	require.NoError(t, s.WriteEnvelope(ctx, first))

	// Replaying the same run ID is silently ignored, never an update:
	// the stored decision stays what the first write recorded.
	replay := methodEnvelope("run-001", "hash-a")
	replay.Decision = "granger_screen"
	require.NoError(t, s.WriteEnvelope(ctx, replay))

	got, err := s.ReadEnvelope(ctx, "run-001")
	require.NoError(t, err)
	assert.Equal(t, "do_calculus", got.Decision)
}

func TestListByInputHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEnvelope(ctx, methodEnvelope("run-001", "hash-a")))
	require.NoError(t, s.WriteEnvelope(ctx, methodEnvelope("run-002", "hash-a")))
	require.NoError(t, s.WriteEnvelope(ctx, methodEnvelope("run-003", "hash-b")))

	got, err := s.ListByInputHash(ctx, "hash-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-001", got[0].RunID)
	assert.Equal(t, "run-002", got[1].RunID)

	empty, err := s.ListByInputHash(ctx, "hash-unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWriteResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := &engine.Result{
		InputHash: "hash-a",
		Envelopes: []engine.Envelope{
			methodEnvelope("run-001", "hash-a"),
			methodEnvelope("run-002", "hash-a"),
		},
	}
	require.NoError(t, s.WriteResult(ctx, result))

	got, err := s.ListByInputHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWriteLawEnvelope(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	env := &engine.LawEnvelope{
		BaseEnvelope: engine.BaseEnvelope{
			RunID:            "run-law-001",
			InputHash:        "hash-law",
			Seed:             7,
			Mode:             engine.ModeEnforce,
			Timestamp:        "2026-03-01T12:00:00Z",
			ScenarioID:       "s1",
			Decision:         "confirmed",
			HardGateFailures: []string{},
			Warnings:         []string{},
			GateResults:      []engine.GateResult{},
		},
		CandidateID:         "law-42",
		FromState:           pack.LawTested,
		RequestedState:      pack.LawConfirmed,
		NewState:            pack.LawConfirmed,
		TransitionValid:     true,
		RequirementFailures: []string{},
		Disqualifiers:       []string{},
		LifecycleComplete:   true,
	}
	require.NoError(t, s.WriteEnvelope(ctx, env))

	got, err := s.ReadEnvelope(ctx, "run-law-001")
	require.NoError(t, err)
	assert.Equal(t, "law", got.Stream)

	var decoded engine.LawEnvelope
	require.NoError(t, json.Unmarshal(got.Envelope, &decoded))
	assert.Equal(t, pack.LawConfirmed, decoded.NewState)
	assert.True(t, decoded.LifecycleComplete)
}
