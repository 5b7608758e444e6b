package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mfeld/arbiter/internal/engine"
)

// WriteEnvelope appends one result envelope to the audit trail.
// Uses ON CONFLICT(run_id) DO NOTHING for idempotency: replaying a
// write of the same run is silently ignored, never an update.
func (s *Store) WriteEnvelope(ctx context.Context, env engine.Envelope) error {
	base := env.Base()

	failuresJSON, err := json.Marshal(base.HardGateFailures)
	if err != nil {
		return fmt.Errorf("write envelope %s: marshal failures: %w", base.RunID, err)
	}
	warningsJSON, err := json.Marshal(base.Warnings)
	if err != nil {
		return fmt.Errorf("write envelope %s: marshal warnings: %w", base.RunID, err)
	}
	envelopeJSON, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("write envelope %s: marshal envelope: %w", base.RunID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO envelopes
		(run_id, input_hash, seed, mode, stream, scenario_id, decision, hard_gate_failures, warnings, envelope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		base.RunID,
		base.InputHash,
		base.Seed,
		string(base.Mode),
		string(env.Stream()),
		base.ScenarioID,
		base.Decision,
		string(failuresJSON),
		string(warningsJSON),
		string(envelopeJSON),
	)
	if err != nil {
		return fmt.Errorf("write envelope %s: %w", base.RunID, err)
	}
	return nil
}

// WriteResult appends every envelope of an evaluation result.
func (s *Store) WriteResult(ctx context.Context, result *engine.Result) error {
	for _, env := range result.Envelopes {
		if err := s.WriteEnvelope(ctx, env); err != nil {
			return err
		}
	}
	return nil
}
