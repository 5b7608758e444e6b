package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// StoredEnvelope is one audit-trail row. The full envelope JSON is
// kept verbatim so stream-specific fields survive round-trips without
// the store knowing every envelope shape.
type StoredEnvelope struct {
	RunID            string
	InputHash        string
	Seed             int64
	Mode             string
	Stream           string
	ScenarioID       string
	Decision         string
	HardGateFailures []string
	Warnings         []string
	Envelope         json.RawMessage
	CreatedAt        string
}

// ReadEnvelope fetches one envelope by run ID.
func (s *Store) ReadEnvelope(ctx context.Context, runID string) (*StoredEnvelope, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, input_hash, seed, mode, stream, scenario_id, decision,
		       hard_gate_failures, warnings, envelope, created_at
		FROM envelopes WHERE run_id = ?
	`, runID)

	env, err := scanEnvelope(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("envelope %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("read envelope %s: %w", runID, err)
	}
	return env, nil
}

// ListByInputHash returns every envelope recorded for a pack
// fingerprint, ordered by run ID. Run IDs are UUIDv7, so this order
// is creation order.
func (s *Store) ListByInputHash(ctx context.Context, inputHash string) ([]StoredEnvelope, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, input_hash, seed, mode, stream, scenario_id, decision,
		       hard_gate_failures, warnings, envelope, created_at
		FROM envelopes WHERE input_hash = ? ORDER BY run_id
	`, inputHash)
	if err != nil {
		return nil, fmt.Errorf("list envelopes for %s: %w", inputHash, err)
	}
	defer rows.Close()

	var envs []StoredEnvelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, fmt.Errorf("list envelopes for %s: %w", inputHash, err)
		}
		envs = append(envs, *env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list envelopes for %s: %w", inputHash, err)
	}
	return envs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvelope(row rowScanner) (*StoredEnvelope, error) {
	var env StoredEnvelope
	var failuresJSON, warningsJSON, envelopeJSON string

	err := row.Scan(
		&env.RunID, &env.InputHash, &env.Seed, &env.Mode, &env.Stream,
		&env.ScenarioID, &env.Decision, &failuresJSON, &warningsJSON,
		&envelopeJSON, &env.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(failuresJSON), &env.HardGateFailures); err != nil {
		return nil, fmt.Errorf("decode failures: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &env.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	env.Envelope = json.RawMessage(envelopeJSON)
	return &env, nil
}
