package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/harness"
)

// Run is one stored test run.
type Run struct {
	ID            string             `json:"id"`
	Seq           int64              `json:"seq"`
	MeasurementFP string             `json:"measurement_fp"`
	OutcomesFP    string             `json:"outcomes_fp"`
	Seed          *uint64            `json:"seed,omitempty"`
	Measurement   fusion.Measurement `json:"measurement"`
	ModuleCount   int                `json:"module_count"`

	// Outcomes is ordered by module. Empty in ListRuns results.
	Outcomes []harness.Outcome `json:"outcomes,omitempty"`
}

// NewRun builds a Run with a fresh UUIDv7 id and computed fingerprints.
// outcomes must already be in presentation order (sorted by module).
func NewRun(m fusion.Measurement, outcomes []harness.Outcome, seed *uint64) (Run, error) {
	if outcomes == nil {
		outcomes = []harness.Outcome{}
	}

	fp, err := fusion.OutcomesFingerprint(harness.TestRun{Outcomes: outcomes}.Records())
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	return Run{
		ID:            uuid.Must(uuid.NewV7()).String(),
		MeasurementFP: fusion.MeasurementFingerprint(m),
		OutcomesFP:    fp,
		Seed:          seed,
		Measurement:   m,
		ModuleCount:   len(outcomes),
		Outcomes:      outcomes,
	}, nil
}

// WriteRun stores a run and its outcomes in one transaction.
//
// The run's Seq is assigned here as MAX(seq)+1. Writing a run whose ID is
// already stored changes nothing and returns the stored record with
// inserted=false.
func (s *Store) WriteRun(ctx context.Context, run Run) (stored Run, inserted bool, err error) {
	measurementJSON, err := marshalMeasurement(run.Measurement)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, false, fmt.Errorf("write run: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, measurement_fp, outcomes_fp, seed, measurement, module_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.MeasurementFP,
		run.OutcomesFP,
		marshalSeed(run.Seed),
		measurementJSON,
		run.ModuleCount,
	)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if err := tx.Rollback(); err != nil {
			return Run{}, false, fmt.Errorf("write run: rollback: %w", err)
		}
		existing, err := s.ReadRun(ctx, run.ID)
		if err != nil {
			return Run{}, false, fmt.Errorf("write run: read existing: %w", err)
		}
		return existing, false, nil
	}

	for _, o := range run.Outcomes {
		q, err := marshalQuaternion(o.Quaternion)
		if err != nil {
			return Run{}, false, fmt.Errorf("write run: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (run_id, module, present, quaternion, error)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, o.Module, o.Present(), q, o.Err); err != nil {
			return Run{}, false, fmt.Errorf("write run: insert outcome %s: %w", o.Module, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, false, fmt.Errorf("write run: commit: %w", err)
	}

	run.Seq = seq
	return run, true, nil
}
