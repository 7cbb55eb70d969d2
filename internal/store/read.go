package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/madgwhat/internal/harness"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, measurement_fp, outcomes_fp, seed, measurement, module_count`

// ListRuns returns every run without outcomes.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// RunsByMeasurement returns the runs whose measurement fingerprint starts
// with prefix, in seq order, without outcomes. Those runs fed their modules
// identical input.
func (s *Store) RunsByMeasurement(ctx context.Context, prefix string) ([]Run, error) {
	return s.runsByFingerprint(ctx, "measurement_fp", prefix)
}

// RunsByResults returns the runs whose outcomes fingerprint starts with
// prefix, in seq order, without outcomes. Those runs produced byte-identical
// results.
func (s *Store) RunsByResults(ctx context.Context, prefix string) ([]Run, error) {
	return s.runsByFingerprint(ctx, "outcomes_fp", prefix)
}

// runsByFingerprint matches a hex prefix as a range so the column index
// applies: every fingerprint extending prefix sorts below prefix+"\x7f".
func (s *Store) runsByFingerprint(ctx context.Context, column, prefix string) ([]Run, error) {
	prefix = strings.ToLower(prefix)
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE `+column+` >= ? AND `+column+` < ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, prefix, prefix+"\x7f")
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run with its outcomes ordered by module.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	outcomes, err := s.readOutcomes(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.Outcomes = outcomes
	return run, nil
}

func (s *Store) readOutcomes(ctx context.Context, runID string) ([]harness.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, quaternion, error
		FROM outcomes
		WHERE run_id = ?
		ORDER BY module COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []harness.Outcome{}
	for rows.Next() {
		var (
			o     harness.Outcome
			qJSON sql.NullString
		)
		if err := rows.Scan(&o.Module, &qJSON, &o.Err); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if o.Quaternion, err = unmarshalQuaternion(qJSON); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row. sql.ErrNoRows stays detectable with errors.Is.
func scanRun(row scanner) (Run, error) {
	var (
		run             Run
		seed            sql.NullString
		measurementJSON string
	)
	if err := row.Scan(
		&run.ID, &run.Seq, &run.MeasurementFP, &run.OutcomesFP,
		&seed, &measurementJSON, &run.ModuleCount,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.Seed, err = unmarshalSeed(seed); err != nil {
		return Run{}, err
	}
	if run.Measurement, err = unmarshalMeasurement(measurementJSON); err != nil {
		return Run{}, err
	}
	return run, nil
}
