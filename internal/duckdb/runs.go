package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tinytelemetry/roundwatch/internal/model"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

// ErrRunNotFound is returned when no run has the requested label.
var ErrRunNotFound = errors.New("duckdb: run not found")

// RunInfo describes one exported run.
type RunInfo struct {
	Label      string
	SourcePath string
	Rounds     int
}

// EntityMean summarizes one entity's series.
type EntityMean struct {
	Entity string
	Mean   float64
	Max    float64
	Points int
}

// SaveRun stores run and its diagnostics, replacing any run with the same label.
func (s *Store) SaveRun(ctx context.Context, run *timeseries.RunResult, sourcePath string, diags []model.Diagnostic) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duckdb: begin save %s: %w", run.Label, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"series_points", "diagnostics", "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE label = ?", run.Label); err != nil {
			return fmt.Errorf("duckdb: clear %s for %s: %w", table, run.Label, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (label, source_path, rounds) VALUES (?, ?, ?)",
		run.Label, sourcePath, run.Rounds,
	); err != nil {
		return fmt.Errorf("duckdb: insert run %s: %w", run.Label, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO series_points (label, family, entity, entity_ord, round, value) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("duckdb: prepare points: %w", err)
	}
	defer stmt.Close()

	for _, f := range run.Families() {
		var insertErr error
		ord := 0
		f.Each(func(entity string, series []float64) {
			for round, v := range series {
				if insertErr != nil {
					return
				}
				_, insertErr = stmt.ExecContext(ctx, run.Label, f.Name(), entity, ord, round, v)
			}
			ord++
		})
		if insertErr != nil {
			return fmt.Errorf("duckdb: insert %s points for %s: %w", f.Name(), run.Label, insertErr)
		}
	}

	for _, d := range diags {
		msg := ""
		if d.Err != nil {
			msg = d.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO diagnostics (label, round, line, message) VALUES (?, ?, ?, ?)",
			run.Label, d.Round, d.Line, msg,
		); err != nil {
			return fmt.Errorf("duckdb: insert diagnostic for %s: %w", run.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duckdb: commit %s: %w", run.Label, err)
	}
	return nil
}

// Labels lists exported runs by label.
func (s *Store) Labels(ctx context.Context) ([]RunInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT label, source_path, rounds FROM runs ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("duckdb: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.Label, &r.SourcePath, &r.Rounds); err != nil {
			return nil, fmt.Errorf("duckdb: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FamilyMeans returns per-entity mean and max of one family of a run, in
// first-seen entity order.
func (s *Store) FamilyMeans(ctx context.Context, label, family string) ([]EntityMean, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT entity, AVG(value), MAX(value), COUNT(*)
		FROM series_points
		WHERE label = ? AND family = ?
		GROUP BY entity, entity_ord
		ORDER BY entity_ord`, label, family)
	if err != nil {
		return nil, fmt.Errorf("duckdb: family means %s/%s: %w", label, family, err)
	}
	defer rows.Close()

	var out []EntityMean
	for rows.Next() {
		var m EntityMean
		if err := rows.Scan(&m.Entity, &m.Mean, &m.Max, &m.Points); err != nil {
			return nil, fmt.Errorf("duckdb: scan family mean: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadRun rebuilds an exported run.
func (s *Store) LoadRun(ctx context.Context, label string) (*timeseries.RunResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rounds int
	err := s.db.QueryRowContext(ctx, "SELECT rounds FROM runs WHERE label = ?", label).Scan(&rounds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("duckdb: load run %s: %w", label, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT family, entity, round, value
		FROM series_points
		WHERE label = ?
		ORDER BY family, entity_ord, round`, label)
	if err != nil {
		return nil, fmt.Errorf("duckdb: load points %s: %w", label, err)
	}
	defer rows.Close()

	run := timeseries.NewRunResult(label, rounds)
	families := make(map[string]*timeseries.Family)
	for _, f := range run.Families() {
		families[f.Name()] = f
	}
	for rows.Next() {
		var family, entity string
		var round int
		var v float64
		if err := rows.Scan(&family, &entity, &round, &v); err != nil {
			return nil, fmt.Errorf("duckdb: scan point: %w", err)
		}
		f, ok := families[family]
		if !ok {
			continue
		}
		// Stored series are already aligned, so Append never pads here.
		_ = f.Append(entity, round, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb: load points %s: %w", label, err)
	}
	return run, nil
}
