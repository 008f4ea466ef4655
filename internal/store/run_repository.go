package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// RunRepository persists validation runs and their findings.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a run repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun stores a run and all its findings in one transaction. Saving the
// same run ID again replaces its findings.
func (r *RunRepository) SaveRun(ctx context.Context, run *contracts.Run) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	counts := run.CountBySeverity()
	_, err = tx.Exec(ctx, `
		INSERT INTO validation.runs (id, started_at, duration_ms, positions, trades, errors, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			duration_ms = EXCLUDED.duration_ms,
			positions = EXCLUDED.positions,
			trades = EXCLUDED.trades,
			errors = EXCLUDED.errors,
			warnings = EXCLUDED.warnings
	`, run.ID, run.StartedAt, run.DurationMS, run.Positions, run.Trades,
		counts[contracts.SeverityError], counts[contracts.SeverityWarning])
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM validation.findings WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear findings: %w", err)
	}

	batch := &pgx.Batch{}
	for i, f := range run.Findings {
		var date interface{}
		if !f.Date.IsZero() {
			date = f.Date
		}
		batch.Queue(`
			INSERT INTO validation.findings
				(run_id, position, severity, code, date, instrument_id,
				 observed, expected, deviation, message, seq)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, run.ID, i, string(f.Severity), f.Code, date, nullableString(f.InstrumentID),
			f.Observed, f.Expected, f.Deviation, f.Message, f.Seq)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save findings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun returns a stored run with its findings.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*contracts.Run, error) {
	run := &contracts.Run{ID: id}
	err := r.pool.QueryRow(ctx, `
		SELECT started_at, duration_ms, positions, trades
		FROM validation.runs WHERE id = $1
	`, id).Scan(&run.StartedAt, &run.DurationMS, &run.Positions, &run.Trades)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.Findings, err = r.GetFindings(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetFindings returns a run's findings in their stable engine order.
func (r *RunRepository) GetFindings(ctx context.Context, runID string) ([]contracts.Finding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT severity, code, date, instrument_id, observed, expected, deviation, message, seq
		FROM validation.findings
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []contracts.Finding
	for rows.Next() {
		var f contracts.Finding
		var severity string
		var date *time.Time
		var instrument *string
		if err := rows.Scan(&severity, &f.Code, &date, &instrument,
			&f.Observed, &f.Expected, &f.Deviation, &f.Message, &f.Seq); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Severity = contracts.Severity(severity)
		if date != nil {
			f.Date = contracts.DateOf(*date)
		}
		f.InstrumentID = derefString(instrument)
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read findings: %w", err)
	}
	return findings, nil
}

// ListRuns returns the most recent run summaries.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, started_at, duration_ms, positions, trades, errors, warnings
		FROM validation.runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var summaries []contracts.RunSummary
	for rows.Next() {
		var s contracts.RunSummary
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.DurationMS,
			&s.Positions, &s.Trades, &s.Errors, &s.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return summaries, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
