// Package postgres persists task reports and run summaries in PostgreSQL
// and can serve market records from it. Reports are stored as JSONB
// documents with the query columns lifted out, so schema evolution of the
// report payload never needs a migration.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"fabbench/domain/core"
	"fabbench/domain/report"
	apperrors "fabbench/internal/errors"
	"fabbench/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_reports (
	task_id    TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	category   TEXT NOT NULL,
	status     TEXT NOT NULL,
	alpha      DOUBLE PRECISION NOT NULL DEFAULT 0,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_task_reports_run ON task_reports (run_id);

CREATE TABLE IF NOT EXISTS run_summaries (
	run_id     TEXT PRIMARY KEY,
	agent_id   TEXT NOT NULL,
	mean_alpha DOUBLE PRECISION NOT NULL DEFAULT 0,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// ReportSink is the PostgreSQL-backed report ledger.
type ReportSink struct {
	db *sqlx.DB
}

var _ ports.ReportSink = (*ReportSink)(nil)

// NewReportSink connects to the database and ensures the ledger schema.
func NewReportSink(databaseURL string) (*ReportSink, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to report ledger", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError("failed to ensure report ledger schema", err)
	}
	return &ReportSink{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *ReportSink) Close() error { return s.db.Close() }

// SaveReport upserts one task report. Re-saving the same task overwrites
// the earlier row, which keeps retried tasks idempotent.
func (s *ReportSink) SaveReport(ctx context.Context, r report.TaskReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return apperrors.DatabaseError("failed to encode task report", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_reports (task_id, run_id, category, status, alpha, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (task_id) DO UPDATE
		SET status = EXCLUDED.status, alpha = EXCLUDED.alpha, payload = EXCLUDED.payload`,
		r.TaskID.String(), r.RunID.String(), string(r.Category), string(r.Status), r.Alpha.Score, payload)
	if err != nil {
		return apperrors.DatabaseError("failed to save task report", err)
	}
	return nil
}

// SaveSummary upserts the run summary.
func (s *ReportSink) SaveSummary(ctx context.Context, summary report.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return apperrors.DatabaseError("failed to encode run summary", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_summaries (run_id, agent_id, mean_alpha, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id) DO UPDATE
		SET mean_alpha = EXCLUDED.mean_alpha, payload = EXCLUDED.payload`,
		summary.RunID.String(), summary.AgentID.String(), summary.MeanAlpha, payload)
	if err != nil {
		return apperrors.DatabaseError("failed to save run summary", err)
	}
	return nil
}

// ListReports returns the reports of one run ordered by task ID.
func (s *ReportSink) ListReports(ctx context.Context, runID core.RunID) ([]report.TaskReport, error) {
	var rows [][]byte
	err := s.db.SelectContext(ctx, &rows,
		`SELECT payload FROM task_reports WHERE run_id = $1 ORDER BY task_id`, runID.String())
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list task reports", err)
	}

	out := make([]report.TaskReport, 0, len(rows))
	for _, raw := range rows {
		var r report.TaskReport
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, apperrors.DatabaseError("failed to decode task report", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// GetSummary returns the run summary, or core.ErrReportNotFound.
func (s *ReportSink) GetSummary(ctx context.Context, runID core.RunID) (*report.RunSummary, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw,
		`SELECT payload FROM run_summaries WHERE run_id = $1`, runID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrReportNotFound
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load run summary", err)
	}
	var summary report.RunSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, apperrors.DatabaseError("failed to decode run summary", err)
	}
	return &summary, nil
}
