package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"fabbench/domain/core"
	"fabbench/domain/market"
	apperrors "fabbench/internal/errors"
	"fabbench/ports"
)

const recordSchema = `
CREATE TABLE IF NOT EXISTS market_records (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	kind           TEXT NOT NULL,
	ticker         TEXT NOT NULL,
	effective_time TIMESTAMPTZ NOT NULL,
	numbers        JSONB NOT NULL DEFAULT '{}',
	labels         JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_market_records_lookup
	ON market_records (ticker, kind, effective_time);`

// RecordStore owns the connection pool behind the market_records table and
// hands out capability-scoped providers that share it.
type RecordStore struct {
	db *sqlx.DB
}

// RecordProvider serves market records from a PostgreSQL store. Like every
// provider it is untrusted: the lock manager re-checks each effective time
// regardless of the window it requested here.
type RecordProvider struct {
	db  *sqlx.DB
	id  core.ProviderID
	cap market.Capability
}

var _ ports.DataProvider = (*RecordProvider)(nil)

type recordRow struct {
	ID            string    `db:"id"`
	Source        string    `db:"source"`
	Kind          string    `db:"kind"`
	Ticker        string    `db:"ticker"`
	EffectiveTime time.Time `db:"effective_time"`
	Numbers       []byte    `db:"numbers"`
	Labels        []byte    `db:"labels"`
}

// OpenRecordStore connects to the record store and ensures its schema.
func OpenRecordStore(databaseURL string) (*RecordStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to record store", err)
	}
	if _, err := db.Exec(recordSchema); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError("failed to ensure record store schema", err)
	}
	return &RecordStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *RecordStore) Close() error { return s.db.Close() }

// Provider returns a capability-scoped view of the store.
func (s *RecordStore) Provider(id core.ProviderID, cap market.Capability) *RecordProvider {
	cap.Provider = id
	return &RecordProvider{db: s.db, id: id, cap: cap}
}

func (p *RecordProvider) ID() core.ProviderID           { return p.id }
func (p *RecordProvider) Capability() market.Capability { return p.cap }

// Fetch returns matching records in deterministic ID order.
func (p *RecordProvider) Fetch(ctx context.Context, q market.Query) ([]market.DataRecord, error) {
	if !p.servesKind(q.Kind) {
		return nil, core.ErrProviderNotFound
	}

	query := `SELECT id, source, kind, ticker, effective_time, numbers, labels
		FROM market_records WHERE kind = $1 AND ticker = $2`
	args := []any{string(q.Kind), q.Ticker}
	if !q.Start.IsZero() {
		args = append(args, q.Start)
		query += ` AND effective_time >= $` + strconv.Itoa(len(args))
	}
	if !q.End.IsZero() {
		args = append(args, q.End)
		query += ` AND effective_time <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	var rows []recordRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.DatabaseError("failed to query market records", err)
	}

	out := make([]market.DataRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Store upserts records, typically from an ingestion job or a run seeding
// the synthetic universe.
func (s *RecordStore) Store(ctx context.Context, records []market.DataRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError("failed to begin record store transaction", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		numbers, err := json.Marshal(rec.Numbers)
		if err != nil {
			return apperrors.DatabaseError("failed to encode record numbers", err)
		}
		labels, err := json.Marshal(rec.Labels)
		if err != nil {
			return apperrors.DatabaseError("failed to encode record labels", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO market_records (id, source, kind, ticker, effective_time, numbers, labels)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET effective_time = EXCLUDED.effective_time,
			    numbers = EXCLUDED.numbers, labels = EXCLUDED.labels`,
			rec.ID.String(), rec.Source.String(), string(rec.Kind), rec.Ticker,
			rec.EffectiveTime.Time(), numbers, labels); err != nil {
			return apperrors.DatabaseError("failed to store market record", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit market records", err)
	}
	return nil
}

func (p *RecordProvider) servesKind(kind market.RecordKind) bool {
	for _, k := range p.cap.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (r recordRow) toRecord() (market.DataRecord, error) {
	rec := market.DataRecord{
		ID:            core.RecordID(r.ID),
		Source:        core.ProviderID(r.Source),
		Kind:          market.RecordKind(r.Kind),
		Ticker:        r.Ticker,
		EffectiveTime: core.NewTimestamp(r.EffectiveTime),
	}
	if len(r.Numbers) > 0 {
		if err := json.Unmarshal(r.Numbers, &rec.Numbers); err != nil {
			return market.DataRecord{}, apperrors.DatabaseError("failed to decode record numbers", err)
		}
	}
	if len(r.Labels) > 0 {
		if err := json.Unmarshal(r.Labels, &rec.Labels); err != nil {
			return market.DataRecord{}, apperrors.DatabaseError("failed to decode record labels", err)
		}
	}
	return rec, nil
}
