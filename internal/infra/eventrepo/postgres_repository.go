// Package eventrepo persists scored transit events.
package eventrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/impact"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS astro_events (
		id              TEXT PRIMARY KEY,
		event_date      DATE NOT NULL,
		transiting_body TEXT NOT NULL,
		natal_body      TEXT NOT NULL,
		aspect          TEXT NOT NULL,
		impact_score    DOUBLE PRECISION NOT NULL,
		severity        TEXT NOT NULL,
		payload         JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

const upsertSQL = `
	INSERT INTO astro_events (id, event_date, transiting_body, natal_body, aspect, impact_score, severity, payload)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET impact_score = EXCLUDED.impact_score,
	    severity = EXCLUDED.severity,
	    payload = EXCLUDED.payload
`

// PostgresRepository stores events in Postgres.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the events table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

// SaveEvents upserts events in a single transaction.
func (r *PostgresRepository) SaveEvents(ctx context.Context, events []impact.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		if _, err := tx.Exec(ctx, upsertSQL,
			ev.ID,
			ev.Date,
			ev.Match.TransitingBody,
			ev.Match.NatalBody,
			string(ev.Match.Aspect),
			ev.ImpactScore,
			string(ev.Severity),
			payload,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("upsert event %s: %w", ev.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// FindEvent fetches an event by id.
func (r *PostgresRepository) FindEvent(ctx context.Context, id string) (impact.Event, bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT payload
		FROM astro_events
		WHERE id = $1
		LIMIT 1
	`, id)
	if err != nil {
		return impact.Event{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return impact.Event{}, false, rows.Err()
	}
	ev, err := scanEvent(rows)
	if err != nil {
		return impact.Event{}, false, err
	}
	return ev, true, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (impact.Event, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return impact.Event{}, err
	}
	var ev impact.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return impact.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

var _ astro.EventRepository = (*PostgresRepository)(nil)
