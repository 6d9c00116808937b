package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresArchive persists events to the funnel_events table:
//
//	CREATE TABLE funnel_events (
//	    id         uuid PRIMARY KEY,
//	    name       text NOT NULL,
//	    session_id text NOT NULL DEFAULT '',
//	    payload    jsonb NOT NULL,
//	    created_at timestamptz NOT NULL
//	);
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive connects to the archive database. Returns (nil, nil)
// when no DSN is configured.
func NewPostgresArchive(ctx context.Context, dsn string) (*PostgresArchive, error) {
	if dsn == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("archive payload marshal: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO funnel_events (id, name, session_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.Name, event.SessionID, payload, event.Timestamp,
	)
	return err
}

// Close releases the connection pool.
func (a *PostgresArchive) Close() {
	a.pool.Close()
}
