package datastore

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the tables on startup if they do not exist yet.
// Production deployments run migrations out of band; this keeps local and
// test environments usable with a bare database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS subscriptions (
			email               TEXT PRIMARY KEY,
			created_at          TIMESTAMPTZ NOT NULL,
			delivery_hour       INT NOT NULL DEFAULT 0,
			delivery_minute     INT NOT NULL DEFAULT 0,
			time_set            BOOLEAN NOT NULL DEFAULT FALSE,
			timezone            TEXT NOT NULL DEFAULT '',
			sources             JSONB NOT NULL DEFAULT '[]',
			stage               TEXT NOT NULL,
			pending_url         TEXT NOT NULL DEFAULT '',
			last_digest_sent_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS delivery_attempts (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			status        TEXT NOT NULL,
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_attempts_email
			ON delivery_attempts (email, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
