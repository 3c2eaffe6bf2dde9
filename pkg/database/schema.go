package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema creates the tables used by the PostgreSQL storage driver. Every
// statement is idempotent so it is safe to run on each start.
var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS service_request_seq START 1`,
	`CREATE TABLE IF NOT EXISTS service_requests (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		service_name TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending','processing','approved','rejected','completed')),
		priority TEXT NOT NULL CHECK (priority IN ('low','medium','high')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		notes TEXT,
		approved_by TEXT,
		attachments TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_service_requests_owner ON service_requests (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_service_requests_status ON service_requests (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		related_request_id TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		action TEXT NOT NULL,
		resource TEXT NOT NULL,
		resource_id TEXT,
		old_values BYTEA,
		new_values BYTEA,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs (resource, resource_id, created_at)`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
