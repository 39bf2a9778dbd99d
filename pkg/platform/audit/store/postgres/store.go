// Package postgres keeps the audit trail in the audit_events table next to
// the collections of the postgres backend.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "carebook/pkg/domain"
	audit "carebook/pkg/platform/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id           UUID PRIMARY KEY,
	category     TEXT NOT NULL,
	occurred_at  TIMESTAMPTZ NOT NULL,
	user_id      TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	action       TEXT NOT NULL,
	decision     TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL DEFAULT '',
	operation_id TEXT NOT NULL DEFAULT '',
	actor_id     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, occurred_at)`

const selectColumns = `
	SELECT category, occurred_at, user_id, subject, action,
	       decision, reason, operation_id, actor_id
	FROM audit_events`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

// Append inserts one event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, occurred_at, user_id, subject, action,
			decision, reason, operation_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		event.UserID.String(),
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.OperationID,
		event.ActorID.String(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE user_id = $1 ORDER BY occurred_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListAll returns every event ordered by time (admin-only operation).
func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY occurred_at`)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			userID   string
			actorID  string
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&userID,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.OperationID,
			&actorID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.UserID = id.UserID(userID)
		event.ActorID = id.UserID(actorID)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
