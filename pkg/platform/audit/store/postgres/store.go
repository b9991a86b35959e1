package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	audit "atelier/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

type Option func(*Store)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = s.clock()
	}
	query := `
		INSERT INTO audit_events (category, ts, user_id, actor_id, subject, action, reason, device, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Category, ts, event.UserID, event.ActorID,
		event.Subject, event.Action, event.Reason, event.Device, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]audit.Event, error) {
	query := `
		SELECT category, ts, user_id, actor_id, subject, action, reason, device, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY ts
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(
			&e.Category, &e.Timestamp, &e.UserID, &e.ActorID,
			&e.Subject, &e.Action, &e.Reason, &e.Device, &e.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
