// ABOUTME: Console session entity and store methods
// ABOUTME: One row per browser session the gateway has issued a cookie for

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConsoleSession is one browser's session with the gateway. It carries no
// identity of its own; identity lives with the credential pair the session
// holds, which the backend re-validates on every resolution.
type ConsoleSession struct {
	ID         string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (cs *ConsoleSession) Expired(now time.Time) bool {
	return now.After(cs.ExpiresAt)
}

// CreateConsoleSession inserts a new session with the given time-to-live
// and returns it.
func (s *SQLiteStore) CreateConsoleSession(ctx context.Context, ttl time.Duration) (*ConsoleSession, error) {
	now := time.Now().UTC()
	cs := &ConsoleSession{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	query := `
		INSERT INTO console_sessions (id, created_at, last_seen_at, expires_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, cs.ID, cs.CreatedAt, cs.LastSeenAt, cs.ExpiresAt); err != nil {
		return nil, fmt.Errorf("creating console session: %w", err)
	}

	s.logger.Debug("console session created", "session_id", cs.ID, "expires_at", cs.ExpiresAt)
	return cs, nil
}

// GetConsoleSession returns the session with the given id, or nil when it
// does not exist or has expired. Expired sessions are treated as absent,
// not as errors.
func (s *SQLiteStore) GetConsoleSession(ctx context.Context, id string) (*ConsoleSession, error) {
	query := `
		SELECT id, created_at, last_seen_at, expires_at
		FROM console_sessions
		WHERE id = ?
	`

	cs := &ConsoleSession{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&cs.ID, &cs.CreatedAt, &cs.LastSeenAt, &cs.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting console session: %w", err)
	}

	if cs.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return cs, nil
}

// TouchConsoleSession updates the last-seen timestamp and slides the expiry
// forward by the given time-to-live.
func (s *SQLiteStore) TouchConsoleSession(ctx context.Context, id string, ttl time.Duration) error {
	now := time.Now().UTC()

	query := `
		UPDATE console_sessions
		SET last_seen_at = ?, expires_at = ?
		WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, now, now.Add(ttl), id); err != nil {
		return fmt.Errorf("touching console session: %w", err)
	}
	return nil
}

// DeleteConsoleSession removes a session and, via the foreign key cascade,
// any credential it held.
func (s *SQLiteStore) DeleteConsoleSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM console_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting console session: %w", err)
	}
	return nil
}

// SweepExpiredSessions deletes every session past its expiry and returns
// the ids that were removed.
func (s *SQLiteStore) SweepExpiredSessions(ctx context.Context) ([]string, error) {
	now := time.Now().UTC()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM console_sessions WHERE expires_at < ?", now)
	if err != nil {
		return nil, fmt.Errorf("listing expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning expired session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expired sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM console_sessions WHERE expires_at < ?", now); err != nil {
		return nil, fmt.Errorf("sweeping expired sessions: %w", err)
	}

	s.logger.Info("swept expired console sessions", "count", len(ids))
	return ids, nil
}
