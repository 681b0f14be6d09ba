// ABOUTME: Per-session credential rows and a credstore.Store adapter
// ABOUTME: Both tokens are always written together in one statement

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docuchat/console-gateway/internal/credstore"
)

// GetCredential returns the credential pair held by a console session, or
// nil when the session holds none.
func (s *SQLiteStore) GetCredential(ctx context.Context, sessionID string) (*credstore.Credential, error) {
	query := `
		SELECT access_token, refresh_token
		FROM credentials
		WHERE session_id = ?
	`

	cred := &credstore.Credential{}
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&cred.AccessToken, &cred.RefreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential: %w", err)
	}

	if cred.IsZero() {
		return nil, nil
	}
	return cred, nil
}

// SetCredential stores a session's credential pair. Both tokens are
// replaced in a single upsert so a reader can never observe a new access
// token alongside an old refresh token.
func (s *SQLiteStore) SetCredential(ctx context.Context, sessionID string, cred credstore.Credential) error {
	query := `
		INSERT INTO credentials (session_id, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query,
		sessionID, cred.AccessToken, cred.RefreshToken, time.Now().UTC()); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// ClearCredential removes a session's credential pair. Clearing a session
// that holds none succeeds.
func (s *SQLiteStore) ClearCredential(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

// CredentialStore adapts one session's credential row to the
// credstore.Store interface the session controller consumes.
type CredentialStore struct {
	store     *SQLiteStore
	sessionID string
	logger    *slog.Logger
}

// CredentialStoreFor returns the credstore.Store view of one console
// session's credential.
func (s *SQLiteStore) CredentialStoreFor(sessionID string) *CredentialStore {
	return &CredentialStore{
		store:     s,
		sessionID: sessionID,
		logger:    s.logger,
	}
}

var _ credstore.Store = (*CredentialStore)(nil)

// Get returns the held credential, or nil. Read failures report as absence
// so a corrupt row degrades to logged-out instead of wedging the session.
func (c *CredentialStore) Get() *credstore.Credential {
	cred, err := c.store.GetCredential(context.Background(), c.sessionID)
	if err != nil {
		c.logger.Warn("credential read failed", "session_id", c.sessionID, "error", err)
		return nil
	}
	return cred
}

func (c *CredentialStore) Set(cred credstore.Credential) error {
	return c.store.SetCredential(context.Background(), c.sessionID, cred)
}

func (c *CredentialStore) Clear() error {
	return c.store.ClearCredential(context.Background(), c.sessionID)
}
