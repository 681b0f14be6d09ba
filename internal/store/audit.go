// ABOUTME: Audit log entity and store methods for console admin actions
// ABOUTME: Records who granted or revoked what through which session

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents an auditable console action.
type AuditAction string

const (
	AuditLogin            AuditAction = "login"
	AuditLoginFailed      AuditAction = "login_failed"
	AuditLogout           AuditAction = "logout"
	AuditSessionExpired   AuditAction = "session_expired"
	AuditGateDenied       AuditAction = "gate_denied"
	AuditGrantPermission  AuditAction = "grant_permission"
	AuditRevokePermission AuditAction = "revoke_permission"
)

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID         string
	SessionID  string
	ActorEmail string
	Action     AuditAction
	TargetType string // "role", "permission", "session"
	TargetID   string
	Timestamp  time.Time
	Detail     map[string]any
}

// AuditFilter narrows a ListAuditLog call. Zero values mean no filter.
type AuditFilter struct {
	Since      *time.Time
	Action     *AuditAction
	ActorEmail *string
	Limit      int
}

// AppendAuditLog appends an entry, generating ID and Timestamp if unset.
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var detailJSON *string
	if e.Detail != nil {
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
		str := string(data)
		detailJSON = &str
	}

	query := `
		INSERT INTO audit_log (audit_id, session_id, actor_email, action, target_type, target_id, ts, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.SessionID, e.ActorEmail, string(e.Action),
		e.TargetType, e.TargetID, e.Timestamp, detailJSON)
	if err != nil {
		return fmt.Errorf("appending audit log: %w", err)
	}
	return nil
}

// ListAuditLog returns entries matching the filter, newest first. The
// default limit is 100, capped at 1000.
func (s *SQLiteStore) ListAuditLog(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	var conds []string
	var args []any

	if filter.Since != nil {
		conds = append(conds, "ts >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Action != nil {
		conds = append(conds, "action = ?")
		args = append(args, string(*filter.Action))
	}
	if filter.ActorEmail != nil {
		conds = append(conds, "actor_email = ?")
		args = append(args, *filter.ActorEmail)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := "SELECT audit_id, session_id, actor_email, action, target_type, target_id, ts, detail_json FROM audit_log"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		var detailJSON *string

		if err := rows.Scan(&e.ID, &e.SessionID, &e.ActorEmail, &e.Action,
			&e.TargetType, &e.TargetID, &e.Timestamp, &detailJSON); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if detailJSON != nil {
			if err := json.Unmarshal([]byte(*detailJSON), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling audit detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}
