// ABOUTME: Normalized session record and the admin-detection rules
// ABOUTME: A Session is always re-derived from the backend, never persisted

package session

import "strings"

// Session is the in-memory representation of who is currently logged in.
// It is reconstructed from the backend every time a credential is present;
// only the credential pair itself survives a restart.
type Session struct {
	ID          string
	Email       string
	DisplayName string
	RoleID      string
	RoleName    string
	IsActive    bool
}

// The backend encodes admin-ness two different ways, so both extraction
// rules are applied and either one grants admin:
//
//	rule 1: the role id contains the substring "admin" (case-insensitive)
//	rule 2: the role name equals "admin" (case-insensitive)
func adminByRoleID(roleID string) bool {
	return strings.Contains(strings.ToLower(roleID), "admin")
}

func adminByRoleName(roleName string) bool {
	return strings.EqualFold(roleName, "admin")
}

// IsAdmin reports whether either admin rule matches this session's role.
func (s *Session) IsAdmin() bool {
	if s == nil {
		return false
	}
	return adminByRoleID(s.RoleID) || adminByRoleName(s.RoleName)
}

// SignedIn reports whether this session counts as a live login. A session
// with IsActive false gates identically to no session at all.
func (s *Session) SignedIn() bool {
	return s != nil && s.IsActive
}
