// ABOUTME: Tests for the admin-detection rules on a session
// ABOUTME: Covers both role-id and role-name extraction paths

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		roleID   string
		roleName string
		want     bool
	}{
		{"admin substring in role id", "role-admin-1", "", true},
		{"admin role name", "", "Admin", true},
		{"admin role name lowercase", "", "admin", true},
		{"viewer role id", "role-viewer-1", "", false},
		{"viewer role name", "", "Viewer", false},
		{"both empty", "", "", false},
		{"superadmin id still matches", "superadmin", "", true},
		{"administrator name does not equal admin", "", "administrator", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{RoleID: tt.roleID, RoleName: tt.roleName}
			assert.Equal(t, tt.want, s.IsAdmin())
		})
	}
}

func TestSession_IsAdmin_NilReceiver(t *testing.T) {
	var s *Session
	assert.False(t, s.IsAdmin())
}

func TestSession_SignedIn(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.SignedIn())
	assert.False(t, (&Session{IsActive: false}).SignedIn())
	assert.True(t, (&Session{IsActive: true}).SignedIn())
}
