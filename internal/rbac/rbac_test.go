// ABOUTME: Tests for snapshot permission resolution and grant/revoke flow
// ABOUTME: Covers fail-closed checks, stale attachments, and the matrix shape

package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/console-gateway/internal/platform"
)

func testCatalogue() []platform.Permission {
	return []platform.Permission{
		{ID: "p-1", Name: "document:create", Resource: "document", Action: "create"},
		{ID: "p-2", Name: "document:read", Resource: "document", Action: "read"},
		{ID: "p-3", Name: "user:read", Resource: "user", Action: "read"},
	}
}

func testRoles() []platform.Role {
	return []platform.Role{
		{
			ID:   "role-admin-1",
			Name: "Admin",
			Permissions: []platform.Permission{
				{ID: "p-1"}, {ID: "p-2"}, {ID: "p-3"},
			},
		},
		{
			ID:   "role-viewer-1",
			Name: "Viewer",
			Permissions: []platform.Permission{
				{ID: "p-2"},
				{ID: "p-ghost"}, // no longer in the catalogue
			},
		},
	}
}

func TestSnapshot_HasPermission(t *testing.T) {
	snap := newSnapshot(testRoles(), testCatalogue())

	assert.True(t, snap.HasPermission("role-admin-1", "document", "create"))
	assert.True(t, snap.HasPermission("role-viewer-1", "document", "read"))
	assert.False(t, snap.HasPermission("role-viewer-1", "document", "create"))
	assert.False(t, snap.HasPermission("missing-role", "document", "read"), "unknown role grants nothing")
}

func TestSnapshot_StaleAttachmentNeverGrants(t *testing.T) {
	// p-ghost is attached to the viewer role but absent from the catalogue:
	// it must render, but it must not resolve to any resource/action.
	snap := newSnapshot(testRoles(), testCatalogue())

	assert.True(t, snap.RoleHas("role-viewer-1", "p-ghost"))
	assert.False(t, snap.HasPermission("role-viewer-1", "document", "create"))
	assert.False(t, snap.HasPermission("role-viewer-1", "user", "read"))

	stale := snap.StaleAttachments()
	assert.Equal(t, []string{"p-ghost"}, stale["role-viewer-1"])
	assert.Empty(t, stale["role-admin-1"])
}

func TestSnapshot_Matrix(t *testing.T) {
	snap := newSnapshot(testRoles(), testCatalogue())
	groups := snap.Matrix()

	require.Len(t, groups, 2)
	assert.Equal(t, "document", groups[0].Resource)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "user", groups[1].Resource)

	// document:create is held by admin only.
	create := groups[0].Rows[0]
	require.Equal(t, "create", create.Permission.Action)
	assert.Equal(t, []bool{true, false}, create.Granted)

	// document:read is held by both.
	read := groups[0].Rows[1]
	assert.Equal(t, []bool{true, true}, read.Granted)
}

// fakeRBACBackend records calls and serves canned responses.
type fakeRBACBackend struct {
	roles     []platform.Role
	catalogue []platform.Permission

	assigned [][2]string
	revoked  [][2]string

	getRole func(roleID string) (*platform.Role, error)
}

func (f *fakeRBACBackend) ListRoles(ctx context.Context, token string, limit int) ([]platform.Role, error) {
	return f.roles, nil
}

func (f *fakeRBACBackend) GetRole(ctx context.Context, token, roleID string) (*platform.Role, error) {
	return f.getRole(roleID)
}

func (f *fakeRBACBackend) ListPermissions(ctx context.Context, token string) ([]platform.Permission, error) {
	return f.catalogue, nil
}

func (f *fakeRBACBackend) AssignPermission(ctx context.Context, token, roleID, permissionID string) error {
	f.assigned = append(f.assigned, [2]string{roleID, permissionID})
	return nil
}

func (f *fakeRBACBackend) RevokePermission(ctx context.Context, token, roleID, permissionID string) error {
	f.revoked = append(f.revoked, [2]string{roleID, permissionID})
	return nil
}

func TestService_GrantRefetchesRole(t *testing.T) {
	backend := &fakeRBACBackend{
		getRole: func(roleID string) (*platform.Role, error) {
			return &platform.Role{
				ID:          roleID,
				Name:        "Viewer",
				Permissions: []platform.Permission{{ID: "p-2"}, {ID: "p-1"}},
			}, nil
		},
	}

	svc := NewService(backend)
	role, err := svc.Grant(context.Background(), "t1", "role-viewer-1", "p-1")
	require.NoError(t, err)

	require.Equal(t, [][2]string{{"role-viewer-1", "p-1"}}, backend.assigned)
	assert.Len(t, role.Permissions, 2, "returned role reflects the refetch, not a local edit")
}

func TestService_RevokeRefetchesRole(t *testing.T) {
	backend := &fakeRBACBackend{
		getRole: func(roleID string) (*platform.Role, error) {
			return &platform.Role{ID: roleID, Permissions: []platform.Permission{{ID: "p-2"}}}, nil
		},
	}

	svc := NewService(backend)
	role, err := svc.Revoke(context.Background(), "t1", "role-viewer-1", "p-1")
	require.NoError(t, err)

	require.Equal(t, [][2]string{{"role-viewer-1", "p-1"}}, backend.revoked)
	assert.Len(t, role.Permissions, 1)
}

func TestService_GrantSurfacesRefetchError(t *testing.T) {
	backend := &fakeRBACBackend{
		getRole: func(roleID string) (*platform.Role, error) {
			return nil, platform.ErrNotFound
		},
	}

	svc := NewService(backend)
	_, err := svc.Grant(context.Background(), "t1", "role-gone", "p-1")
	assert.True(t, errors.Is(err, platform.ErrNotFound))
}
