// ABOUTME: Tests for the RBAC backend endpoints
// ABOUTME: Covers grouped catalogue flattening and permission mutations

package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListRoles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/roles", r.URL.Path)
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		require.Equal(t, "Bearer t1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id":        "role-1",
					"name":      "Admin",
					"is_system": true,
					"permissions": []map[string]any{
						{"id": "p-1", "resource": "agent", "action": "create"},
					},
				},
			},
			"total": 1,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	roles, err := c.ListRoles(context.Background(), "t1", 50)
	require.NoError(t, err)

	require.Len(t, roles, 1)
	assert.Equal(t, "Admin", roles[0].Name)
	assert.True(t, roles[0].IsSystem)
	require.Len(t, roles[0].Permissions, 1)
	assert.Equal(t, "agent", roles[0].Permissions[0].Resource)
}

func TestClient_ListPermissions_FlattensGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/roles/permissions/list", r.URL.Path)

		// The backend groups by resource and omits the resource field from
		// each entry.
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"user": []map[string]any{
					{"id": "p-3", "name": "user:read", "action": "read"},
				},
				"agent": []map[string]any{
					{"id": "p-2", "name": "agent:read", "action": "read"},
					{"id": "p-1", "name": "agent:create", "action": "create"},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	perms, err := c.ListPermissions(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, perms, 3)
	// Sorted by resource then action, with resource filled back in.
	assert.Equal(t, "agent", perms[0].Resource)
	assert.Equal(t, "create", perms[0].Action)
	assert.Equal(t, "agent", perms[1].Resource)
	assert.Equal(t, "read", perms[1].Action)
	assert.Equal(t, "user", perms[2].Resource)
}

func TestClient_AssignPermission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/roles/role-1/permissions", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "p-1", body["permission_id"])

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.NoError(t, c.AssignPermission(context.Background(), "t1", "role-1", "p-1"))
}

func TestClient_RevokePermission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/admin/roles/role-1/permissions/p-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.NoError(t, c.RevokePermission(context.Background(), "t1", "role-1", "p-1"))
}

func TestClient_GetRole_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Role not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.GetRole(context.Background(), "t1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
