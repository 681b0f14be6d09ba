// ABOUTME: RBAC endpoints of the platform backend
// ABOUTME: Lists roles and permissions, assigns and revokes role permissions

package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// Permission is an atomic (resource, action) capability grain, uniquely
// identified by ID.
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Role is a named bundle of permissions assignable to a user.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	IsSystem    bool         `json:"is_system"`
	Permissions []Permission `json:"permissions"`
	UserCount   int          `json:"user_count"`
}

// ListRoles fetches all roles with their permission lists embedded.
func (c *Client) ListRoles(ctx context.Context, accessToken string, limit int) ([]Role, error) {
	if limit <= 0 {
		limit = 100
	}

	var resp struct {
		Data []Role `json:"data"`
	}
	path := "/admin/roles?limit=" + url.QueryEscape(fmt.Sprint(limit))
	if err := c.getJSON(ctx, path, accessToken, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// GetRole fetches a single role with its permission list.
func (c *Client) GetRole(ctx context.Context, accessToken, roleID string) (*Role, error) {
	var role Role
	path := "/admin/roles/" + url.PathEscape(roleID)
	if err := c.getJSON(ctx, path, accessToken, &role); err != nil {
		return nil, err
	}

	return &role, nil
}

// ListPermissions fetches the global permission catalogue. The backend
// returns permissions grouped by resource with the resource as the map key;
// entries are flattened here with the resource filled back in, sorted by
// resource then action for stable display order.
func (c *Client) ListPermissions(ctx context.Context, accessToken string) ([]Permission, error) {
	var resp struct {
		Data map[string][]Permission `json:"data"`
	}
	if err := c.getJSON(ctx, "/admin/roles/permissions/list", accessToken, &resp); err != nil {
		return nil, err
	}

	var perms []Permission
	for resource, group := range resp.Data {
		for _, p := range group {
			p.Resource = resource
			perms = append(perms, p)
		}
	}

	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Resource != perms[j].Resource {
			return perms[i].Resource < perms[j].Resource
		}
		return perms[i].Action < perms[j].Action
	})

	return perms, nil
}

// AssignPermission adds a permission to a role. Idempotent on the backend.
func (c *Client) AssignPermission(ctx context.Context, accessToken, roleID, permissionID string) error {
	body := map[string]string{"permission_id": permissionID}
	path := "/admin/roles/" + url.PathEscape(roleID) + "/permissions"
	return c.postJSON(ctx, path, accessToken, body, nil)
}

// RevokePermission removes a permission from a role. Idempotent on the backend.
func (c *Client) RevokePermission(ctx context.Context, accessToken, roleID, permissionID string) error {
	path := "/admin/roles/" + url.PathEscape(roleID) + "/permissions/" + url.PathEscape(permissionID)
	return c.do(ctx, http.MethodDelete, path, accessToken, nil, nil)
}
