// ABOUTME: Role and permission model built from backend snapshots
// ABOUTME: Permission checks resolve through the catalogue and fail closed

package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/docuchat/console-gateway/internal/platform"
)

// roleListLimit is the page size requested when loading roles. The admin
// console shows all roles on one screen.
const roleListLimit = 100

// Backend is the subset of the platform client the model needs.
type Backend interface {
	ListRoles(ctx context.Context, accessToken string, limit int) ([]platform.Role, error)
	GetRole(ctx context.Context, accessToken, roleID string) (*platform.Role, error)
	ListPermissions(ctx context.Context, accessToken string) ([]platform.Permission, error)
	AssignPermission(ctx context.Context, accessToken, roleID, permissionID string) error
	RevokePermission(ctx context.Context, accessToken, roleID, permissionID string) error
}

// Service loads role/permission snapshots and applies grants and revokes.
// It never caches across calls: after every mutation the affected role is
// refetched so callers always see the backend's authoritative state.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func NewService(backend Backend) *Service {
	return &Service{
		backend: backend,
		logger:  slog.Default().With("component", "rbac"),
	}
}

// Snapshot is a point-in-time view of all roles and the permission
// catalogue. It is immutable; mutations go through the Service and
// produce fresh state.
type Snapshot struct {
	Roles     []platform.Role
	Catalogue []platform.Permission

	byPermID map[string]platform.Permission
	byRoleID map[string]*platform.Role
}

// Load fetches the full role list and permission catalogue.
func (s *Service) Load(ctx context.Context, accessToken string) (*Snapshot, error) {
	roles, err := s.backend.ListRoles(ctx, accessToken, roleListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}

	catalogue, err := s.backend.ListPermissions(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}

	return newSnapshot(roles, catalogue), nil
}

func newSnapshot(roles []platform.Role, catalogue []platform.Permission) *Snapshot {
	snap := &Snapshot{
		Roles:     roles,
		Catalogue: catalogue,
		byPermID:  make(map[string]platform.Permission, len(catalogue)),
		byRoleID:  make(map[string]*platform.Role, len(roles)),
	}
	for _, p := range catalogue {
		snap.byPermID[p.ID] = p
	}
	for i := range roles {
		snap.byRoleID[roles[i].ID] = &roles[i]
	}
	return snap
}

// Role returns the role with the given id, or nil.
func (s *Snapshot) Role(roleID string) *platform.Role {
	return s.byRoleID[roleID]
}

// Permission returns the catalogue entry for a permission id. The second
// return is false for ids the catalogue does not know.
func (s *Snapshot) Permission(permissionID string) (platform.Permission, bool) {
	p, ok := s.byPermID[permissionID]
	return p, ok
}

// HasPermission reports whether the role grants the given resource/action
// pair. Every permission id attached to the role is resolved through the
// catalogue first: an id the catalogue does not know can never grant
// anything, and an unknown role grants nothing.
func (s *Snapshot) HasPermission(roleID, resource, action string) bool {
	role := s.byRoleID[roleID]
	if role == nil {
		return false
	}

	for _, attached := range role.Permissions {
		resolved, ok := s.byPermID[attached.ID]
		if !ok {
			continue
		}
		if resolved.Resource == resource && resolved.Action == action {
			return true
		}
	}
	return false
}

// RoleHas reports whether the role has the given permission id attached,
// regardless of whether the catalogue knows it. Used to render the matrix,
// where stale attachments are still shown.
func (s *Snapshot) RoleHas(roleID, permissionID string) bool {
	role := s.byRoleID[roleID]
	if role == nil {
		return false
	}
	for _, p := range role.Permissions {
		if p.ID == permissionID {
			return true
		}
	}
	return false
}

// MatrixGroup is one resource's block of the permission matrix.
type MatrixGroup struct {
	Resource string
	Rows     []MatrixRow
}

// MatrixRow is one permission crossed with every role.
type MatrixRow struct {
	Permission platform.Permission
	Granted    []bool // index-aligned with Snapshot.Roles
}

// Matrix renders the catalogue as resource-grouped rows crossed with every
// role. Group and row order follow the catalogue's sort (resource, then
// action).
func (s *Snapshot) Matrix() []MatrixGroup {
	var groups []MatrixGroup
	for _, perm := range s.Catalogue {
		if len(groups) == 0 || groups[len(groups)-1].Resource != perm.Resource {
			groups = append(groups, MatrixGroup{Resource: perm.Resource})
		}

		row := MatrixRow{Permission: perm, Granted: make([]bool, len(s.Roles))}
		for i, role := range s.Roles {
			row.Granted[i] = s.RoleHas(role.ID, perm.ID)
		}

		g := &groups[len(groups)-1]
		g.Rows = append(g.Rows, row)
	}
	return groups
}

// StaleAttachments lists permission ids attached to roles that the
// catalogue no longer knows. These render in the console but never grant.
func (s *Snapshot) StaleAttachments() map[string][]string {
	stale := make(map[string][]string)
	for _, role := range s.Roles {
		for _, p := range role.Permissions {
			if _, ok := s.byPermID[p.ID]; !ok {
				stale[role.ID] = append(stale[role.ID], p.ID)
			}
		}
	}
	for _, ids := range stale {
		sort.Strings(ids)
	}
	return stale
}

// Grant attaches a permission to a role, then refetches the role so the
// caller sees the backend's post-mutation state rather than an optimistic
// local edit.
func (s *Service) Grant(ctx context.Context, accessToken, roleID, permissionID string) (*platform.Role, error) {
	if err := s.backend.AssignPermission(ctx, accessToken, roleID, permissionID); err != nil {
		return nil, fmt.Errorf("assigning permission %s to role %s: %w", permissionID, roleID, err)
	}

	role, err := s.backend.GetRole(ctx, accessToken, roleID)
	if err != nil {
		return nil, fmt.Errorf("refetching role %s after grant: %w", roleID, err)
	}

	s.logger.Info("permission granted", "role_id", roleID, "permission_id", permissionID)
	return role, nil
}

// Revoke detaches a permission from a role, then refetches the role.
func (s *Service) Revoke(ctx context.Context, accessToken, roleID, permissionID string) (*platform.Role, error) {
	if err := s.backend.RevokePermission(ctx, accessToken, roleID, permissionID); err != nil {
		return nil, fmt.Errorf("revoking permission %s from role %s: %w", permissionID, roleID, err)
	}

	role, err := s.backend.GetRole(ctx, accessToken, roleID)
	if err != nil {
		return nil, fmt.Errorf("refetching role %s after revoke: %w", roleID, err)
	}

	s.logger.Info("permission revoked", "role_id", roleID, "permission_id", permissionID)
	return role, nil
}
