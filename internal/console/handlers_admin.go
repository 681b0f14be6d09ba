// ABOUTME: Admin pages: role list, permission matrix, grant/revoke, audit
// ABOUTME: Every mutation refetches from the backend and is audited

package console

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docuchat/console-gateway/internal/guard"
	"github.com/docuchat/console-gateway/internal/platform"
	"github.com/docuchat/console-gateway/internal/store"
)

func (c *Console) accessToken(r *http.Request) string {
	ctrl := guard.FromContext(r.Context())
	if ctrl == nil {
		return ""
	}
	return ctrl.AccessToken()
}

func (c *Console) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := c.rbac.Load(r.Context(), c.accessToken(r))
	if err != nil {
		c.renderAdminError(w, r, err)
		return
	}
	c.renderDashboard(w, r, snap)
}

func (c *Console) handleRolesPage(w http.ResponseWriter, r *http.Request) {
	snap, err := c.rbac.Load(r.Context(), c.accessToken(r))
	if err != nil {
		c.renderAdminError(w, r, err)
		return
	}
	c.renderRoles(w, r, snap)
}

func (c *Console) handleMatrixPage(w http.ResponseWriter, r *http.Request) {
	snap, err := c.rbac.Load(r.Context(), c.accessToken(r))
	if err != nil {
		c.renderAdminError(w, r, err)
		return
	}
	c.renderMatrix(w, r, snap)
}

func (c *Console) handleGrant(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	permissionID := r.PostFormValue("permission_id")
	if permissionID == "" {
		http.Error(w, "permission_id is required", http.StatusBadRequest)
		return
	}

	if _, err := c.rbac.Grant(r.Context(), c.accessToken(r), roleID, permissionID); err != nil {
		c.renderAdminError(w, r, err)
		return
	}

	c.audit(r, store.AuditGrantPermission, "role", roleID,
		map[string]any{"permission_id": permissionID})
	http.Redirect(w, r, "/admin/permissions", http.StatusSeeOther)
}

func (c *Console) handleRevoke(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	permissionID := chi.URLParam(r, "permissionID")

	if _, err := c.rbac.Revoke(r.Context(), c.accessToken(r), roleID, permissionID); err != nil {
		c.renderAdminError(w, r, err)
		return
	}

	c.audit(r, store.AuditRevokePermission, "role", roleID,
		map[string]any{"permission_id": permissionID})
	http.Redirect(w, r, "/admin/permissions", http.StatusSeeOther)
}

func (c *Console) handleAuditPage(w http.ResponseWriter, r *http.Request) {
	entries, err := c.store.ListAuditLog(r.Context(), store.AuditFilter{Limit: 200})
	if err != nil {
		c.logger.Error("audit list failed", "error", err)
		http.Error(w, "audit log unavailable", http.StatusInternalServerError)
		return
	}
	c.renderAudit(w, r, entries)
}

// renderAdminError maps a backend failure to the right console response:
// a rejected credential ends the session, an outage renders a retryable
// page, anything else is a plain error page.
func (c *Console) renderAdminError(w http.ResponseWriter, r *http.Request, err error) {
	if c.invalidateOn401(w, r, err) {
		return
	}

	if platform.IsUnreachable(err) {
		w.Header().Set("Retry-After", guard.RetryAfterSeconds)
		c.renderError(w, http.StatusServiceUnavailable, unreachableMsg)
		return
	}

	if ve := platform.AsValidation(err); ve != nil {
		c.renderError(w, http.StatusBadRequest, ve.Message)
		return
	}

	c.logger.Error("admin operation failed", "path", r.URL.Path, "error", err)
	c.renderError(w, http.StatusInternalServerError, "Something went wrong.")
}
