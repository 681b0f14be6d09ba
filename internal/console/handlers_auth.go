// ABOUTME: Login, register, and logout handlers
// ABOUTME: Validation messages from the backend are re-rendered verbatim

package console

import (
	"net/http"

	"github.com/docuchat/console-gateway/internal/guard"
	"github.com/docuchat/console-gateway/internal/platform"
	"github.com/docuchat/console-gateway/internal/store"
)

const unreachableMsg = "The service is temporarily unavailable. Please try again."

func (c *Console) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	if ctrl != nil && ctrl.SignedIn() {
		c.handleRoot(w, r)
		return
	}
	c.renderLogin(w, "")
}

func (c *Console) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	if ctrl == nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		c.renderLogin(w, "Invalid form submission.")
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	route, err := ctrl.Login(r.Context(), email, password)
	if err != nil {
		if ve := platform.AsValidation(err); ve != nil {
			c.metrics.Logins.WithLabelValues("invalid").Inc()
			c.auditAs(r, email, store.AuditLoginFailed, "session", sessionIDFrom(r.Context()), nil)
			c.renderLogin(w, ve.Message)
			return
		}
		if platform.IsUnreachable(err) {
			c.metrics.Logins.WithLabelValues("unreachable").Inc()
			c.renderLogin(w, unreachableMsg)
			return
		}
		c.metrics.Logins.WithLabelValues("error").Inc()
		c.logger.Error("login failed", "error", err)
		c.renderLogin(w, "Login failed. Please try again.")
		return
	}

	c.metrics.Logins.WithLabelValues("success").Inc()
	c.audit(r, store.AuditLogin, "session", sessionIDFrom(r.Context()), nil)
	http.Redirect(w, r, route, http.StatusSeeOther)
}

func (c *Console) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	if ctrl != nil && ctrl.SignedIn() {
		c.handleRoot(w, r)
		return
	}
	c.renderRegister(w, "")
}

func (c *Console) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	if ctrl == nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		c.renderRegister(w, "Invalid form submission.")
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	fullName := r.PostFormValue("full_name")

	route, err := ctrl.Register(r.Context(), email, password, fullName)
	if err != nil {
		if ve := platform.AsValidation(err); ve != nil {
			c.renderRegister(w, ve.Message)
			return
		}
		if platform.IsUnreachable(err) {
			c.renderRegister(w, unreachableMsg)
			return
		}
		c.logger.Error("registration failed", "error", err)
		c.renderRegister(w, "Registration failed. Please try again.")
		return
	}

	http.Redirect(w, r, route, http.StatusSeeOther)
}

func (c *Console) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	if ctrl == nil {
		http.Redirect(w, r, c.routes.Login, http.StatusSeeOther)
		return
	}

	var email string
	if sess := ctrl.Current(); sess != nil {
		email = sess.Email
	}

	route := ctrl.Logout(r.Context())
	c.auditAs(r, email, store.AuditLogout, "session", sessionIDFrom(r.Context()), nil)
	http.Redirect(w, r, route, http.StatusSeeOther)
}

// audit records an admin action attributed to the current session's user.
// Audit failures are logged, never surfaced: the action itself succeeded.
func (c *Console) audit(r *http.Request, action store.AuditAction, targetType, targetID string, detail map[string]any) {
	var email string
	if ctrl := guard.FromContext(r.Context()); ctrl != nil {
		if sess := ctrl.Current(); sess != nil {
			email = sess.Email
		}
	}
	c.auditAs(r, email, action, targetType, targetID, detail)
}

func (c *Console) auditAs(r *http.Request, email string, action store.AuditAction, targetType, targetID string, detail map[string]any) {
	entry := &store.AuditEntry{
		SessionID:  sessionIDFrom(r.Context()),
		ActorEmail: email,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
	}
	if err := c.store.AppendAuditLog(r.Context(), entry); err != nil {
		c.logger.Warn("audit append failed", "action", action, "error", err)
	}
}
