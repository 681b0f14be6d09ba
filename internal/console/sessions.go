// ABOUTME: Console session cookie handling and the controller registry
// ABOUTME: One controller per browser session, created lazily and resolved once

package console

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docuchat/console-gateway/internal/guard"
	"github.com/docuchat/console-gateway/internal/platform"
	"github.com/docuchat/console-gateway/internal/session"
	"github.com/docuchat/console-gateway/internal/store"
)

// withSession guarantees every request carries a console session and its
// controller. Missing or invalid cookies get a fresh session; expired
// sessions are replaced the same way.
func (c *Console) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := c.sessionIDFromCookie(r)

		if sessionID != "" {
			cs, err := c.store.GetConsoleSession(r.Context(), sessionID)
			if err != nil {
				c.logger.Error("session lookup failed", "error", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			if cs == nil {
				c.dropController(sessionID)
				sessionID = ""
			}
		}

		if sessionID == "" {
			cs, err := c.store.CreateConsoleSession(r.Context(), c.sessionTTL)
			if err != nil {
				c.logger.Error("session creation failed", "error", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			sessionID = cs.ID
			c.setSessionCookie(w, sessionID)
		} else if err := c.store.TouchConsoleSession(r.Context(), sessionID, c.sessionTTL); err != nil {
			c.logger.Warn("session touch failed", "session_id", sessionID, "error", err)
		}

		ctrl := c.controllerFor(r.Context(), sessionID)

		ctx := guard.WithController(r.Context(), ctrl)
		ctx = withSessionID(ctx, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *Console) sessionIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil {
		return ""
	}

	var sessionID string
	if err := c.codec.Decode(c.cookieName, cookie.Value, &sessionID); err != nil {
		return ""
	}
	return sessionID
}

func (c *Console) setSessionCookie(w http.ResponseWriter, sessionID string) {
	encoded, err := c.codec.Encode(c.cookieName, sessionID)
	if err != nil {
		c.logger.Error("cookie encoding failed", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshWindow is how close to expiry the access token may get before a
// request triggers a proactive rewrite of the pair.
const refreshWindow = 5 * time.Minute

// controllerFor returns the session's controller, creating and resolving
// it on first use. A controller stuck in the degraded state retries its
// resolution on the next request.
func (c *Console) controllerFor(ctx context.Context, sessionID string) *session.Controller {
	c.mu.Lock()
	ctrl, ok := c.controllers[sessionID]
	if !ok {
		creds := c.store.CredentialStoreFor(sessionID)
		ctrl = session.NewController(c.backend, creds, c.routes)
		c.controllers[sessionID] = ctrl
	}
	c.mu.Unlock()

	if st := ctrl.State(); st == session.StateInitializing || st == session.StateDegraded {
		c.resolve(ctx, ctrl)
	}
	c.maybeRefresh(ctx, ctrl)
	return ctrl
}

// maybeRefresh rotates a near-expiry token pair before the request runs.
// A failed refresh is not fatal here: the current token may still work,
// and resolution handles a rejected one.
func (c *Console) maybeRefresh(ctx context.Context, ctrl *session.Controller) {
	refreshed, err := ctrl.MaybeRefresh(ctx, refreshWindow)
	switch {
	case errors.Is(err, session.ErrSuperseded):
	case err != nil:
		c.metrics.Refreshes.WithLabelValues("error").Inc()
		c.logger.Warn("proactive token refresh failed", "error", err)
	case refreshed:
		c.metrics.Refreshes.WithLabelValues("refreshed").Inc()
	}
}

func (c *Console) resolve(ctx context.Context, ctrl *session.Controller) {
	err := ctrl.Resolve(ctx)
	switch {
	case err == nil && ctrl.State() == session.StateAuthenticated:
		c.metrics.Resolutions.WithLabelValues("authenticated").Inc()
	case err == nil:
		c.metrics.Resolutions.WithLabelValues("anonymous").Inc()
	case ctrl.State() == session.StateDegraded:
		c.metrics.Resolutions.WithLabelValues("degraded").Inc()
	default:
		c.metrics.Resolutions.WithLabelValues("error").Inc()
	}
}

func (c *Console) dropController(sessionID string) {
	c.mu.Lock()
	delete(c.controllers, sessionID)
	c.mu.Unlock()
}

// Sweep removes expired console sessions and their controllers, recording
// each expiry in the audit log. Meant to run periodically from the serve
// loop.
func (c *Console) Sweep(ctx context.Context) {
	swept, err := c.store.SweepExpiredSessions(ctx)
	if err != nil {
		c.logger.Warn("session sweep failed", "error", err)
		return
	}

	for _, id := range swept {
		c.dropController(id)
		entry := &store.AuditEntry{
			SessionID:  id,
			Action:     store.AuditSessionExpired,
			TargetType: "session",
			TargetID:   id,
		}
		if err := c.store.AppendAuditLog(ctx, entry); err != nil {
			c.logger.Warn("audit append failed", "action", entry.Action, "error", err)
		}
	}
}

type sessionIDKey struct{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// invalidateOn401 clears the session when an admin call reports the
// credential was rejected, and reports whether it did so.
func (c *Console) invalidateOn401(w http.ResponseWriter, r *http.Request, err error) bool {
	ctrl := guard.FromContext(r.Context())
	if ctrl == nil {
		return false
	}
	if !platform.IsUnauthenticated(err) {
		return false
	}

	ctrl.Invalidate()
	http.Redirect(w, r, c.routes.Login, http.StatusSeeOther)
	return true
}
