// ABOUTME: Route protection middleware over the session controller
// ABOUTME: Decisions are re-evaluated on every request, never cached

package guard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/docuchat/console-gateway/internal/session"
)

// Requirement is the access level a route demands.
type Requirement int

const (
	// Public routes render for everyone.
	Public Requirement = iota

	// Authenticated routes require a live session.
	Authenticated

	// AdminOnly routes additionally require the session to pass an admin
	// rule. Non-admins are sent to the default landing, not the login page.
	AdminOnly
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin-only"
	default:
		return "unknown"
	}
}

type ctxKey struct{}

// WithController attaches the request's session controller to the context.
func WithController(ctx context.Context, c *session.Controller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the session controller attached to the context, or
// nil when none was attached.
func FromContext(ctx context.Context) *session.Controller {
	c, _ := ctx.Value(ctxKey{}).(*session.Controller)
	return c
}

// RetryAfterSeconds is the Retry-After value sent while auth state is
// still settling.
const RetryAfterSeconds = "2"

// Denial reasons passed to a DenyFunc.
const (
	DenySettling  = "settling"
	DenyAnonymous = "anonymous"
	DenyForbidden = "forbidden"
)

// Denial describes a request the guard turned away.
type Denial struct {
	Requirement Requirement
	Reason      string
}

// DenyFunc observes denials, for metrics and auditing. It runs after the
// denial response has been written.
type DenyFunc func(r *http.Request, d Denial)

// Protect wraps a handler with an access requirement. The decision is made
// fresh on every request from the controller's current state:
//
//   - state still settling (initializing, authenticating, or degraded):
//     503 with Retry-After, never a redirect, so a slow backend cannot
//     bounce a logged-in user to the login page
//   - no live session: 303 to the login route
//   - admin-only without admin: 303 to the default landing
func Protect(req Requirement, routes session.Routes, next http.Handler) http.Handler {
	return ProtectObserved(req, routes, next, nil)
}

// ProtectObserved is Protect with a denial observer. The observer fires
// only for requests the guard itself turned away, never for responses
// the wrapped handler produced.
func ProtectObserved(req Requirement, routes session.Routes, next http.Handler, onDeny DenyFunc) http.Handler {
	logger := slog.Default().With("component", "guard")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if req == Public {
			next.ServeHTTP(w, r)
			return
		}

		deny := func(reason string) {
			if onDeny != nil {
				onDeny(r, Denial{Requirement: req, Reason: reason})
			}
		}

		ctrl := FromContext(r.Context())
		if ctrl == nil {
			logger.Error("no session controller on request context", "path", r.URL.Path)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		switch ctrl.State() {
		case session.StateInitializing, session.StateAuthenticating, session.StateDegraded:
			w.Header().Set("Retry-After", RetryAfterSeconds)
			http.Error(w, "authentication state is still settling", http.StatusServiceUnavailable)
			deny(DenySettling)
			return
		}

		if !ctrl.SignedIn() {
			logger.Debug("gate redirect to login", "path", r.URL.Path)
			http.Redirect(w, r, routes.Login, http.StatusSeeOther)
			deny(DenyAnonymous)
			return
		}

		if req == AdminOnly && !ctrl.IsAdmin() {
			logger.Debug("gate redirect to landing", "path", r.URL.Path)
			http.Redirect(w, r, routes.DefaultLanding, http.StatusSeeOther)
			deny(DenyForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
