// ABOUTME: Admin console web UI over the platform backend
// ABOUTME: Routes, per-browser session wiring, and the chi router

package console

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"

	"github.com/docuchat/console-gateway/internal/config"
	"github.com/docuchat/console-gateway/internal/guard"
	"github.com/docuchat/console-gateway/internal/metrics"
	"github.com/docuchat/console-gateway/internal/platform"
	"github.com/docuchat/console-gateway/internal/rbac"
	"github.com/docuchat/console-gateway/internal/session"
	"github.com/docuchat/console-gateway/internal/store"
)

// Console serves the admin console. Each browser session gets its own
// session controller bound to the credential row the session owns.
type Console struct {
	store   *store.SQLiteStore
	backend *platform.Client
	rbac    *rbac.Service
	metrics *metrics.Metrics
	codec   *securecookie.SecureCookie
	logger  *slog.Logger

	cookieName string
	sessionTTL time.Duration
	routes     session.Routes

	mu          sync.Mutex
	controllers map[string]*session.Controller
}

// New wires a console from its dependencies.
func New(st *store.SQLiteStore, backend *platform.Client, m *metrics.Metrics, cfg *config.Config) *Console {
	return &Console{
		store:   st,
		backend: backend,
		rbac:    rbac.NewService(backend),
		metrics: m,
		codec:   securecookie.New([]byte(cfg.Session.HashKey), []byte(cfg.Session.BlockKey)),
		logger:  slog.Default().With("component", "console"),

		cookieName: cfg.Session.CookieName,
		sessionTTL: cfg.Session.TTL,
		routes: session.Routes{
			Login:          cfg.Routes.Login,
			DefaultLanding: cfg.Routes.DefaultLanding,
			AdminLanding:   cfg.Routes.AdminLanding,
		},

		controllers: make(map[string]*session.Controller),
	}
}

// Router builds the console's route tree.
func (c *Console) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(c.withSession)

	r.Get("/", c.handleRoot)
	r.Get("/healthz", c.handleHealth)

	r.Get("/login", c.handleLoginPage)
	r.Post("/login", c.handleLogin)
	r.Get("/register", c.handleRegisterPage)
	r.Post("/register", c.handleRegister)
	r.Post("/logout", c.handleLogout)

	r.Method(http.MethodGet, "/home",
		c.protect(guard.Authenticated, http.HandlerFunc(c.handleHome)))

	r.Route("/admin", func(r chi.Router) {
		r.Method(http.MethodGet, "/",
			c.protect(guard.AdminOnly, http.HandlerFunc(c.handleAdminDashboard)))
		r.Method(http.MethodGet, "/roles",
			c.protect(guard.AdminOnly, http.HandlerFunc(c.handleRolesPage)))
		r.Method(http.MethodGet, "/permissions",
			c.protect(guard.AdminOnly, http.HandlerFunc(c.handleMatrixPage)))
		r.Method(http.MethodPost, "/roles/{roleID}/permissions",
			c.protect(guard.AdminOnly, http.HandlerFunc(c.handleGrant)))
		r.Method(http.MethodPost, "/roles/{roleID}/permissions/{permissionID}/revoke",
			c.protect(guard.AdminOnly, http.HandlerFunc(c.handleRevoke)))
		r.Method(http.MethodGet, "/audit",
			c.protect(guard.AdminOnly, http.HandlerFunc(c.handleAuditPage)))
	})

	return r
}

// protect wraps a handler with the route guard. The guard reports its own
// denials, so a handler's success redirect is never mistaken for one.
func (c *Console) protect(req guard.Requirement, next http.Handler) http.Handler {
	return guard.ProtectObserved(req, c.routes, next, func(r *http.Request, d guard.Denial) {
		c.metrics.GateDenials.WithLabelValues(d.Reason).Inc()
		if d.Reason == guard.DenySettling {
			return
		}
		c.audit(r, store.AuditGateDenied, "route", r.URL.Path,
			map[string]any{"requirement": d.Requirement.String(), "reason": d.Reason})
	})
}

func (c *Console) handleRoot(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	if ctrl == nil {
		http.Redirect(w, r, c.routes.Login, http.StatusSeeOther)
		return
	}

	switch ctrl.State() {
	case session.StateInitializing, session.StateAuthenticating, session.StateDegraded:
		w.Header().Set("Retry-After", guard.RetryAfterSeconds)
		http.Error(w, "authentication state is still settling", http.StatusServiceUnavailable)
		return
	}

	if ctrl.SignedIn() {
		if ctrl.IsAdmin() {
			http.Redirect(w, r, c.routes.AdminLanding, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, c.routes.DefaultLanding, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, c.routes.Login, http.StatusSeeOther)
}

func (c *Console) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (c *Console) handleHome(w http.ResponseWriter, r *http.Request) {
	ctrl := guard.FromContext(r.Context())
	c.renderHome(w, ctrl.Current(), ctrl.IsAdmin())
}
