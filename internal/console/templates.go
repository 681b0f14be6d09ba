// ABOUTME: Template rendering functions for the console UI
// ABOUTME: Loads templates from the embedded filesystem and renders them

package console

import (
	"html/template"
	"net/http"

	"github.com/docuchat/console-gateway/internal/guard"
	"github.com/docuchat/console-gateway/internal/rbac"
	"github.com/docuchat/console-gateway/internal/session"
	"github.com/docuchat/console-gateway/internal/store"
)

type loginData struct {
	Title string
	Error string
}

type registerData struct {
	Title string
	Error string
}

type homeData struct {
	Title   string
	User    *session.Session
	IsAdmin bool
}

type adminPageData struct {
	Title    string
	User     *session.Session
	Snapshot *rbac.Snapshot
	Stale    map[string][]string
	Groups   []rbac.MatrixGroup
}

type auditPageData struct {
	Title   string
	Entries []*store.AuditEntry
}

type errorData struct {
	Title   string
	Message string
}

func (c *Console) render(w http.ResponseWriter, page string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		c.logger.Error("failed to render page", "page", page, "error", err)
	}
}

func (c *Console) renderLogin(w http.ResponseWriter, errorMsg string) {
	c.render(w, "login.html", loginData{Title: "Sign In", Error: errorMsg})
}

func (c *Console) renderRegister(w http.ResponseWriter, errorMsg string) {
	c.render(w, "register.html", registerData{Title: "Create Account", Error: errorMsg})
}

func (c *Console) renderHome(w http.ResponseWriter, user *session.Session, isAdmin bool) {
	c.render(w, "home.html", homeData{Title: "Home", User: user, IsAdmin: isAdmin})
}

func (c *Console) renderDashboard(w http.ResponseWriter, r *http.Request, snap *rbac.Snapshot) {
	c.render(w, "dashboard.html", c.adminData(r, "Admin", snap))
}

func (c *Console) renderRoles(w http.ResponseWriter, r *http.Request, snap *rbac.Snapshot) {
	c.render(w, "roles.html", c.adminData(r, "Roles", snap))
}

func (c *Console) renderMatrix(w http.ResponseWriter, r *http.Request, snap *rbac.Snapshot) {
	data := c.adminData(r, "Permissions", snap)
	data.Groups = snap.Matrix()
	c.render(w, "matrix.html", data)
}

func (c *Console) renderAudit(w http.ResponseWriter, r *http.Request, entries []*store.AuditEntry) {
	c.render(w, "audit.html", auditPageData{Title: "Audit Log", Entries: entries})
}

func (c *Console) renderError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	c.render(w, "error.html", errorData{Title: "Error", Message: message})
}

func (c *Console) adminData(r *http.Request, title string, snap *rbac.Snapshot) adminPageData {
	var user *session.Session
	if ctrl := guard.FromContext(r.Context()); ctrl != nil {
		user = ctrl.Current()
	}
	return adminPageData{
		Title:    title,
		User:     user,
		Snapshot: snap,
		Stale:    snap.StaleAttachments(),
	}
}
