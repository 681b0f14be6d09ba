// ABOUTME: Package documentation for the console web UI
// ABOUTME: Session cookies, per-session controllers, and the admin pages

// Package console serves the admin console over HTTP.
//
// Each browser gets a signed session cookie; the session id behind it owns
// one credential row in the store and one session controller in memory.
// Controllers are created lazily, resolved on first use, and retried on
// every request while the backend is unreachable. Admin pages always read
// fresh role and permission state from the backend; grants and revokes are
// audited locally.
package console
