// ABOUTME: Package documentation for the gateway's local persistence
// ABOUTME: SQLite-backed sessions, credentials, and audit trail

// Package store persists the gateway's local state in SQLite: console
// sessions issued to browsers, the credential pair each session holds,
// and the audit trail of administrative actions.
//
// Identity is never stored here. The credential pair is the only durable
// artifact of a login; everything else about the user is re-derived from
// the backend on each resolution.
package store
