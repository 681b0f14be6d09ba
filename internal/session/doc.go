// ABOUTME: Package documentation for the session controller
// ABOUTME: Explains ownership of the credential and the supersession model

// Package session owns the authenticated state of one console session.
//
// A Controller is the single writer of the stored credential: it resolves
// the credential into a Session at startup, performs login/register/logout,
// and clears the credential when the backend rejects it. Consumers read
// state through the controller and never touch the credential store
// directly.
//
// Every credential transition bumps a generation counter. Responses from
// in-flight backend calls are applied only when the generation they were
// issued under is still current, so a login that starts later always wins
// over one that started earlier, regardless of response arrival order.
package session
