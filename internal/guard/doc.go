// ABOUTME: Package documentation for the route guard
// ABOUTME: One middleware, three requirement levels

// Package guard gates console routes on the session controller's state.
// Requirements are declared per route and re-evaluated on every request,
// so a role change or logout takes effect on the next navigation.
package guard
