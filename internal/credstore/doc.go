// Package credstore persists the bearer access/refresh token pair.
//
// The pair is the only client-side auth state that survives a restart;
// everything else (the session, effective permissions) is re-derived from it.
// Implementations guarantee the pair is read and written as a unit, and treat
// absent or unavailable storage as "logged out" rather than an error.
package credstore
