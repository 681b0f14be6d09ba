// Package platform is the typed HTTP client for the document-and-chat
// platform's REST backend.
//
// It is the single point that absorbs the backend's payload variance: the
// user object may carry its display name under full_name or name, and its
// role under a nested role object or a flat role_name field. Normalization
// happens here so no downstream component needs shape-specific logic.
//
// Call outcomes map onto a small error taxonomy (ErrUnauthenticated,
// ErrUnreachable, ErrNotFound, ValidationError); callers branch on kinds,
// never on status codes.
package platform
