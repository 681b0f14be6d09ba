// ABOUTME: Package documentation for the RBAC model
// ABOUTME: Snapshots are read-only views; mutations always refetch

// Package rbac models roles and their permission grants for the admin
// console.
//
// The backend is authoritative. A Snapshot is a point-in-time read of all
// roles plus the permission catalogue; permission checks resolve a role's
// attached permission ids through the catalogue and fail closed, so an id
// the catalogue no longer knows is displayed but never grants access.
// Grants and revokes round-trip to the backend and refetch the affected
// role before returning.
package rbac
