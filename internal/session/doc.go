// Package session acquires, validates, persists and propagates the authenticated identity of the client.
//
// A [Manager] is constructed explicitly and passed to its consumers; there is no package-level session.
//
// # Lifecycle
//
//	Unknown ──Bootstrap──▶ Authenticated | Anonymous
//	Anonymous ──Login──▶ Authenticated
//	Authenticated ──Logout | expiry | rejected Refresh──▶ Anonymous
//
// The state never returns to Unknown. Consumers that see Unknown must wait ([Manager.Await]) instead of
// assuming the user is anonymous.
//
// # Failure Semantics
//
// Bootstrap and Refresh absorb every failure into Anonymous and clear the stored credential: an unreachable
// or rejecting profile endpoint is treated like an expired credential. Login and Register return an
// [*AuthError] for display and leave the session and the store untouched.
//
// The credential store ([Store]) never fails a flow. A backend error costs durability only.
package session
