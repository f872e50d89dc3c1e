// Package auth provides user accounts and session tokens for TaskDesk.
//
// # Overview
//
// Users sign in with first-party credentials (bcrypt at rest) and receive an
// opaque bearer token:
//
//	td_<base64url(32 random bytes)>
//
// Only the SHA-256 hash of a token is stored. Validation goes through a
// small LRU cache so the hot path costs one hash and one map lookup;
// revocation invalidates the cached entry. Expired sessions are swept by a
// periodic job owned by the server entrypoint.
//
// Account rules carried from the product requirements: a username is
// mandatory and users must be at least 15 years old. The consent flags
// (can_be_contacted, can_data_be_shared) are stored verbatim and never
// inferred.
//
// # Related Packages
//
//   - pkg/policy: consumes Identity values built from validated sessions
//   - pkg/middleware: extracts bearer tokens and attaches the identity
package auth
