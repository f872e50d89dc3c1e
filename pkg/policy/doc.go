// Package policy implements the authorization engine for TaskDesk.
//
// # Overview
//
// Every request is decided by a pure function of (identity, action,
// resource context) returning a Decision: Allow, or Deny with a
// machine-distinguishable Reason. The engine holds no mutable state and is
// safe to call from any number of request handlers concurrently; its only
// I/O is a bounded set of role point-lookups through the RoleStore
// interface.
//
// # Rules
//
// The role hierarchy, strongest first:
//
//   - admin: short-circuits every actor check to Allow
//   - manager: may mutate a project and manage its contributors
//   - contributor: may read a project and create issues/comments in it
//   - author: may mutate their own issues/comments, but only while still a
//     contributor of the enclosing project
//
// Authorship alone never grants access. An author who has been removed from
// a project's contributors is denied with ReasonAuthorNoLongerContributor,
// which is surfaced distinctly because it signals stale authorship rather
// than a plain permission miss.
//
// Actions are closed enums dispatched exhaustively; an action value the
// switch does not know is a deny plus an error, never a silent allow.
//
// # Visibility
//
// The Filter answers "which items may this identity list" and is defined to
// agree item-by-item with the single-resource read decisions. Listing
// projects with zero memberships is itself denied for non-admins; see the
// design notes before relying on that behavior.
package policy
