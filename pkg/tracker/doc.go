// Package tracker provides the project/issue/comment data model for TaskDesk.
//
// # Overview
//
// This package owns the persistent entities (projects, contributors, issues,
// comments), the SQL store that backs them, and the resource locator that
// resolves URL paths into consistent parent chains.
//
// The resource hierarchy is strict:
//
//	Project -> Contributor (membership)
//	Project -> Issue -> Comment
//
// Deleting a project cascades to its contributors, issues, and comments; the
// cascade is an explicit foreign-key contract in the migrations, not behavior
// inferred by callers.
//
// # Locator
//
// Locator resolves a path like (project, issue, comment) into a Chain and
// enforces parent consistency: an issue that exists but belongs to a different
// project than the one named in the path resolves to NotFoundError at the
// issue level. Existence is never leaked across projects.
//
// # Related Packages
//
//   - pkg/policy: authorization decisions over these entities
//   - pkg/auth: the users referenced by author and contributor rows
package tracker
