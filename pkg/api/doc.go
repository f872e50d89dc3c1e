// Package api exposes the HTTP surface of the service.
//
// # Overview
//
// Handlers follow one shape: resolve the resource path through the locator,
// ask the policy engine for a decision, then act. Denials are written with
// their reason and recorded in metrics and the audit trail. List endpoints go
// through the visibility filter instead of the engine so results stay
// consistent with single-resource reads.
//
// # Routes
//
// Authentication:
//
//	POST   /api/auth/register
//	POST   /api/auth/login
//	POST   /api/auth/logout
//
// Accounts:
//
//	GET    /api/users/{userID}
//	PATCH  /api/users/{userID}
//	DELETE /api/users/{userID}
//
// Projects and nested resources:
//
//	GET    /api/projects
//	POST   /api/projects
//	GET    /api/projects/{projectID}
//	PATCH  /api/projects/{projectID}
//	DELETE /api/projects/{projectID}
//	GET    /api/projects/{projectID}/contributors
//	POST   /api/projects/{projectID}/contributors
//	DELETE /api/projects/{projectID}/contributors/{userID}
//	GET    /api/projects/{projectID}/issues
//	POST   /api/projects/{projectID}/issues
//	GET    /api/projects/{projectID}/issues/{issueID}
//	PATCH  /api/projects/{projectID}/issues/{issueID}
//	DELETE /api/projects/{projectID}/issues/{issueID}
//	GET    /api/projects/{projectID}/issues/{issueID}/comments
//	POST   /api/projects/{projectID}/issues/{issueID}/comments
//	GET    /api/projects/{projectID}/issues/{issueID}/comments/{commentID}
//	PATCH  /api/projects/{projectID}/issues/{issueID}/comments/{commentID}
//	DELETE /api/projects/{projectID}/issues/{issueID}/comments/{commentID}
//
// # Related Packages
//
//   - pkg/policy: Authorization decisions
//   - pkg/tracker: Resource storage and the locator
//   - pkg/middleware: Authentication, request logging, rate limiting
package api
