// Package audit provides a database-backed audit trail for security events.
//
// # Overview
//
// Every authentication attempt, authorization denial, and destructive
// mutation is recorded as an AuditEvent in the audit_logs table. Events are
// queryable through SearchFilter for incident review.
//
// # Usage
//
//	logger, err := audit.NewDBLogger(db)
//	logger.LogDenial(ctx, &userID, audit.ResourceTypeProject, "42", "update", "not_manager")
//
// # Related Packages
//
//   - pkg/policy: Produces the decisions this package records
//   - pkg/api: Calls the logger from its handlers
package audit
