package audit

import (
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthRegister    EventType = "auth.register"
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"
	EventTypeAuthLogout      EventType = "auth.logout"

	// Authorization events
	EventTypeAuthzDenied EventType = "authz.access_denied"

	// Data mutation events
	EventTypeProjectCreate     EventType = "data.project_create"
	EventTypeProjectUpdate     EventType = "data.project_update"
	EventTypeProjectDelete     EventType = "data.project_delete"
	EventTypeContributorAdd    EventType = "data.contributor_add"
	EventTypeContributorRemove EventType = "data.contributor_remove"
	EventTypeIssueCreate       EventType = "data.issue_create"
	EventTypeIssueUpdate       EventType = "data.issue_update"
	EventTypeIssueDelete       EventType = "data.issue_delete"
	EventTypeCommentCreate     EventType = "data.comment_create"
	EventTypeCommentUpdate     EventType = "data.comment_update"
	EventTypeCommentDelete     EventType = "data.comment_delete"

	// Account events
	EventTypeUserUpdate EventType = "account.user_update"
	EventTypeUserDelete EventType = "account.user_delete"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceTypeProject     ResourceType = "project"
	ResourceTypeContributor ResourceType = "contributor"
	ResourceTypeIssue       ResourceType = "issue"
	ResourceTypeComment     ResourceType = "comment"
	ResourceTypeUser        ResourceType = "user"
	ResourceTypeSession     ResourceType = "session"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor information. UserID is nil for unauthenticated requests.
	UserID   *int64 `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`

	// Resource information
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// Action and outcome detail. Reason carries the denial reason for
	// denied events.
	Action  string `json:"action,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// SearchFilter represents filters for querying audit logs
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time

	UserID     *int64
	EventTypes []EventType
	Status     *EventStatus

	ResourceType ResourceType
	ResourceID   string

	Limit  int
	Offset int
}

// Stats summarizes audit activity over a time range
type Stats struct {
	TotalEvents    int64                 `json:"total_events"`
	EventsByType   map[EventType]int64   `json:"events_by_type"`
	EventsByStatus map[EventStatus]int64 `json:"events_by_status"`
	FailedLogins   int64                 `json:"failed_logins"`
	AccessDenials  int64                 `json:"access_denials"`
}
