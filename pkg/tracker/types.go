package tracker

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a contributor's role within a project
type Role string

const (
	RoleManager     Role = "MANAGER"     // Can mutate the project and manage membership
	RoleContributor Role = "CONTRIBUTOR" // Can read the project and create issues/comments
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleContributor
}

// ProjectType represents the kind of project being tracked
type ProjectType string

const (
	ProjectTypeBackend  ProjectType = "BACKEND"
	ProjectTypeFrontend ProjectType = "FRONTEND"
	ProjectTypeIOS      ProjectType = "IOS"
	ProjectTypeAndroid  ProjectType = "ANDROID"
)

// Valid reports whether the project type is one of the known values
func (t ProjectType) Valid() bool {
	switch t {
	case ProjectTypeBackend, ProjectTypeFrontend, ProjectTypeIOS, ProjectTypeAndroid:
		return true
	}
	return false
}

// IssuePriority represents the urgency of an issue
type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
)

// Valid reports whether the priority is one of the known values
func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// IssueTag represents the category of an issue
type IssueTag string

const (
	TagBug     IssueTag = "BUG"
	TagTask    IssueTag = "TASK"
	TagFeature IssueTag = "FEATURE"
)

// Valid reports whether the tag is one of the known values
func (t IssueTag) Valid() bool {
	switch t {
	case TagBug, TagTask, TagFeature:
		return true
	}
	return false
}

// IssueStatus represents the workflow state of an issue
type IssueStatus string

const (
	StatusToDo       IssueStatus = "TO_DO"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusDone       IssueStatus = "DONE"
)

// Valid reports whether the status is one of the known values
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Project represents a tracked project
type Project struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Type        ProjectType `json:"type"`
	AuthorID    int64       `json:"author_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Contributor represents a user's membership in a project with a role.
// A user has at most one contributor row per project.
type Contributor struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Issue represents an issue within a project. The assignee references a
// Contributor row that must belong to the same project.
type Issue struct {
	ID                    int64         `json:"id"`
	ProjectID             int64         `json:"project_id"`
	AuthorID              int64         `json:"author_id"`
	AssigneeContributorID int64         `json:"assignee_contributor_id"`
	Name                  string        `json:"name"`
	Description           string        `json:"description,omitempty"`
	Priority              IssuePriority `json:"priority"`
	Tag                   IssueTag      `json:"tag"`
	Status                IssueStatus   `json:"status"`
	CreatedAt             time.Time     `json:"created_at"`
}

// Comment represents a comment on an issue
type Comment struct {
	ID          uuid.UUID `json:"id"`
	IssueID     int64     `json:"issue_id"`
	AuthorID    int64     `json:"author_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateProjectRequest represents request to create a project
type CreateProjectRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Type        ProjectType `json:"type"`
}

// UpdateProjectRequest represents request to update a project
type UpdateProjectRequest struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Type        *ProjectType `json:"type,omitempty"`
}

// AddContributorRequest represents request to add a project member
type AddContributorRequest struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// CreateIssueRequest represents request to create an issue
type CreateIssueRequest struct {
	Name                  string        `json:"name"`
	Description           string        `json:"description,omitempty"`
	Priority              IssuePriority `json:"priority"`
	Tag                   IssueTag      `json:"tag"`
	AssigneeContributorID int64         `json:"assignee_contributor_id"`
}

// UpdateIssueRequest represents request to update an issue
type UpdateIssueRequest struct {
	Name                  *string        `json:"name,omitempty"`
	Description           *string        `json:"description,omitempty"`
	Priority              *IssuePriority `json:"priority,omitempty"`
	Tag                   *IssueTag      `json:"tag,omitempty"`
	Status                *IssueStatus   `json:"status,omitempty"`
	AssigneeContributorID *int64         `json:"assignee_contributor_id,omitempty"`
}

// CreateCommentRequest represents request to create a comment
type CreateCommentRequest struct {
	Description string `json:"description"`
}

// UpdateCommentRequest represents request to update a comment
type UpdateCommentRequest struct {
	Description string `json:"description"`
}
