package policy

import (
	"context"
	"errors"

	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// Identity represents the caller of a request. It is an explicit value passed
// into every decision; there is no ambient "current user". The zero Identity
// is unauthenticated.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

// Authenticated reports whether the identity belongs to a signed-in user
func (id Identity) Authenticated() bool {
	return id.UserID != 0
}

// Reason explains a denial. The set is closed; transports map reasons to
// status codes without re-deriving the cause.
type Reason string

const (
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonNotAMember       Reason = "not_a_member"
	ReasonNotManager       Reason = "not_manager"
	ReasonNotAuthor        Reason = "not_author"
	ReasonNotAccountOwner  Reason = "not_account_owner"
	ReasonInvalidAssignee  Reason = "invalid_assignee"
	// ReasonAuthorNoLongerContributor marks an author whose membership was
	// revoked after they created the resource. Distinct from a generic denial
	// so callers can surface the data-consistency condition.
	ReasonAuthorNoLongerContributor Reason = "author_no_longer_contributor"
	ReasonNotFound                  Reason = "not_found"
)

// Decision is the engine's output: Allow, or Deny with a reason
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

// Allow returns an allowing decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// ErrUnknownAction is returned (alongside a deny) when a dispatcher receives
// an action value outside the closed enum. Unknown actions never fall through
// to an allow.
var ErrUnknownAction = errors.New("unknown action")

// ProjectAction enumerates the operations on a project
type ProjectAction int

const (
	ProjectList ProjectAction = iota + 1
	ProjectCreate
	ProjectRead
	ProjectUpdate
	ProjectDelete
	ProjectManageContributors
)

// IssueAction enumerates the operations on an issue
type IssueAction int

const (
	IssueList IssueAction = iota + 1
	IssueCreate
	IssueRead
	IssueUpdate
	IssueDelete
)

// CommentAction enumerates the operations on a comment
type CommentAction int

const (
	CommentList CommentAction = iota + 1
	CommentCreate
	CommentRead
	CommentUpdate
	CommentDelete
)

// IssueContext carries the resolved resources an issue decision needs.
// Project is required for IssueList/IssueCreate; Issue for the rest.
// Assignee is the resolved contributor named in a create payload, nil when
// the lookup found no such contributor.
type IssueContext struct {
	Project  *tracker.Project
	Issue    *tracker.Issue
	Assignee *tracker.Contributor
}

// CommentContext carries the resolved resources a comment decision needs.
// Project and Issue come from the locator chain; Comment is required for
// CommentRead/CommentUpdate/CommentDelete.
type CommentContext struct {
	Project *tracker.Project
	Issue   *tracker.Issue
	Comment *tracker.Comment
}

// RoleStore is the read-only membership lookup the engine consults. It is
// satisfied by tracker.Store. A single decision performs at most one role
// lookup, so every decision reads one consistent snapshot.
type RoleStore interface {
	GetRole(ctx context.Context, userID, projectID int64) (tracker.Role, bool, error)
}
