package policy

import (
	"context"
	"fmt"

	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// Engine decides whether an identity may perform an action on a resource.
// It is stateless; construct one and share it across handlers.
type Engine struct {
	roles RoleStore
}

// NewEngine creates a new Engine over the given role store
func NewEngine(roles RoleStore) *Engine {
	return &Engine{roles: roles}
}

// AuthorizeProject dispatches a project action to its rule. The switch is
// exhaustive over ProjectAction; anything else denies and reports
// ErrUnknownAction.
func (e *Engine) AuthorizeProject(ctx context.Context, id Identity, action ProjectAction, project *tracker.Project) (Decision, error) {
	switch action {
	case ProjectList:
		return e.CanListProjects(id), nil
	case ProjectCreate:
		return e.CanCreateProject(id), nil
	case ProjectRead:
		return e.CanReadProject(ctx, id, project)
	case ProjectUpdate, ProjectDelete:
		return e.CanMutateProject(ctx, id, project)
	case ProjectManageContributors:
		return e.CanManageContributors(ctx, id, project)
	}
	return Deny(ReasonNotAMember), fmt.Errorf("%w: project action %d", ErrUnknownAction, action)
}

// AuthorizeIssue dispatches an issue action to its rule
func (e *Engine) AuthorizeIssue(ctx context.Context, id Identity, action IssueAction, rc IssueContext) (Decision, error) {
	switch action {
	case IssueList, IssueRead:
		project := rc.Project
		if rc.Issue != nil && project == nil {
			return Decision{}, fmt.Errorf("issue context missing project")
		}
		return e.CanReadIssue(ctx, id, project)
	case IssueCreate:
		return e.CanCreateIssue(ctx, id, rc.Project, rc.Assignee)
	case IssueUpdate, IssueDelete:
		return e.CanMutateIssue(ctx, id, rc.Issue)
	}
	return Deny(ReasonNotAMember), fmt.Errorf("%w: issue action %d", ErrUnknownAction, action)
}

// AuthorizeComment dispatches a comment action to its rule
func (e *Engine) AuthorizeComment(ctx context.Context, id Identity, action CommentAction, rc CommentContext) (Decision, error) {
	switch action {
	case CommentList, CommentRead, CommentCreate:
		return e.CanCreateComment(ctx, id, rc.Issue)
	case CommentUpdate, CommentDelete:
		return e.CanMutateComment(ctx, id, rc.Comment, rc.Project.ID)
	}
	return Deny(ReasonNotAMember), fmt.Errorf("%w: comment action %d", ErrUnknownAction, action)
}

// CanListProjects always allows; the visibility filter scopes the result
func (e *Engine) CanListProjects(id Identity) Decision {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated)
	}
	return Allow()
}

// CanCreateProject allows any authenticated identity. Creation carries the
// side effect, owned by the store, of inserting the creator's MANAGER row in
// the same transaction.
func (e *Engine) CanCreateProject(id Identity) Decision {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated)
	}
	return Allow()
}

// CanReadProject allows admins and contributors of the project
func (e *Engine) CanReadProject(ctx context.Context, id Identity, project *tracker.Project) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}

	_, member, err := e.roles.GetRole(ctx, id.UserID, project.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonNotAMember), nil
	}
	return Allow(), nil
}

// CanMutateProject allows admins and the project's managers
func (e *Engine) CanMutateProject(ctx context.Context, id Identity, project *tracker.Project) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}

	role, member, err := e.roles.GetRole(ctx, id.UserID, project.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonNotAMember), nil
	}
	if role != tracker.RoleManager {
		return Deny(ReasonNotManager), nil
	}
	return Allow(), nil
}

// CanManageContributors allows admins and the project's managers to add or
// remove membership rows
func (e *Engine) CanManageContributors(ctx context.Context, id Identity, project *tracker.Project) (Decision, error) {
	return e.CanMutateProject(ctx, id, project)
}

// CanCreateIssue allows admins and contributors of the project. The assignee
// named in the payload must itself be a contributor of the same project; that
// validation runs before the admin short-circuit, so an invalid assignee is
// reported as such regardless of who the actor is.
func (e *Engine) CanCreateIssue(ctx context.Context, id Identity, project *tracker.Project, assignee *tracker.Contributor) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if assignee == nil || assignee.ProjectID != project.ID {
		return Deny(ReasonInvalidAssignee), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}

	_, member, err := e.roles.GetRole(ctx, id.UserID, project.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonNotAMember), nil
	}
	return Allow(), nil
}

// CanReadIssue allows admins and contributors of the issue's project
func (e *Engine) CanReadIssue(ctx context.Context, id Identity, project *tracker.Project) (Decision, error) {
	return e.CanReadProject(ctx, id, project)
}

// CanMutateIssue allows admins, and the issue's author while the author is
// still a contributor of the project. An author whose membership was revoked
// is denied with ReasonAuthorNoLongerContributor: authorship alone never
// grants access.
func (e *Engine) CanMutateIssue(ctx context.Context, id Identity, issue *tracker.Issue) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}
	if id.UserID != issue.AuthorID {
		return Deny(ReasonNotAuthor), nil
	}

	_, member, err := e.roles.GetRole(ctx, id.UserID, issue.ProjectID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonAuthorNoLongerContributor), nil
	}
	return Allow(), nil
}

// CanCreateComment allows admins and contributors of the issue's project
func (e *Engine) CanCreateComment(ctx context.Context, id Identity, issue *tracker.Issue) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}

	_, member, err := e.roles.GetRole(ctx, id.UserID, issue.ProjectID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonNotAMember), nil
	}
	return Allow(), nil
}

// CanMutateComment allows admins, and the comment's author while still a
// contributor of the enclosing project
func (e *Engine) CanMutateComment(ctx context.Context, id Identity, comment *tracker.Comment, projectID int64) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}
	if id.UserID != comment.AuthorID {
		return Deny(ReasonNotAuthor), nil
	}

	_, member, err := e.roles.GetRole(ctx, id.UserID, projectID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonAuthorNoLongerContributor), nil
	}
	return Allow(), nil
}

// CanMutateUser allows admins and the account owner to change or delete a
// user account
func (e *Engine) CanMutateUser(id Identity, targetUserID int64) Decision {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated)
	}
	if id.IsAdmin || id.UserID == targetUserID {
		return Allow()
	}
	return Deny(ReasonNotAccountOwner)
}
