package policy

import (
	"context"
	"fmt"

	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// VisibilityStore is the read surface the filter scopes over. It is satisfied
// by tracker.Store.
type VisibilityStore interface {
	RoleStore
	ListProjects(ctx context.Context) ([]*tracker.Project, error)
	ListProjectsForUser(ctx context.Context, userID int64) ([]*tracker.Project, error)
	ListIssues(ctx context.Context, projectID int64) ([]*tracker.Issue, error)
	ListComments(ctx context.Context, issueID int64) ([]*tracker.Comment, error)
}

// Filter derives the subset of a collection an identity may list. Its results
// agree item-by-item with the engine's single-resource read decisions.
type Filter struct {
	store VisibilityStore
}

// NewFilter creates a new visibility Filter
func NewFilter(store VisibilityStore) *Filter {
	return &Filter{store: store}
}

// VisibleProjects returns the projects the identity may list: all of them for
// admins, membership-scoped otherwise. A non-admin with zero memberships is
// denied rather than handed an empty list; zero membership is treated as a
// permission boundary, not an empty result.
func (f *Filter) VisibleProjects(ctx context.Context, id Identity) ([]*tracker.Project, Decision, error) {
	if !id.Authenticated() {
		return nil, Deny(ReasonNotAuthenticated), nil
	}

	if id.IsAdmin {
		projects, err := f.store.ListProjects(ctx)
		if err != nil {
			return nil, Decision{}, fmt.Errorf("failed to list projects: %w", err)
		}
		return projects, Allow(), nil
	}

	projects, err := f.store.ListProjectsForUser(ctx, id.UserID)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, Deny(ReasonNotAMember), nil
	}
	return projects, Allow(), nil
}

// VisibleIssues returns the issues of a located project the identity may
// list. The project comes from the locator, so parent consistency is already
// settled; only membership is decided here.
func (f *Filter) VisibleIssues(ctx context.Context, id Identity, project *tracker.Project) ([]*tracker.Issue, Decision, error) {
	decision, err := f.member(ctx, id, project.ID)
	if err != nil || !decision.Allowed {
		return nil, decision, err
	}

	issues, err := f.store.ListIssues(ctx, project.ID)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, Allow(), nil
}

// VisibleComments returns the comments of a located issue the identity may
// list
func (f *Filter) VisibleComments(ctx context.Context, id Identity, project *tracker.Project, issue *tracker.Issue) ([]*tracker.Comment, Decision, error) {
	decision, err := f.member(ctx, id, project.ID)
	if err != nil || !decision.Allowed {
		return nil, decision, err
	}

	comments, err := f.store.ListComments(ctx, issue.ID)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, Allow(), nil
}

func (f *Filter) member(ctx context.Context, id Identity, projectID int64) (Decision, error) {
	if !id.Authenticated() {
		return Deny(ReasonNotAuthenticated), nil
	}
	if id.IsAdmin {
		return Allow(), nil
	}

	_, member, err := f.store.GetRole(ctx, id.UserID, projectID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return Deny(ReasonNotAMember), nil
	}
	return Allow(), nil
}
