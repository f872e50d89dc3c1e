package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Level identifies the point in a resource path where resolution stopped
type Level string

const (
	LevelProject Level = "project"
	LevelIssue   Level = "issue"
	LevelComment Level = "comment"
)

// NotFoundError reports that a resource path could not be resolved at a given
// level. A child that exists under a different parent than the one named in
// the path yields the same error as a child that does not exist at all, so
// resolution never leaks existence across projects.
type NotFoundError struct {
	Level Level
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Level)
}

// AsNotFound unwraps err into a NotFoundError if it is one
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// PathRef names a resource by its position in the hierarchy. IssueID and
// CommentID are optional; a comment cannot be named without its issue.
type PathRef struct {
	ProjectID int64
	IssueID   *int64
	CommentID *uuid.UUID
}

// Chain holds the resolved resource handles, parents first. Issue and Comment
// are nil when the path did not name them.
type Chain struct {
	Project *Project
	Issue   *Issue
	Comment *Comment
}

// Locator resolves resource paths against the store
type Locator struct {
	store Store
}

// NewLocator creates a new Locator
func NewLocator(store Store) *Locator {
	return &Locator{store: store}
}

// Resolve resolves a PathRef into a Chain, verifying every parent link.
// It returns NotFoundError at the first level that is missing or
// inconsistent with its parent.
func (l *Locator) Resolve(ctx context.Context, ref PathRef) (*Chain, error) {
	project, err := l.store.GetProject(ctx, ref.ProjectID)
	if errors.Is(err, ErrProjectNotFound) {
		return nil, &NotFoundError{Level: LevelProject}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project: %w", err)
	}

	chain := &Chain{Project: project}
	if ref.IssueID == nil {
		return chain, nil
	}

	issue, err := l.store.GetIssue(ctx, *ref.IssueID)
	if errors.Is(err, ErrIssueNotFound) {
		return nil, &NotFoundError{Level: LevelIssue}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve issue: %w", err)
	}
	if issue.ProjectID != project.ID {
		return nil, &NotFoundError{Level: LevelIssue}
	}

	chain.Issue = issue
	if ref.CommentID == nil {
		return chain, nil
	}

	comment, err := l.store.GetComment(ctx, *ref.CommentID)
	if errors.Is(err, ErrCommentNotFound) {
		return nil, &NotFoundError{Level: LevelComment}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comment: %w", err)
	}
	if comment.IssueID != issue.ID {
		return nil, &NotFoundError{Level: LevelComment}
	}

	chain.Comment = comment
	return chain, nil
}
