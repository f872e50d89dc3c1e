package tracker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorResolve(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	alice := seedUser(t, db, "alice")

	projectA := &Project{Name: "backend", Type: ProjectTypeBackend, AuthorID: alice}
	require.NoError(t, store.CreateProjectWithManager(ctx, projectA))
	projectB := &Project{Name: "frontend", Type: ProjectTypeFrontend, AuthorID: alice}
	require.NoError(t, store.CreateProjectWithManager(ctx, projectB))

	contributorsA, err := store.ListContributors(ctx, projectA.ID)
	require.NoError(t, err)
	issueA := &Issue{
		ProjectID: projectA.ID, AuthorID: alice, AssigneeContributorID: contributorsA[0].ID,
		Name: "crash on login", Priority: PriorityHigh, Tag: TagBug,
	}
	require.NoError(t, store.CreateIssue(ctx, issueA))

	commentA := &Comment{IssueID: issueA.ID, AuthorID: alice, Description: "stack trace attached"}
	require.NoError(t, store.CreateComment(ctx, commentA))

	contributorsB, err := store.ListContributors(ctx, projectB.ID)
	require.NoError(t, err)
	issueB := &Issue{
		ProjectID: projectB.ID, AuthorID: alice, AssigneeContributorID: contributorsB[0].ID,
		Name: "button misaligned", Priority: PriorityLow, Tag: TagBug,
	}
	require.NoError(t, store.CreateIssue(ctx, issueB))

	locator := NewLocator(store)

	t.Run("project only", func(t *testing.T) {
		chain, err := locator.Resolve(ctx, PathRef{ProjectID: projectA.ID})
		require.NoError(t, err)
		assert.Equal(t, projectA.ID, chain.Project.ID)
		assert.Nil(t, chain.Issue)
		assert.Nil(t, chain.Comment)
	})

	t.Run("full chain", func(t *testing.T) {
		chain, err := locator.Resolve(ctx, PathRef{
			ProjectID: projectA.ID, IssueID: &issueA.ID, CommentID: &commentA.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, issueA.ID, chain.Issue.ID)
		assert.Equal(t, commentA.ID, chain.Comment.ID)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := locator.Resolve(ctx, PathRef{ProjectID: 9999})
		nf, ok := AsNotFound(err)
		require.True(t, ok)
		assert.Equal(t, LevelProject, nf.Level)
	})

	t.Run("missing issue", func(t *testing.T) {
		missing := int64(9999)
		_, err := locator.Resolve(ctx, PathRef{ProjectID: projectA.ID, IssueID: &missing})
		nf, ok := AsNotFound(err)
		require.True(t, ok)
		assert.Equal(t, LevelIssue, nf.Level)
	})

	t.Run("issue under the wrong project", func(t *testing.T) {
		// issueB exists, but naming it under projectA must look identical to
		// naming an issue that does not exist.
		_, err := locator.Resolve(ctx, PathRef{ProjectID: projectA.ID, IssueID: &issueB.ID})
		nf, ok := AsNotFound(err)
		require.True(t, ok)
		assert.Equal(t, LevelIssue, nf.Level)
	})

	t.Run("missing comment", func(t *testing.T) {
		missing := uuid.New()
		_, err := locator.Resolve(ctx, PathRef{
			ProjectID: projectA.ID, IssueID: &issueA.ID, CommentID: &missing,
		})
		nf, ok := AsNotFound(err)
		require.True(t, ok)
		assert.Equal(t, LevelComment, nf.Level)
	})

	t.Run("comment under the wrong issue", func(t *testing.T) {
		_, err := locator.Resolve(ctx, PathRef{
			ProjectID: projectB.ID, IssueID: &issueB.ID, CommentID: &commentA.ID,
		})
		nf, ok := AsNotFound(err)
		require.True(t, ok)
		assert.Equal(t, LevelComment, nf.Level)
	})
}
