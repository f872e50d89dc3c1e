package tracker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps the Store interface and counts pass-throughs so tests
// can tell a cache hit from a cache miss.
type countingStore struct {
	Store
	projectGets int
	roleGets    int
}

func (c *countingStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	c.projectGets++
	return c.Store.GetProject(ctx, id)
}

func (c *countingStore) GetRole(ctx context.Context, userID, projectID int64) (Role, bool, error) {
	c.roleGets++
	return c.Store.GetRole(ctx, userID, projectID)
}

func newCachedTestStore(t *testing.T) (*CachedStore, *countingStore, *Project, int64) {
	t.Helper()

	inner, db := newTestStore(t)
	alice := seedUser(t, db, "alice")
	project := &Project{Name: "backend", Type: ProjectTypeBackend, AuthorID: alice}
	require.NoError(t, inner.CreateProjectWithManager(context.Background(), project))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	counting := &countingStore{Store: inner}
	return NewCachedStore(counting, client, nil, nil), counting, project, alice
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	cached, counting, project, _ := newCachedTestStore(t)

	first, err := cached.GetProject(ctx, project.ID)
	require.NoError(t, err)
	second, err := cached.GetProject(ctx, project.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, counting.projectGets)
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	cached, counting, project, _ := newCachedTestStore(t)

	_, err := cached.GetProject(ctx, project.ID)
	require.NoError(t, err)

	project.Name = "backend-v2"
	require.NoError(t, cached.UpdateProject(ctx, project))

	got, err := cached.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "backend-v2", got.Name)
	assert.Equal(t, 2, counting.projectGets)
}

func TestCachedStoreRoleInvalidation(t *testing.T) {
	ctx := context.Background()
	cached, counting, project, alice := newCachedTestStore(t)

	role, member, err := cached.GetRole(ctx, alice, project.ID)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, RoleManager, role)

	// Cached read.
	_, _, err = cached.GetRole(ctx, alice, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.roleGets)

	// Removal must not leave a stale membership behind.
	require.NoError(t, cached.RemoveContributor(ctx, project.ID, alice))
	_, member, err = cached.GetRole(ctx, alice, project.ID)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, 2, counting.roleGets)
}

func TestCachedStoreProjectDeleteDropsRoles(t *testing.T) {
	ctx := context.Background()
	cached, counting, project, alice := newCachedTestStore(t)

	role, member, err := cached.GetRole(ctx, alice, project.ID)
	require.NoError(t, err)
	require.True(t, member)
	require.Equal(t, RoleManager, role)
	require.Equal(t, 1, counting.roleGets)

	// Deleting the project cascades the contributor rows; the cached role
	// must not outlive them.
	require.NoError(t, cached.DeleteProject(ctx, project.ID))

	_, member, err = cached.GetRole(ctx, alice, project.ID)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, 2, counting.roleGets)
}

func TestCachedStoreCachesAbsentMembership(t *testing.T) {
	ctx := context.Background()
	inner, db := newTestStore(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	project := &Project{Name: "backend", Type: ProjectTypeBackend, AuthorID: alice}
	require.NoError(t, inner.CreateProjectWithManager(ctx, project))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cached := NewCachedStore(inner, client, nil, nil)

	// A non-member lookup is cached too; AddContributor must invalidate it so
	// the fresh membership is visible immediately.
	_, member, err := cached.GetRole(ctx, bob, project.ID)
	require.NoError(t, err)
	require.False(t, member)

	require.NoError(t, cached.AddContributor(ctx, &Contributor{
		UserID: bob, ProjectID: project.ID, Role: RoleContributor,
	}))

	role, member, err := cached.GetRole(ctx, bob, project.ID)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, RoleContributor, role)
}

func TestCachedStoreFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	inner, db := newTestStore(t)
	alice := seedUser(t, db, "alice")
	project := &Project{Name: "backend", Type: ProjectTypeBackend, AuthorID: alice}
	require.NoError(t, inner.CreateProjectWithManager(ctx, project))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	misses := 0
	cached := NewCachedStore(inner, client, nil, func(string) { misses++ })

	mr.Close()

	got, err := cached.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "backend", got.Name)
	assert.Equal(t, 1, misses)
}
