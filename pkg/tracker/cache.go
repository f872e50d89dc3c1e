package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// CachedStore layers a Redis read-through cache over a Store. Point lookups
// used by authorization checks (projects, issues, comments, roles) are
// cached; writes invalidate the affected keys. Redis failures fall back to
// the underlying store, so the cache is never load-bearing for correctness.
type CachedStore struct {
	store Store
	redis *redis.Client
	ttl   map[string]time.Duration

	onHit  func(cacheType string)
	onMiss func(cacheType string)
}

// NewCachedStore creates a caching layer over store. onHit and onMiss may be
// nil; they exist so metrics can observe cache effectiveness.
func NewCachedStore(store Store, client *redis.Client, onHit, onMiss func(cacheType string)) *CachedStore {
	if onHit == nil {
		onHit = func(string) {}
	}
	if onMiss == nil {
		onMiss = func(string) {}
	}
	return &CachedStore{
		store: store,
		redis: client,
		ttl: map[string]time.Duration{
			"project": 5 * time.Minute,
			"issue":   5 * time.Minute,
			"comment": 5 * time.Minute,
			"role":    1 * time.Minute,
		},
		onHit:  onHit,
		onMiss: onMiss,
	}
}

func projectKey(id int64) string { return fmt.Sprintf("project:%d", id) }

func issueKey(id int64) string { return fmt.Sprintf("issue:%d", id) }

func commentKey(id uuid.UUID) string { return fmt.Sprintf("comment:%s", id) }

func roleKey(userID, projectID int64) string {
	return fmt.Sprintf("role:%d:%d", userID, projectID)
}

func (c *CachedStore) get(ctx context.Context, cacheType, key string, dest interface{}) bool {
	cached, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		c.onMiss(cacheType)
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.onMiss(cacheType)
		return false
	}
	c.onHit(cacheType)
	return true
}

func (c *CachedStore) set(ctx context.Context, cacheType, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, data, c.ttl[cacheType])
}

// Projects

func (c *CachedStore) CreateProjectWithManager(ctx context.Context, project *Project) error {
	if err := c.store.CreateProjectWithManager(ctx, project); err != nil {
		return err
	}
	c.redis.Del(ctx, roleKey(project.AuthorID, project.ID))
	return nil
}

func (c *CachedStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	var project Project
	if c.get(ctx, "project", projectKey(id), &project) {
		return &project, nil
	}

	fresh, err := c.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, "project", projectKey(id), fresh)
	return fresh, nil
}

func (c *CachedStore) ListProjects(ctx context.Context) ([]*Project, error) {
	return c.store.ListProjects(ctx)
}

func (c *CachedStore) ListProjectsForUser(ctx context.Context, userID int64) ([]*Project, error) {
	return c.store.ListProjectsForUser(ctx, userID)
}

func (c *CachedStore) UpdateProject(ctx context.Context, project *Project) error {
	if err := c.store.UpdateProject(ctx, project); err != nil {
		return err
	}
	c.redis.Del(ctx, projectKey(project.ID))
	return nil
}

func (c *CachedStore) DeleteProject(ctx context.Context, id int64) error {
	// Snapshot the membership before the cascade removes it; the role entries
	// go stale along with the project itself.
	contributors, err := c.store.ListContributors(ctx, id)
	if err != nil {
		contributors = nil
	}

	if err := c.store.DeleteProject(ctx, id); err != nil {
		return err
	}

	keys := []string{projectKey(id)}
	for _, contributor := range contributors {
		keys = append(keys, roleKey(contributor.UserID, id))
	}
	c.redis.Del(ctx, keys...)
	return nil
}

// Contributors

type cachedRole struct {
	Role   Role `json:"role"`
	Member bool `json:"member"`
}

func (c *CachedStore) GetRole(ctx context.Context, userID, projectID int64) (Role, bool, error) {
	var entry cachedRole
	if c.get(ctx, "role", roleKey(userID, projectID), &entry) {
		return entry.Role, entry.Member, nil
	}

	role, member, err := c.store.GetRole(ctx, userID, projectID)
	if err != nil {
		return "", false, err
	}
	c.set(ctx, "role", roleKey(userID, projectID), cachedRole{Role: role, Member: member})
	return role, member, nil
}

func (c *CachedStore) GetContributor(ctx context.Context, id int64) (*Contributor, error) {
	return c.store.GetContributor(ctx, id)
}

func (c *CachedStore) ListContributors(ctx context.Context, projectID int64) ([]*Contributor, error) {
	return c.store.ListContributors(ctx, projectID)
}

func (c *CachedStore) AddContributor(ctx context.Context, contributor *Contributor) error {
	if err := c.store.AddContributor(ctx, contributor); err != nil {
		return err
	}
	c.redis.Del(ctx, roleKey(contributor.UserID, contributor.ProjectID))
	return nil
}

func (c *CachedStore) RemoveContributor(ctx context.Context, projectID, userID int64) error {
	if err := c.store.RemoveContributor(ctx, projectID, userID); err != nil {
		return err
	}
	c.redis.Del(ctx, roleKey(userID, projectID))
	return nil
}

// Issues

func (c *CachedStore) CreateIssue(ctx context.Context, issue *Issue) error {
	return c.store.CreateIssue(ctx, issue)
}

func (c *CachedStore) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	var issue Issue
	if c.get(ctx, "issue", issueKey(id), &issue) {
		return &issue, nil
	}

	fresh, err := c.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, "issue", issueKey(id), fresh)
	return fresh, nil
}

func (c *CachedStore) ListIssues(ctx context.Context, projectID int64) ([]*Issue, error) {
	return c.store.ListIssues(ctx, projectID)
}

func (c *CachedStore) UpdateIssue(ctx context.Context, issue *Issue) error {
	if err := c.store.UpdateIssue(ctx, issue); err != nil {
		return err
	}
	c.redis.Del(ctx, issueKey(issue.ID))
	return nil
}

func (c *CachedStore) DeleteIssue(ctx context.Context, id int64) error {
	if err := c.store.DeleteIssue(ctx, id); err != nil {
		return err
	}
	c.redis.Del(ctx, issueKey(id))
	return nil
}

// Comments

func (c *CachedStore) CreateComment(ctx context.Context, comment *Comment) error {
	return c.store.CreateComment(ctx, comment)
}

func (c *CachedStore) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var comment Comment
	if c.get(ctx, "comment", commentKey(id), &comment) {
		return &comment, nil
	}

	fresh, err := c.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, "comment", commentKey(id), fresh)
	return fresh, nil
}

func (c *CachedStore) ListComments(ctx context.Context, issueID int64) ([]*Comment, error) {
	return c.store.ListComments(ctx, issueID)
}

func (c *CachedStore) UpdateComment(ctx context.Context, comment *Comment) error {
	if err := c.store.UpdateComment(ctx, comment); err != nil {
		return err
	}
	c.redis.Del(ctx, commentKey(comment.ID))
	return nil
}

func (c *CachedStore) DeleteComment(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteComment(ctx, id); err != nil {
		return err
	}
	c.redis.Del(ctx, commentKey(id))
	return nil
}
