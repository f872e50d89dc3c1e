package tracker

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all tracker migrations. The ON DELETE rules are the
// cascade contract: deleting a project removes its contributors, issues, and
// comments; deleting a contributor removes membership only, never authored
// resources.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create projects table",
			SQL: `
				CREATE TABLE IF NOT EXISTS projects (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					description VARCHAR(400) NOT NULL DEFAULT '',
					type VARCHAR(10) NOT NULL,
					author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_projects_author_id ON projects(author_id);
			`,
		},
		{
			Version:     2,
			Description: "Create contributors table",
			SQL: `
				CREATE TABLE IF NOT EXISTS contributors (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					role VARCHAR(20) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, project_id)
				);

				CREATE INDEX idx_contributors_user_id ON contributors(user_id);
				CREATE INDEX idx_contributors_project_id ON contributors(project_id);
			`,
		},
		{
			Version:     3,
			Description: "Create issues table",
			SQL: `
				CREATE TABLE IF NOT EXISTS issues (
					id BIGSERIAL PRIMARY KEY,
					project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					-- No FK on the assignee: revoking a contributor's membership
					-- must not delete issues assigned to them. A dangling id means
					-- the assignee is no longer a member.
					assignee_contributor_id BIGINT NOT NULL,
					name VARCHAR(100) NOT NULL,
					description VARCHAR(400) NOT NULL DEFAULT '',
					priority VARCHAR(10) NOT NULL,
					tag VARCHAR(10) NOT NULL,
					status VARCHAR(11) NOT NULL DEFAULT 'TO_DO',
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_issues_project_id ON issues(project_id);
				CREATE INDEX idx_issues_author_id ON issues(author_id);
				CREATE INDEX idx_issues_assignee ON issues(assignee_contributor_id);
			`,
		},
		{
			Version:     4,
			Description: "Create comments table",
			SQL: `
				CREATE TABLE IF NOT EXISTS comments (
					id UUID PRIMARY KEY,
					issue_id BIGINT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
					author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					description VARCHAR(400) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_comments_issue_id ON comments(issue_id);
				CREATE INDEX idx_comments_author_id ON comments(author_id);
			`,
		},
	}
}

// RunMigrations executes all pending tracker migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tracker_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM tracker_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate migrations: %w", err)
	}

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tracker_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
