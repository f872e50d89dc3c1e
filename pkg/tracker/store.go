package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors returned by the store. Callers distinguish missing rows
// from transport failures with errors.Is.
var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrIssueNotFound       = errors.New("issue not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrContributorNotFound = errors.New("contributor not found")
	ErrContributorExists   = errors.New("contributor already exists")
	ErrInvalidAssignee     = errors.New("assignee is not a contributor of the project")
)

// Store defines the data-access operations the rest of the service consumes.
// All reads used by a single authorization decision are bounded point lookups.
type Store interface {
	// Projects
	CreateProjectWithManager(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	ListProjectsForUser(ctx context.Context, userID int64) ([]*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id int64) error

	// Contributors
	GetRole(ctx context.Context, userID, projectID int64) (Role, bool, error)
	GetContributor(ctx context.Context, id int64) (*Contributor, error)
	ListContributors(ctx context.Context, projectID int64) ([]*Contributor, error)
	AddContributor(ctx context.Context, contributor *Contributor) error
	RemoveContributor(ctx context.Context, projectID, userID int64) error

	// Issues
	CreateIssue(ctx context.Context, issue *Issue) error
	GetIssue(ctx context.Context, id int64) (*Issue, error)
	ListIssues(ctx context.Context, projectID int64) ([]*Issue, error)
	UpdateIssue(ctx context.Context, issue *Issue) error
	DeleteIssue(ctx context.Context, id int64) error

	// Comments
	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListComments(ctx context.Context, issueID int64) ([]*Comment, error)
	UpdateComment(ctx context.Context, comment *Comment) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// PostgresStore implements Store over database/sql
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateProjectWithManager inserts a project and the author's MANAGER
// contributor row in one transaction. A project is never observable without
// its manager.
func (s *PostgresStore) CreateProjectWithManager(ctx context.Context, project *Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (name, description, type, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query, project.Name, project.Description, project.Type, project.AuthorID).
		Scan(&project.ID, &project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	query = `
		INSERT INTO contributors (user_id, project_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, query, project.AuthorID, project.ID, RoleManager); err != nil {
		return fmt.Errorf("failed to add manager contributor: %w", err)
	}

	return tx.Commit()
}

// GetProject retrieves a project by ID
func (s *PostgresStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	query := `
		SELECT id, name, description, type, author_id, created_at
		FROM projects
		WHERE id = $1
	`
	project := &Project{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Name, &project.Description, &project.Type,
		&project.AuthorID, &project.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// ListProjects retrieves all projects
func (s *PostgresStore) ListProjects(ctx context.Context) ([]*Project, error) {
	query := `
		SELECT id, name, description, type, author_id, created_at
		FROM projects
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListProjectsForUser retrieves the projects the user is a contributor of
func (s *PostgresStore) ListProjectsForUser(ctx context.Context, userID int64) ([]*Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.type, p.author_id, p.created_at
		FROM projects p
		JOIN contributors c ON c.project_id = p.id
		WHERE c.user_id = $1
		ORDER BY p.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for user: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// UpdateProject updates a project's mutable fields
func (s *PostgresStore) UpdateProject(ctx context.Context, project *Project) error {
	query := `
		UPDATE projects
		SET name = $1, description = $2, type = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, project.Name, project.Description, project.Type, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// DeleteProject deletes a project. Contributors, issues, and comments cascade
// through the foreign-key rules in the migrations.
func (s *PostgresStore) DeleteProject(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

func scanProjects(rows *sql.Rows) ([]*Project, error) {
	var projects []*Project
	for rows.Next() {
		project := &Project{}
		if err := rows.Scan(
			&project.ID, &project.Name, &project.Description, &project.Type,
			&project.AuthorID, &project.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}
