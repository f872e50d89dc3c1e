package tracker

import (
	"context"
	"database/sql"
	"fmt"
)

// GetRole returns the user's role in a project. The second return value is
// false when the user is not a contributor of the project.
func (s *PostgresStore) GetRole(ctx context.Context, userID, projectID int64) (Role, bool, error) {
	query := `SELECT role FROM contributors WHERE user_id = $1 AND project_id = $2`

	var role Role
	err := s.db.QueryRowContext(ctx, query, userID, projectID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get role: %w", err)
	}

	return role, true, nil
}

// GetContributor retrieves a contributor row by ID
func (s *PostgresStore) GetContributor(ctx context.Context, id int64) (*Contributor, error) {
	query := `
		SELECT id, user_id, project_id, role, created_at
		FROM contributors
		WHERE id = $1
	`
	contributor := &Contributor{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&contributor.ID, &contributor.UserID, &contributor.ProjectID,
		&contributor.Role, &contributor.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrContributorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contributor: %w", err)
	}

	return contributor, nil
}

// ListContributors retrieves all contributors of a project
func (s *PostgresStore) ListContributors(ctx context.Context, projectID int64) ([]*Contributor, error) {
	query := `
		SELECT id, user_id, project_id, role, created_at
		FROM contributors
		WHERE project_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	defer rows.Close()

	var contributors []*Contributor
	for rows.Next() {
		contributor := &Contributor{}
		if err := rows.Scan(
			&contributor.ID, &contributor.UserID, &contributor.ProjectID,
			&contributor.Role, &contributor.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		contributors = append(contributors, contributor)
	}

	return contributors, rows.Err()
}

// AddContributor adds a user to a project. Adding a user who is already a
// contributor returns ErrContributorExists; a user has at most one role per
// project.
func (s *PostgresStore) AddContributor(ctx context.Context, contributor *Contributor) error {
	query := `
		INSERT INTO contributors (user_id, project_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, project_id) DO NOTHING
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, contributor.UserID, contributor.ProjectID, contributor.Role).
		Scan(&contributor.ID, &contributor.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrContributorExists
	}
	if err != nil {
		return fmt.Errorf("failed to add contributor: %w", err)
	}

	return nil
}

// RemoveContributor removes a user's membership in a project. The user's
// authored issues and comments are retained; only the membership row goes.
func (s *PostgresStore) RemoveContributor(ctx context.Context, projectID, userID int64) error {
	query := `DELETE FROM contributors WHERE project_id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove contributor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrContributorNotFound
	}

	return nil
}
