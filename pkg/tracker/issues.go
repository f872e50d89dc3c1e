package tracker

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateIssue inserts an issue. The insert is guarded so the assignee must be
// a contributor row of the same project; otherwise ErrInvalidAssignee.
func (s *PostgresStore) CreateIssue(ctx context.Context, issue *Issue) error {
	if issue.Status == "" {
		issue.Status = StatusToDo
	}

	query := `
		INSERT INTO issues (project_id, author_id, assignee_contributor_id, name, description, priority, tag, status)
		SELECT $1, $2, c.id, $3, $4, $5, $6, $7
		FROM contributors c
		WHERE c.id = $8 AND c.project_id = $1
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		issue.ProjectID, issue.AuthorID,
		issue.Name, issue.Description, issue.Priority, issue.Tag, issue.Status,
		issue.AssigneeContributorID,
	).Scan(&issue.ID, &issue.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrInvalidAssignee
	}
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	return nil
}

// GetIssue retrieves an issue by ID
func (s *PostgresStore) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	query := `
		SELECT id, project_id, author_id, assignee_contributor_id, name, description, priority, tag, status, created_at
		FROM issues
		WHERE id = $1
	`
	issue := &Issue{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&issue.ID, &issue.ProjectID, &issue.AuthorID, &issue.AssigneeContributorID,
		&issue.Name, &issue.Description, &issue.Priority, &issue.Tag, &issue.Status,
		&issue.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	return issue, nil
}

// ListIssues retrieves all issues of a project
func (s *PostgresStore) ListIssues(ctx context.Context, projectID int64) ([]*Issue, error) {
	query := `
		SELECT id, project_id, author_id, assignee_contributor_id, name, description, priority, tag, status, created_at
		FROM issues
		WHERE project_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*Issue
	for rows.Next() {
		issue := &Issue{}
		if err := rows.Scan(
			&issue.ID, &issue.ProjectID, &issue.AuthorID, &issue.AssigneeContributorID,
			&issue.Name, &issue.Description, &issue.Priority, &issue.Tag, &issue.Status,
			&issue.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}

	return issues, rows.Err()
}

// UpdateIssue updates an issue's mutable fields, re-checking the assignee
// invariant with the same guard as CreateIssue
func (s *PostgresStore) UpdateIssue(ctx context.Context, issue *Issue) error {
	query := `
		UPDATE issues
		SET name = $1, description = $2, priority = $3, tag = $4, status = $5, assignee_contributor_id = $6
		WHERE id = $7
		  AND EXISTS (
			SELECT 1 FROM contributors c
			WHERE c.id = $6 AND c.project_id = issues.project_id
		  )
	`
	result, err := s.db.ExecContext(ctx, query,
		issue.Name, issue.Description, issue.Priority, issue.Tag, issue.Status,
		issue.AssigneeContributorID, issue.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the issue is gone or the assignee guard rejected the write.
		if _, err := s.GetIssue(ctx, issue.ID); err != nil {
			return err
		}
		return ErrInvalidAssignee
	}

	return nil
}

// DeleteIssue deletes an issue; its comments cascade
func (s *PostgresStore) DeleteIssue(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrIssueNotFound
	}

	return nil
}
