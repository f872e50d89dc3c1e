package tracker

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateComment inserts a comment, assigning it a fresh UUID
func (s *PostgresStore) CreateComment(ctx context.Context, comment *Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}

	query := `
		INSERT INTO comments (id, issue_id, author_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query, comment.ID, comment.IssueID, comment.AuthorID, comment.Description).
		Scan(&comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetComment retrieves a comment by ID
func (s *PostgresStore) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `
		SELECT id, issue_id, author_id, description, created_at
		FROM comments
		WHERE id = $1
	`
	comment := &Comment{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID, &comment.IssueID, &comment.AuthorID, &comment.Description, &comment.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListComments retrieves all comments of an issue
func (s *PostgresStore) ListComments(ctx context.Context, issueID int64) ([]*Comment, error) {
	query := `
		SELECT id, issue_id, author_id, description, created_at
		FROM comments
		WHERE issue_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		comment := &Comment{}
		if err := rows.Scan(
			&comment.ID, &comment.IssueID, &comment.AuthorID, &comment.Description, &comment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

// UpdateComment updates a comment's description
func (s *PostgresStore) UpdateComment(ctx context.Context, comment *Comment) error {
	query := `UPDATE comments SET description = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, comment.Description, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// DeleteComment deletes a comment
func (s *PostgresStore) DeleteComment(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}
