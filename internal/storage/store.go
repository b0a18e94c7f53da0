// Package storage persists review runs and their curated comments.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/reviewloop/reviewloop/internal/core"
)

// ErrNotFound is returned when a review or comment does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the database operations for reviews and comments.
type Store interface {
	CreateReview(ctx context.Context, review *core.Review) error
	SetReviewState(ctx context.Context, id int64, state core.ReviewState, failureReason string) error
	GetReview(ctx context.Context, id int64) (*core.Review, error)
	ListReviews(ctx context.Context, repoFullName string, prNumber int) ([]core.Review, error)
	SaveComments(ctx context.Context, reviewID int64, comments []core.ReviewComment) error
	ListComments(ctx context.Context, reviewID int64) ([]core.ReviewComment, error)
	ListCommentsByStatus(ctx context.Context, reviewID int64, status core.CommentStatus) ([]core.ReviewComment, error)
	UpdateCommentStatus(ctx context.Context, commentID string, status core.CommentStatus) error
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a postgres-backed Store.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// CreateReview inserts a new review run and fills in its generated id.
func (s *postgresStore) CreateReview(ctx context.Context, review *core.Review) error {
	query := `
		INSERT INTO reviews (repo_full_name, pr_number, template_name, model, state, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`

	row := s.db.QueryRowContext(ctx, query,
		review.RepoFullName, review.PRNumber, review.TemplateName,
		review.Model, review.State, review.FailureReason)
	return row.Scan(&review.ID, &review.CreatedAt)
}

// SetReviewState updates the lifecycle state and failure reason of a run.
func (s *postgresStore) SetReviewState(ctx context.Context, id int64, state core.ReviewState, failureReason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET state = $1, failure_reason = $2 WHERE id = $3`,
		state, failureReason, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

// GetReview retrieves one review run by id.
func (s *postgresStore) GetReview(ctx context.Context, id int64) (*core.Review, error) {
	var r core.Review
	err := s.db.GetContext(ctx, &r, `
		SELECT id, repo_full_name, pr_number, template_name, model, state, failure_reason, created_at
		FROM reviews WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &r, nil
}

// ListReviews retrieves the review runs of one pull request, newest first.
func (s *postgresStore) ListReviews(ctx context.Context, repoFullName string, prNumber int) ([]core.Review, error) {
	var reviews []core.Review
	err := s.db.SelectContext(ctx, &reviews, `
		SELECT id, repo_full_name, pr_number, template_name, model, state, failure_reason, created_at
		FROM reviews
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC`, repoFullName, prNumber)
	return reviews, err
}

// SaveComments inserts the comments of a run in one transaction.
func (s *postgresStore) SaveComments(ctx context.Context, reviewID int64, comments []core.ReviewComment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO review_comments (id, review_id, file, line, content, severity, status, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, c := range comments {
		if _, err := tx.ExecContext(ctx, query,
			c.ID, reviewID, c.File, c.Line, c.Content, c.Severity, c.Status, c.Category, c.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListComments retrieves every comment of a run in file/line order.
func (s *postgresStore) ListComments(ctx context.Context, reviewID int64) ([]core.ReviewComment, error) {
	var comments []core.ReviewComment
	err := s.db.SelectContext(ctx, &comments, `
		SELECT id, file, line, content, severity, status, category, created_at
		FROM review_comments
		WHERE review_id = $1
		ORDER BY file, line`, reviewID)
	return comments, err
}

// ListCommentsByStatus retrieves the comments of a run in one curation state.
func (s *postgresStore) ListCommentsByStatus(ctx context.Context, reviewID int64, status core.CommentStatus) ([]core.ReviewComment, error) {
	var comments []core.ReviewComment
	err := s.db.SelectContext(ctx, &comments, `
		SELECT id, file, line, content, severity, status, category, created_at
		FROM review_comments
		WHERE review_id = $1 AND status = $2
		ORDER BY file, line`, reviewID, status)
	return comments, err
}

// UpdateCommentStatus moves one comment through the curation workflow.
func (s *postgresStore) UpdateCommentStatus(ctx context.Context, commentID string, status core.CommentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_comments SET status = $1 WHERE id = $2`, status, commentID)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
