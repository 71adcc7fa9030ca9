package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barangay-api/internal/models"
)

// ComplaintCommentRepository persists complaint discussion threads.
type ComplaintCommentRepository struct {
	db *sqlx.DB
}

// NewComplaintCommentRepository creates a new ComplaintCommentRepository.
func NewComplaintCommentRepository(db *sqlx.DB) *ComplaintCommentRepository {
	return &ComplaintCommentRepository{db: db}
}

// Create inserts a comment.
func (r *ComplaintCommentRepository) Create(ctx context.Context, comment *models.ComplaintComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO complaint_comments (id, complaint_id, user_id, comment, is_internal, created_at)
VALUES (:id, :complaint_id, :user_id, :comment, :is_internal, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create complaint comment: %w", err)
	}
	return nil
}

// List returns comments oldest first. Internal comments are skipped unless includeInternal.
func (r *ComplaintCommentRepository) List(ctx context.Context, complaintID string, includeInternal bool) ([]models.ComplaintComment, error) {
	query := `SELECT cc.id, cc.complaint_id, cc.user_id, COALESCE(u.full_name, '') AS author_name, COALESCE(u.role, '') AS author_role,
cc.comment, cc.is_internal, cc.created_at
FROM complaint_comments cc
LEFT JOIN users u ON u.id = cc.user_id
WHERE cc.complaint_id = $1`
	if !includeInternal {
		query += ` AND cc.is_internal = FALSE`
	}
	query += ` ORDER BY cc.created_at ASC`

	comments := make([]models.ComplaintComment, 0)
	if err := r.db.SelectContext(ctx, &comments, query, complaintID); err != nil {
		return nil, fmt.Errorf("list complaint comments: %w", err)
	}
	return comments, nil
}
