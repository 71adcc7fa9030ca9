package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barangay-api/internal/models"
)

const attachmentColumns = `id, complaint_id, file_key, file_name, content_type, size_bytes, uploaded_by, uploaded_at, description, is_proof`

// ComplaintAttachmentRepository persists attachment metadata. File bytes live in object storage.
type ComplaintAttachmentRepository struct {
	db *sqlx.DB
}

// NewComplaintAttachmentRepository creates a new ComplaintAttachmentRepository.
func NewComplaintAttachmentRepository(db *sqlx.DB) *ComplaintAttachmentRepository {
	return &ComplaintAttachmentRepository{db: db}
}

// Create inserts attachment metadata.
func (r *ComplaintAttachmentRepository) Create(ctx context.Context, attachment *models.ComplaintAttachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.UploadedAt.IsZero() {
		attachment.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO complaint_attachments (` + attachmentColumns + `)
VALUES (:id, :complaint_id, :file_key, :file_name, :content_type, :size_bytes, :uploaded_by, :uploaded_at, :description, :is_proof)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create complaint attachment: %w", err)
	}
	return nil
}

// FindByID returns attachment metadata.
func (r *ComplaintAttachmentRepository) FindByID(ctx context.Context, id string) (*models.ComplaintAttachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM complaint_attachments WHERE id = $1`
	var attachment models.ComplaintAttachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint attachment: %w", err)
	}
	return &attachment, nil
}

// ListByComplaint returns attachments in upload order.
func (r *ComplaintAttachmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.ComplaintAttachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM complaint_attachments WHERE complaint_id = $1 ORDER BY uploaded_at ASC`
	attachments := make([]models.ComplaintAttachment, 0)
	if err := r.db.SelectContext(ctx, &attachments, query, complaintID); err != nil {
		return nil, fmt.Errorf("list complaint attachments: %w", err)
	}
	return attachments, nil
}

// Delete removes attachment metadata.
func (r *ComplaintAttachmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM complaint_attachments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete complaint attachment: %w", err)
	}
	return nil
}
