package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barangay-api/internal/models"
)

// NotificationRepository persists in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	if notification.Type == "" {
		notification.Type = models.NotificationTypeSystem
	}
	const query = `INSERT INTO notifications (id, user_id, type, title, message, link, is_read, read_at, created_at)
VALUES (:id, :user_id, :type, :title, :message, :link, :is_read, :read_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUser returns the newest notifications of a user.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT id, user_id, type, title, message, link, is_read, read_at, created_at FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	notifications := make([]models.Notification, 0)
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read. Returns sql.ErrNoRows when it does not belong to userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, readAt time.Time) error {
	const query = `UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $3) WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID, readAt)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return expectAffected(result, "notification read")
}
