package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/jobs"
)

// JobTypeNotificationDeliver is the queue job type persisting one notification.
const JobTypeNotificationDeliver = "notification.deliver"

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string, readAt time.Time) error
}

type jobEnqueuer interface {
	Register(jobType string, handler jobs.Handler)
	TryEnqueue(job jobs.Job) error
}

// NotificationService delivers in-app notifications, through the job queue when one is attached.
type NotificationService struct {
	repo    notificationStore
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService wires the store and optional queue. The delivery handler is
// registered on the queue here, before it is started.
func NewNotificationService(repo notificationStore, queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{repo: repo, queue: queue, metrics: metrics, logger: logger, now: time.Now}
	if queue != nil {
		queue.Register(JobTypeNotificationDeliver, svc.handleDeliver)
	}
	return svc
}

// Notify schedules a notification without blocking the caller. When the queue is
// stopped or full the row is written inline. Failures are logged only.
func (s *NotificationService) Notify(ctx context.Context, notification models.Notification) {
	if notification.UserID == "" {
		return
	}
	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeNotificationDeliver, Payload: notification})
		if err == nil {
			return
		}
		s.logger.Warn("notification enqueue failed, delivering inline", zap.String("user_id", notification.UserID), zap.Error(err))
	}
	if err := s.deliver(ctx, notification); err != nil {
		s.logger.Warn("failed to deliver notification", zap.String("user_id", notification.UserID), zap.Error(err))
	}
}

func (s *NotificationService) handleDeliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.deliver(ctx, notification)
}

func (s *NotificationService) deliver(ctx context.Context, notification models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		s.metrics.RecordNotificationJob("error")
		return err
	}
	s.metrics.RecordNotificationJob("delivered")
	return nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, unreadOnly bool, limit int, actor *models.JWTClaims) ([]models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.repo.ListByUser(ctx, actor.UserID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.MarkRead(ctx, id, actor.UserID, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return nil
}
