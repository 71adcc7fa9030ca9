package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/jobs"
)

type notificationStoreStub struct {
	created   []models.Notification
	createErr error
	markErr   error
}

func (s *notificationStoreStub) Create(ctx context.Context, notification *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *notification)
	return nil
}

func (s *notificationStoreStub) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.created {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *notificationStoreStub) MarkRead(ctx context.Context, id, userID string, readAt time.Time) error {
	return s.markErr
}

type enqueuerStub struct {
	handlers map[string]jobs.Handler
	jobs     []jobs.Job
	err      error
}

func (q *enqueuerStub) Register(jobType string, handler jobs.Handler) {
	if q.handlers == nil {
		q.handlers = make(map[string]jobs.Handler)
	}
	q.handlers[jobType] = handler
}

func (q *enqueuerStub) TryEnqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestNotificationServiceQueuesDelivery(t *testing.T) {
	store := &notificationStoreStub{}
	queue := &enqueuerStub{}
	svc := NewNotificationService(store, queue, nil, nil)
	require.Contains(t, queue.handlers, JobTypeNotificationDeliver)

	svc.Notify(context.Background(), models.Notification{UserID: "res-1", Title: "Updated"})
	require.Len(t, queue.jobs, 1)
	assert.Empty(t, store.created)

	require.NoError(t, queue.handlers[JobTypeNotificationDeliver](context.Background(), queue.jobs[0]))
	require.Len(t, store.created, 1)
	assert.False(t, store.created[0].CreatedAt.IsZero())
}

func TestNotificationServiceInlineFallback(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, &enqueuerStub{err: jobs.ErrQueueStopped}, nil, nil)

	svc.Notify(context.Background(), models.Notification{UserID: "res-1", Title: "Updated"})
	assert.Len(t, store.created, 1)

	svc.Notify(context.Background(), models.Notification{Title: "nobody"})
	assert.Len(t, store.created, 1)
}

func TestNotificationServiceHandlerRejectsForeignPayload(t *testing.T) {
	queue := &enqueuerStub{}
	NewNotificationService(&notificationStoreStub{}, queue, nil, nil)

	err := queue.handlers[JobTypeNotificationDeliver](context.Background(), jobs.Job{Payload: "oops"})
	require.Error(t, err)
}

func TestNotificationServiceListAndMarkRead(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil, nil, nil)
	svc.Notify(context.Background(), models.Notification{UserID: "res-1", Title: "a"})
	svc.Notify(context.Background(), models.Notification{UserID: "res-2", Title: "b"})

	items, err := svc.List(context.Background(), false, 10, resident)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Title)

	_, err = svc.List(context.Background(), false, 10, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	store.markErr = sql.ErrNoRows
	assert.ErrorIs(t, svc.MarkRead(context.Background(), "n-1", resident), appErrors.ErrNotFound)

	store.markErr = errors.New("boom")
	assert.ErrorIs(t, svc.MarkRead(context.Background(), "n-1", resident), appErrors.ErrInternal)
}

// gatedStore holds queued deliveries until release is closed.
type gatedStore struct {
	notificationStoreStub
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Create(ctx context.Context, notification *models.Notification) error {
	if notification.Title == "queued" {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notificationStoreStub.Create(ctx, notification)
}

func (s *gatedStore) titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.created))
	for _, n := range s.created {
		out = append(out, n.Title)
	}
	return out
}

func TestNotificationServiceFullQueueDeliversInline(t *testing.T) {
	store := &gatedStore{entered: make(chan struct{}, 2), release: make(chan struct{})}
	queue := jobs.NewQueue("notifications", jobs.QueueConfig{Workers: 1, BufferSize: 1})
	svc := NewNotificationService(store, queue, nil, nil)
	queue.Start(context.Background())
	defer queue.Stop()

	svc.Notify(context.Background(), models.Notification{UserID: "res-1", Title: "queued"})
	<-store.entered
	svc.Notify(context.Background(), models.Notification{UserID: "res-1", Title: "queued"})

	done := make(chan struct{})
	go func() {
		svc.Notify(context.Background(), models.Notification{UserID: "res-1", Title: "urgent"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Equal(t, []string{"urgent"}, store.titles())

	close(store.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, queue.Drain(ctx))
	assert.Len(t, store.titles(), 3)
}
