package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
)

type fakeNotificationSrv struct {
	err        error
	unreadOnly bool
	limit      int
	markedID   string
}

func (f *fakeNotificationSrv) List(_ context.Context, unreadOnly bool, limit int, _ *models.JWTClaims) ([]models.Notification, error) {
	f.unreadOnly, f.limit = unreadOnly, limit
	return []models.Notification{{ID: "n-1", Title: "Complaint updated"}}, f.err
}

func (f *fakeNotificationSrv) MarkRead(_ context.Context, id string, _ *models.JWTClaims) error {
	f.markedID = id
	return f.err
}

func TestNotificationHandlerList(t *testing.T) {
	srv := &fakeNotificationSrv{}
	h := NewNotificationHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/notifications?unread=true&limit=10", nil, testResident)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.unreadOnly)
	assert.Equal(t, 10, srv.limit)
	assert.Contains(t, rec.Body.String(), "Complaint updated")
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	srv := &fakeNotificationSrv{}
	h := NewNotificationHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/notifications/n-1/read", nil, testResident)
	c.Params = gin.Params{{Key: "id", Value: "n-1"}}
	h.MarkRead(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "n-1", srv.markedID)

	h = NewNotificationHandler(&fakeNotificationSrv{err: appErrors.ErrNotFound})
	c, rec = newTestContext(http.MethodPost, "/notifications/n-2/read", nil, testResident)
	h.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
