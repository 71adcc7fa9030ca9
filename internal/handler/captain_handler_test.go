package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
)

type fakeCaptainSrv struct {
	err      error
	chat     dto.ChatRequest
	end      dto.EndConversationRequest
	feedback dto.FeedbackRequest
}

func (f *fakeCaptainSrv) StartConversation(context.Context, *models.JWTClaims) (*dto.StartConversationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.StartConversationResponse{SessionID: "sess-1", Greeting: "Hello!", CaptainName: "Kap"}, nil
}

func (f *fakeCaptainSrv) Chat(_ context.Context, req dto.ChatRequest, _ *models.JWTClaims) (*dto.ChatResponse, error) {
	f.chat = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ChatResponse{MessageID: "msg-1", Response: "Magandang araw!", Intent: "greeting", Confidence: 0.75, Source: models.ResponseSourceRuleBased}, nil
}

func (f *fakeCaptainSrv) EndConversation(_ context.Context, req dto.EndConversationRequest, _ *models.JWTClaims) error {
	f.end = req
	return f.err
}

func (f *fakeCaptainSrv) MessageFeedback(_ context.Context, req dto.FeedbackRequest, _ *models.JWTClaims) error {
	f.feedback = req
	return f.err
}

func (f *fakeCaptainSrv) Analytics(context.Context, *models.JWTClaims) (*models.CaptainAnalytics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CaptainAnalytics{TotalConversations: 4, AverageSatisfaction: 4.5}, nil
}

func (f *fakeCaptainSrv) ListPolicies(context.Context, *models.JWTClaims) ([]models.PolicyDocument, error) {
	return []models.PolicyDocument{{ID: "pol-1", Title: "Noise Ordinance"}}, f.err
}

func TestCaptainHandlerStart(t *testing.T) {
	h := NewCaptainHandler(&fakeCaptainSrv{})

	c, rec := newTestContext(http.MethodPost, "/captain/conversations", nil, testResident)
	h.Start(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sess-1", decodeEnvelope(t, rec).Data["session_id"])
}

func TestCaptainHandlerChat(t *testing.T) {
	srv := &fakeCaptainSrv{}
	h := NewCaptainHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/captain/chat", strings.NewReader(`{"session_id":"sess-1","message":"Hello po"}`), testResident)
	h.Chat(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", srv.chat.SessionID)
	assert.Equal(t, "Hello po", srv.chat.Message)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "greeting", envelope.Data["intent"])
	assert.Equal(t, "rule_based", envelope.Data["source"])
}

func TestCaptainHandlerChatErrors(t *testing.T) {
	h := NewCaptainHandler(&fakeCaptainSrv{})
	c, rec := newTestContext(http.MethodPost, "/captain/chat", strings.NewReader(`not json`), testResident)
	h.Chat(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewCaptainHandler(&fakeCaptainSrv{err: appErrors.ErrNotFound})
	c, rec = newTestContext(http.MethodPost, "/captain/chat", strings.NewReader(`{"session_id":"gone","message":"hi"}`), testResident)
	h.Chat(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCaptainHandlerEndAndFeedback(t *testing.T) {
	srv := &fakeCaptainSrv{}
	h := NewCaptainHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/captain/conversations/end", strings.NewReader(`{"session_id":"sess-1","rating":5}`), testResident)
	h.End(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, srv.end.Rating)
	assert.Equal(t, 5, *srv.end.Rating)

	c, rec = newTestContext(http.MethodPost, "/captain/feedback", strings.NewReader(`{"message_id":"msg-1","helpful":false}`), testResident)
	h.Feedback(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, srv.feedback.Helpful)
	assert.False(t, *srv.feedback.Helpful)
}

func TestCaptainHandlerOfficialViews(t *testing.T) {
	h := NewCaptainHandler(&fakeCaptainSrv{})

	c, rec := newTestContext(http.MethodGet, "/captain/analytics", nil, testChairman)
	h.Analytics(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, decodeEnvelope(t, rec).Data["total_conversations"])

	c, rec = newTestContext(http.MethodGet, "/captain/policies", nil, testChairman)
	h.Policies(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Noise Ordinance")

	h = NewCaptainHandler(&fakeCaptainSrv{err: appErrors.ErrForbidden})
	c, rec = newTestContext(http.MethodGet, "/captain/analytics", nil, testResident)
	h.Analytics(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
