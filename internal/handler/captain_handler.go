package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/response"
)

type captainService interface {
	StartConversation(ctx context.Context, actor *models.JWTClaims) (*dto.StartConversationResponse, error)
	Chat(ctx context.Context, req dto.ChatRequest, actor *models.JWTClaims) (*dto.ChatResponse, error)
	EndConversation(ctx context.Context, req dto.EndConversationRequest, actor *models.JWTClaims) error
	MessageFeedback(ctx context.Context, req dto.FeedbackRequest, actor *models.JWTClaims) error
	Analytics(ctx context.Context, actor *models.JWTClaims) (*models.CaptainAnalytics, error)
	ListPolicies(ctx context.Context, actor *models.JWTClaims) ([]models.PolicyDocument, error)
}

// CaptainHandler serves the virtual captain chat.
type CaptainHandler struct {
	service captainService
}

// NewCaptainHandler constructs the handler.
func NewCaptainHandler(svc captainService) *CaptainHandler {
	return &CaptainHandler{service: svc}
}

// Start godoc
// @Summary Start a captain conversation
// @Tags Captain
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /captain/conversations [post]
func (h *CaptainHandler) Start(c *gin.Context) {
	resp, err := h.service.StartConversation(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Chat godoc
// @Summary Send a message to the captain
// @Tags Captain
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ChatRequest true "Message"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /captain/chat [post]
func (h *CaptainHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}
	resp, err := h.service.Chat(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// End godoc
// @Summary End a conversation
// @Tags Captain
// @Accept json
// @Security BearerAuth
// @Param payload body dto.EndConversationRequest true "Session and optional rating"
// @Success 204
// @Router /captain/conversations/end [post]
func (h *CaptainHandler) End(c *gin.Context) {
	var req dto.EndConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.EndConversation(c.Request.Context(), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Feedback godoc
// @Summary Mark a captain reply helpful or not
// @Tags Captain
// @Accept json
// @Security BearerAuth
// @Param payload body dto.FeedbackRequest true "Feedback"
// @Success 204
// @Router /captain/feedback [post]
func (h *CaptainHandler) Feedback(c *gin.Context) {
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.MessageFeedback(c.Request.Context(), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Analytics godoc
// @Summary Captain usage analytics
// @Tags Captain
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /captain/analytics [get]
func (h *CaptainHandler) Analytics(c *gin.Context) {
	analytics, err := h.service.Analytics(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil)
}

// Policies godoc
// @Summary List policy documents
// @Tags Captain
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /captain/policies [get]
func (h *CaptainHandler) Policies(c *gin.Context) {
	policies, err := h.service.ListPolicies(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policies, nil)
}
