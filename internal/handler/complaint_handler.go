package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/middleware"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/export"
	"github.com/noah-isme/barangay-api/pkg/response"
	"github.com/noah-isme/barangay-api/pkg/storage"
)

type complaintService interface {
	Categories(ctx context.Context) ([]models.ComplaintCategory, error)
	Create(ctx context.Context, req dto.CreateComplaintRequest, actor *models.JWTClaims) (*models.Complaint, error)
	List(ctx context.Context, query dto.ComplaintListQuery, actor *models.JWTClaims) ([]models.Complaint, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ComplaintDetail, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintStatusHistory, error)
	AvailableTransitions(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintStatus, error)
	Track(ctx context.Context, id string, actor *models.JWTClaims) (*models.ComplaintTracking, error)
	RequestTransition(ctx context.Context, id string, target models.ComplaintStatus, notes string, actor *models.JWTClaims) (*models.Complaint, error)
	FastAccept(ctx context.Context, id string, actor *models.JWTClaims) (*models.Complaint, error)
	Resolve(ctx context.Context, id string, req dto.ResolveRequest, proof *dto.AttachmentUpload, proofBody io.Reader, actor *models.JWTClaims) (*models.Complaint, error)
	SetPriority(ctx context.Context, id string, priority models.ComplaintPriority, actor *models.JWTClaims) (*models.Complaint, error)
	SubmitRating(ctx context.Context, id string, req dto.RatingRequest, actor *models.JWTClaims) (*models.Complaint, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	ListComments(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintComment, error)
	AddComment(ctx context.Context, id string, req dto.CommentRequest, actor *models.JWTClaims) (*models.ComplaintComment, error)
	ListAttachments(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintAttachment, error)
	UploadAttachment(ctx context.Context, id string, upload dto.AttachmentUpload, body io.Reader, actor *models.JWTClaims) (*models.ComplaintAttachment, error)
	DeleteAttachment(ctx context.Context, attachmentID string, actor *models.JWTClaims) error
	OpenAttachment(ctx context.Context, token string) (*models.ComplaintAttachment, *storage.Object, error)
	Statistics(ctx context.Context, actor *models.JWTClaims) (*models.ComplaintStatistics, bool, error)
	Export(ctx context.Context, query dto.ComplaintListQuery, format export.Format, actor *models.JWTClaims) ([]byte, string, error)
}

// ComplaintHandler exposes the complaint lifecycle over HTTP.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// Categories godoc
// @Summary List complaint categories
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /complaints/categories [get]
func (h *ComplaintHandler) Categories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Create godoc
// @Summary File a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateComplaintRequest true "Complaint"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	var req dto.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}
	complaint, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}

// List godoc
// @Summary List complaints
// @Description Residents see their own complaints, officials see all.
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param priority query string false "Priority"
// @Param category_id query int false "Category"
// @Param search query string false "Search in title, description and location"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	var query dto.ComplaintListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get complaint detail
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// History godoc
// @Summary Complaint status history
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/history [get]
func (h *ComplaintHandler) History(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Track godoc
// @Summary Track complaint progress
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/track [get]
func (h *ComplaintHandler) Track(c *gin.Context) {
	tracking, err := h.service.Track(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tracking, nil)
}

// Transitions godoc
// @Summary Statuses the caller may move the complaint to
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/transitions [get]
func (h *ComplaintHandler) Transitions(c *gin.Context) {
	statuses, err := h.service.AvailableTransitions(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Transition godoc
// @Summary Change complaint status
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /complaints/{id}/transitions [post]
func (h *ComplaintHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status is required"))
		return
	}
	complaint, err := h.service.RequestTransition(c.Request.Context(), c.Param("id"), req.Status, req.Notes, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// Accept godoc
// @Summary Accept a pending complaint for review
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/accept [post]
func (h *ComplaintHandler) Accept(c *gin.Context) {
	complaint, err := h.service.FastAccept(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// Resolve godoc
// @Summary Resolve a complaint
// @Description Accepts JSON or multipart form data with an optional proof file.
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param notes formData string true "Resolution notes"
// @Param proof formData file false "Resolution proof"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/resolve [post]
func (h *ComplaintHandler) Resolve(c *gin.Context) {
	var (
		req   dto.ResolveRequest
		proof *dto.AttachmentUpload
		body  io.Reader
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req.Notes = c.PostForm("notes")
		if header, err := c.FormFile("proof"); err == nil {
			file, openErr := header.Open()
			if openErr != nil {
				response.Error(c, appErrors.Wrap(openErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
				return
			}
			defer file.Close()
			proof = uploadFromHeader(header, "Resolution proof", true)
			body = file
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}

	complaint, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, proof, body, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// SetPriority godoc
// @Summary Set complaint priority
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body dto.PriorityRequest true "Priority"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/priority [patch]
func (h *ComplaintHandler) SetPriority(c *gin.Context) {
	var req dto.PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid priority payload"))
		return
	}
	complaint, err := h.service.SetPriority(c.Request.Context(), c.Param("id"), req.Priority, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// Rate godoc
// @Summary Rate a resolved complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body dto.RatingRequest true "Rating"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/rating [post]
func (h *ComplaintHandler) Rate(c *gin.Context) {
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}
	complaint, err := h.service.SubmitRating(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// Delete godoc
// @Summary Delete a finished complaint
// @Tags Complaints
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 204
// @Router /complaints/{id} [delete]
func (h *ComplaintHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Comments godoc
// @Summary List complaint comments
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/comments [get]
func (h *ComplaintHandler) Comments(c *gin.Context) {
	comments, err := h.service.ListComments(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// AddComment godoc
// @Summary Comment on a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body dto.CommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Router /complaints/{id}/comments [post]
func (h *ComplaintHandler) AddComment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Attachments godoc
// @Summary List complaint attachments
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id}/attachments [get]
func (h *ComplaintHandler) Attachments(c *gin.Context) {
	attachments, err := h.service.ListAttachments(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachments, nil)
}

// UploadAttachment godoc
// @Summary Attach a file to a complaint
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param file formData file true "File"
// @Param description formData string false "Description"
// @Param is_proof formData bool false "Resolution proof (chairman only)"
// @Success 201 {object} response.Envelope
// @Router /complaints/{id}/attachments [post]
func (h *ComplaintHandler) UploadAttachment(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer file.Close()

	isProof, _ := strconv.ParseBool(c.PostForm("is_proof"))
	upload := uploadFromHeader(header, c.PostForm("description"), isProof)
	attachment, err := h.service.UploadAttachment(c.Request.Context(), c.Param("id"), *upload, file, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// DeleteAttachment godoc
// @Summary Delete an attachment
// @Tags Complaints
// @Security BearerAuth
// @Param attachmentId path string true "Attachment ID"
// @Success 204
// @Router /complaints/attachments/{attachmentId} [delete]
func (h *ComplaintHandler) DeleteAttachment(c *gin.Context) {
	if err := h.service.DeleteAttachment(c.Request.Context(), c.Param("attachmentId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadAttachment godoc
// @Summary Download an attachment through a signed link
// @Tags Complaints
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /complaints/attachments/download [get]
func (h *ComplaintHandler) DownloadAttachment(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	attachment, object, err := h.service.OpenAttachment(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer object.Body.Close() //nolint:errcheck

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = object.ContentType
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, object.Size, contentType, object.Body, nil)
}

// Statistics godoc
// @Summary Complaint statistics
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints/statistics [get]
func (h *ComplaintHandler) Statistics(c *gin.Context) {
	stats, cacheHit, err := h.service.Statistics(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export complaints
// @Tags Complaints
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param status query string false "Comma separated statuses"
// @Success 200 {file} binary
// @Router /complaints/export [get]
func (h *ComplaintHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported export format"))
		return
	}
	var query dto.ComplaintListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	payload, filename, err := h.service.Export(c.Request.Context(), query, format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, format.ContentType(), filename, payload)
}

func uploadFromHeader(header *multipart.FileHeader, description string, isProof bool) *dto.AttachmentUpload {
	return &dto.AttachmentUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Description: description,
		IsProof:     isProof,
	}
}
