package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	"github.com/noah-isme/barangay-api/internal/workflow"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/storage"
)

const (
	acceptNote         = "Complaint accepted for review"
	anonymousName      = "Anonymous"
	complaintStatsKey  = "complaints:stats"
	complaintStatsScan = "complaints:stats*"
)

type complaintStore interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error)
	ListAll(ctx context.Context, filter models.ComplaintFilter, limit int) ([]models.Complaint, error)
	ApplyTransition(ctx context.Context, t models.ComplaintTransition) error
	ListHistory(ctx context.Context, complaintID string) ([]models.ComplaintStatusHistory, error)
	UpdatePriority(ctx context.Context, id string, priority models.ComplaintPriority, updatedAt time.Time) error
	UpdateRating(ctx context.Context, id string, rating int, feedback string, updatedAt time.Time) error
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context) (*models.ComplaintStatistics, error)
}

type complaintCommentStore interface {
	Create(ctx context.Context, comment *models.ComplaintComment) error
	List(ctx context.Context, complaintID string, includeInternal bool) ([]models.ComplaintComment, error)
}

type complaintAttachmentStore interface {
	Create(ctx context.Context, attachment *models.ComplaintAttachment) error
	FindByID(ctx context.Context, id string) (*models.ComplaintAttachment, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]models.ComplaintAttachment, error)
	Delete(ctx context.Context, id string) error
}

type complaintCategoryStore interface {
	List(ctx context.Context) ([]models.ComplaintCategory, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type complaintNotifier interface {
	Notify(ctx context.Context, notification models.Notification)
}

type complaintAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type downloadSigner interface {
	Generate(attachmentID, key string) (string, time.Time, error)
	Parse(token string) (attachmentID, key string, err error)
}

// ComplaintServiceConfig tunes attachment limits, exports and the statistics cache.
type ComplaintServiceConfig struct {
	StatsCacheTTL         time.Duration
	ReferenceMaxAttempts  int
	AttachmentMaxBytes    int64
	AttachmentAllowedMIME []string
	ExportMaxRows         int
	DownloadPath          string
}

// ComplaintDeps groups the collaborators of ComplaintService.
type ComplaintDeps struct {
	Complaints  complaintStore
	Comments    complaintCommentStore
	Attachments complaintAttachmentStore
	Categories  complaintCategoryStore
	Audit       complaintAuditLogger
	Notifier    complaintNotifier
	Objects     storage.ObjectStore
	Signer      downloadSigner
	Cache       *CacheService
	Metrics     *MetricsService
}

// ComplaintService drives the complaint lifecycle and everything hanging off a complaint.
type ComplaintService struct {
	complaints  complaintStore
	comments    complaintCommentStore
	attachments complaintAttachmentStore
	categories  complaintCategoryStore
	audit       complaintAuditLogger
	notifier    complaintNotifier
	objects     storage.ObjectStore
	signer      downloadSigner
	cache       *CacheService
	metrics     *MetricsService
	references  *ReferenceGenerator
	validator   *validator.Validate
	logger      *zap.Logger
	config      ComplaintServiceConfig
	now         func() time.Time
}

// NewComplaintService wires a ComplaintService.
func NewComplaintService(deps ComplaintDeps, cfg ComplaintServiceConfig, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 5 * time.Minute
	}
	if cfg.AttachmentMaxBytes <= 0 {
		cfg.AttachmentMaxBytes = 10 << 20
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 5000
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/complaints/attachments/download"
	}
	return &ComplaintService{
		complaints:  deps.Complaints,
		comments:    deps.Comments,
		attachments: deps.Attachments,
		categories:  deps.Categories,
		audit:       deps.Audit,
		notifier:    deps.Notifier,
		objects:     deps.Objects,
		signer:      deps.Signer,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		references:  NewReferenceGenerator(deps.Complaints, cfg.ReferenceMaxAttempts),
		validator:   validate,
		logger:      logger,
		config:      cfg,
		now:         time.Now,
	}
}

// Categories lists complaint categories.
func (s *ComplaintService) Categories(ctx context.Context) ([]models.ComplaintCategory, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Create files a new complaint for a resident.
func (s *ComplaintService) Create(ctx context.Context, req dto.CreateComplaintRequest, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleResident {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only residents can file complaints")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	if req.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *req.CategoryID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify category")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
	}

	userID := actor.UserID
	complaint := &models.Complaint{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Location:    strings.TrimSpace(req.Location),
		Status:      models.ComplaintStatusPending,
		Priority:    models.PriorityMedium,
		UserID:      &userID,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   s.now().UTC(),
	}
	if req.IsAnonymous {
		reference, err := s.references.Generate(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue anonymous reference")
		}
		complaint.AnonymousReference = &reference
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	s.metrics.RecordComplaintCreated(complaint.IsAnonymous)
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actor, models.AuditActionComplaintCreate, complaint.ID, nil, map[string]interface{}{
		"status":       complaint.Status,
		"is_anonymous": complaint.IsAnonymous,
	})
	return maskIdentity(complaint, actor), nil
}

// List returns one page of complaints. Residents only ever see their own.
func (s *ComplaintService) List(ctx context.Context, query dto.ComplaintListQuery, actor *models.JWTClaims) ([]models.Complaint, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter, err := buildComplaintFilter(query)
	if err != nil {
		return nil, nil, err
	}
	if !actor.Role.IsOfficial() {
		filter.UserID = actor.UserID
	}

	items, total, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	for i := range items {
		items[i] = *maskIdentity(&items[i], actor)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a complaint together with its history, visible comments, attachments and the
// transitions the viewer may drive.
func (s *ComplaintService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ComplaintDetail, error) {
	complaint, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	history, err := s.complaints.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	comments, err := s.comments.List(ctx, id, actor.Role.IsOfficial())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	attachments, err := s.listAttachments(ctx, id)
	if err != nil {
		return nil, err
	}

	canRate := complaint.IsSubmittedBy(actor.UserID) && complaint.Rating == nil &&
		(complaint.Status == models.ComplaintStatusResolved || complaint.Status == models.ComplaintStatusClosed)

	if complaint.IsAnonymous && actor.Role == models.RoleChairman {
		s.recordAudit(ctx, actor, models.AuditActionIdentityRevealed, complaint.ID, nil, nil)
	}

	return &dto.ComplaintDetail{
		Complaint:            maskIdentity(complaint, actor),
		History:              history,
		Comments:             comments,
		Attachments:          attachments,
		AvailableTransitions: workflow.AvailableTransitions(complaint.Status, actor.Role),
		CanRate:              canRate,
	}, nil
}

// History returns the status history of a complaint the actor may see.
func (s *ComplaintService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintStatusHistory, error) {
	if _, err := s.loadVisible(ctx, id, actor); err != nil {
		return nil, err
	}
	history, err := s.complaints.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return history, nil
}

// AvailableTransitions lists the statuses the actor may move the complaint to now.
func (s *ComplaintService) AvailableTransitions(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintStatus, error) {
	complaint, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return workflow.AvailableTransitions(complaint.Status, actor.Role), nil
}

// RequestTransition moves a complaint to target on behalf of actor.
func (s *ComplaintService) RequestTransition(ctx context.Context, id string, target models.ComplaintStatus, notes string, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, complaint, target, strings.TrimSpace(notes), nil, actor)
}

// FastAccept moves a pending complaint to under_review in one step.
func (s *ComplaintService) FastAccept(ctx context.Context, id string, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.Status != models.ComplaintStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending complaints can be accepted")
	}
	if !actor.Role.IsOfficial() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only barangay officials can accept complaints")
	}
	return s.transition(ctx, complaint, models.ComplaintStatusUnderReview, acceptNote, nil, actor)
}

// Resolve marks an in-progress complaint resolved with resolution notes and an optional proof file.
func (s *ComplaintService) Resolve(ctx context.Context, id string, req dto.ResolveRequest, proof *dto.AttachmentUpload, proofBody io.Reader, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	if proof != nil {
		if err := s.checkUpload(*proof); err != nil {
			return nil, err
		}
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// The proof is uploaded before the status moves so a storage failure leaves the
	// complaint in progress and the chairman can retry.
	var proofRow *models.ComplaintAttachment
	if proof != nil && proofBody != nil {
		if err := workflow.Authorize(complaint.Status, models.ComplaintStatusResolved, actor.Role); err != nil {
			return nil, err
		}
		proof.IsProof = true
		if proofRow, err = s.putObject(ctx, complaint.ID, *proof, proofBody, actor); err != nil {
			return nil, err
		}
	}

	notes := strings.TrimSpace(req.Notes)
	updated, err := s.transition(ctx, complaint, models.ComplaintStatusResolved, notes, &notes, actor)
	if err != nil {
		if proofRow != nil {
			s.removeObject(ctx, proofRow.FileKey)
		}
		return nil, err
	}

	if proofRow != nil {
		if err := s.saveAttachment(ctx, proofRow, actor); err != nil {
			s.logger.Warn("resolution proof not recorded", zap.String("complaint_id", complaint.ID), zap.Error(err))
		}
	}
	return updated, nil
}

// SetPriority changes the priority. Only the secretary triages.
func (s *ComplaintService) SetPriority(ctx context.Context, id string, priority models.ComplaintPriority, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSecretary {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the secretary can set priority")
	}
	if !priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidValue, fmt.Sprintf("unknown priority %q", priority))
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.complaints.UpdatePriority(ctx, id, priority, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update priority")
	}

	s.invalidateStats(ctx)
	s.recordAudit(ctx, actor, models.AuditActionComplaintPriority, id,
		map[string]interface{}{"priority": complaint.Priority},
		map[string]interface{}{"priority": priority})
	complaint.Priority = priority
	return maskIdentity(complaint, actor), nil
}

// SubmitRating stores the submitter's satisfaction rating once the complaint is finished.
// Checks run in order: value, ownership, status.
func (s *ComplaintService) SubmitRating(ctx context.Context, id string, req dto.RatingRequest, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, appErrors.Clone(appErrors.ErrInvalidValue, "rating must be between 1 and 5")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !complaint.IsSubmittedBy(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitter can rate a complaint")
	}
	if complaint.Status != models.ComplaintStatusResolved && complaint.Status != models.ComplaintStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only resolved or closed complaints can be rated")
	}

	feedback := strings.TrimSpace(req.Feedback)
	if err := s.complaints.UpdateRating(ctx, id, req.Rating, feedback, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "only resolved or closed complaints can be rated")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store rating")
	}

	s.invalidateStats(ctx)
	s.recordAudit(ctx, actor, models.AuditActionComplaintRating, id, nil, map[string]interface{}{"rating": req.Rating})
	rating := req.Rating
	complaint.Rating = &rating
	complaint.RatingFeedback = feedback
	return maskIdentity(complaint, actor), nil
}

// Delete removes a finished complaint. Chairman only.
func (s *ComplaintService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleChairman {
		return appErrors.Clone(appErrors.ErrForbidden, "only the chairman can delete complaints")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if complaint.Status != models.ComplaintStatusResolved && complaint.Status != models.ComplaintStatusClosed {
		return appErrors.Clone(appErrors.ErrInvalidState, "only resolved or closed complaints can be deleted")
	}

	attachments, err := s.attachments.ListByComplaint(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachments")
	}
	if err := s.complaints.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "only resolved or closed complaints can be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete complaint")
	}
	for _, attachment := range attachments {
		s.removeObject(ctx, attachment.FileKey)
	}

	s.invalidateStats(ctx)
	s.recordAudit(ctx, actor, models.AuditActionComplaintDelete, id, map[string]interface{}{"status": complaint.Status}, nil)
	return nil
}

// transition authorizes and applies one status change, then runs the best-effort side effects.
func (s *ComplaintService) transition(ctx context.Context, complaint *models.Complaint, target models.ComplaintStatus, notes string, resolutionNotes *string, actor *models.JWTClaims) (*models.Complaint, error) {
	if err := workflow.Authorize(complaint.Status, target, actor.Role); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	stamps := workflow.StampsFor(complaint, target, now)
	change := models.ComplaintTransition{
		ComplaintID:     complaint.ID,
		From:            complaint.Status,
		To:              target,
		ChangedBy:       actor.UserID,
		ChangedAt:       now,
		Notes:           notes,
		AcceptedAt:      stamps.AcceptedAt,
		ResolvedAt:      stamps.ResolvedAt,
		ClosedAt:        stamps.ClosedAt,
		ResolutionNotes: resolutionNotes,
	}
	if err := s.complaints.ApplyTransition(ctx, change); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "complaint status changed concurrently, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint status")
	}

	s.logger.Info("complaint status changed",
		zap.String("complaint_id", complaint.ID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.String("actor", actor.UserID),
	)

	updated := *complaint
	updated.Status = target
	updated.UpdatedAt = now
	if stamps.AcceptedAt != nil {
		updated.AcceptedAt = stamps.AcceptedAt
	}
	if stamps.ResolvedAt != nil {
		updated.ResolvedAt = stamps.ResolvedAt
	}
	if stamps.ClosedAt != nil {
		updated.ClosedAt = stamps.ClosedAt
	}
	if resolutionNotes != nil {
		updated.ResolutionNotes = *resolutionNotes
	}

	s.afterTransition(ctx, &updated, change, actor)
	return maskIdentity(&updated, actor), nil
}

func (s *ComplaintService) afterTransition(ctx context.Context, complaint *models.Complaint, change models.ComplaintTransition, actor *models.JWTClaims) {
	s.metrics.RecordTransition(change.From, change.To)
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actor, models.AuditActionComplaintStatus, complaint.ID,
		map[string]interface{}{"status": change.From},
		map[string]interface{}{"status": change.To, "notes": change.Notes})

	if s.notifier == nil || complaint.UserID == nil || *complaint.UserID == actor.UserID {
		return
	}
	s.notifier.Notify(ctx, models.Notification{
		UserID:  *complaint.UserID,
		Type:    models.NotificationTypeComplaint,
		Title:   "Complaint status updated",
		Message: fmt.Sprintf("Your complaint %q is now %s.", complaint.Title, statusLabel(change.To)),
		Link:    "/complaints/" + complaint.ID,
	})
}

// load fetches a complaint without visibility checks.
func (s *ComplaintService) load(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	return complaint, nil
}

// loadVisible fetches a complaint the actor may read: officials see all, residents their own.
func (s *ComplaintService) loadVisible(ctx context.Context, id string, actor *models.JWTClaims) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsOfficial() && !complaint.IsSubmittedBy(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only view your own complaints")
	}
	return complaint, nil
}

func (s *ComplaintService) invalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, complaintStatsScan); err != nil {
		s.logger.Debug("stats cache invalidation skipped", zap.Error(err))
	}
}

func (s *ComplaintService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, complaintID string, oldValues, newValues map[string]interface{}) {
	if s.audit == nil || actor == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:    &actor.UserID,
		Action:    action,
		Resource:  models.AuditResourceComplaint,
		CreatedAt: s.now().UTC(),
	}
	if complaintID != "" {
		entry.ResourceID = &complaintID
	}
	client := models.ClientFrom(ctx)
	entry.IPAddress = client.IP
	entry.UserAgent = client.UserAgent
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record complaint audit log", zap.String("action", action), zap.String("complaint_id", complaintID), zap.Error(err))
	}
}

// maskIdentity hides the submitter of anonymous complaints from everyone but the chairman.
func maskIdentity(c *models.Complaint, viewer *models.JWTClaims) *models.Complaint {
	if c == nil || !c.IsAnonymous || (viewer != nil && viewer.Role == models.RoleChairman) {
		return c
	}
	masked := *c
	masked.UserID = nil
	masked.SubmitterName = anonymousName
	return &masked
}

func buildComplaintFilter(query dto.ComplaintListQuery) (models.ComplaintFilter, error) {
	filter := models.ComplaintFilter{
		CategoryID: query.CategoryID,
		Search:     strings.TrimSpace(query.Search),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.Status != "" {
		for _, raw := range strings.Split(query.Status, ",") {
			status := models.ComplaintStatus(strings.TrimSpace(raw))
			if status == "" {
				continue
			}
			if !status.Valid() {
				return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if query.Priority != "" {
		priority := models.ComplaintPriority(strings.TrimSpace(query.Priority))
		if !priority.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority %q", priority))
		}
		filter.Priority = priority
	}
	return filter, nil
}

func statusLabel(status models.ComplaintStatus) string {
	return strings.ReplaceAll(string(status), "_", " ")
}
