package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/storage"
)

// ListComments returns the thread. Internal comments are only shown to officials.
func (s *ComplaintService) ListComments(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintComment, error) {
	if _, err := s.loadVisible(ctx, id, actor); err != nil {
		return nil, err
	}
	comments, err := s.comments.List(ctx, id, actor.Role.IsOfficial())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	return comments, nil
}

// AddComment appends a comment. Residents cannot post internal notes.
func (s *ComplaintService) AddComment(ctx context.Context, id string, req dto.CommentRequest, actor *models.JWTClaims) (*models.ComplaintComment, error) {
	complaint, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if req.IsInternal && !actor.Role.IsOfficial() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only officials can post internal comments")
	}

	comment := &models.ComplaintComment{
		ComplaintID: id,
		UserID:      actor.UserID,
		AuthorName:  actor.FullName,
		AuthorRole:  actor.Role,
		Comment:     req.Comment,
		IsInternal:  req.IsInternal,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}

	if !comment.IsInternal && s.notifier != nil && complaint.UserID != nil && *complaint.UserID != actor.UserID {
		s.notifier.Notify(ctx, models.Notification{
			UserID:  *complaint.UserID,
			Type:    models.NotificationTypeComplaint,
			Title:   "New comment on your complaint",
			Message: fmt.Sprintf("An official replied to %q.", complaint.Title),
			Link:    "/complaints/" + complaint.ID,
		})
	}
	return comment, nil
}

// ListAttachments returns attachments with signed download links.
func (s *ComplaintService) ListAttachments(ctx context.Context, id string, actor *models.JWTClaims) ([]models.ComplaintAttachment, error) {
	if _, err := s.loadVisible(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.listAttachments(ctx, id)
}

// UploadAttachment stores an evidentiary file. The submitter and officials may upload.
func (s *ComplaintService) UploadAttachment(ctx context.Context, id string, upload dto.AttachmentUpload, body io.Reader, actor *models.JWTClaims) (*models.ComplaintAttachment, error) {
	if _, err := s.loadVisible(ctx, id, actor); err != nil {
		return nil, err
	}
	if upload.IsProof && actor.Role != models.RoleChairman {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the chairman can attach resolution proof")
	}
	if err := s.checkUpload(upload); err != nil {
		return nil, err
	}
	return s.storeAttachment(ctx, id, upload, body, actor)
}

// DeleteAttachment removes an attachment. The uploader and officials may delete.
func (s *ComplaintService) DeleteAttachment(ctx context.Context, attachmentID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	attachment, err := s.attachments.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	uploader := attachment.UploadedBy != nil && *attachment.UploadedBy == actor.UserID
	if !actor.Role.IsOfficial() && !uploader {
		return appErrors.Clone(appErrors.ErrForbidden, "only the uploader or officials can delete attachments")
	}
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	s.removeObject(ctx, attachment.FileKey)
	return nil
}

// OpenAttachment resolves a signed download token to the stored file. The caller closes Body.
func (s *ComplaintService) OpenAttachment(ctx context.Context, token string) (*models.ComplaintAttachment, *storage.Object, error) {
	if s.signer == nil || s.objects == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment downloads are disabled")
	}
	attachmentID, key, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	attachment, err := s.attachments.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.FileKey != key {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	object, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment file missing")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	return attachment, object, nil
}

func (s *ComplaintService) checkUpload(upload dto.AttachmentUpload) error {
	if s.objects == nil {
		return appErrors.Clone(appErrors.ErrInternal, "attachment storage is not configured")
	}
	if strings.TrimSpace(upload.FileName) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}
	if upload.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if upload.Size > s.config.AttachmentMaxBytes {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.config.AttachmentMaxBytes))
	}
	if len(s.config.AttachmentAllowedMIME) > 0 && !mimeAllowed(upload.ContentType, s.config.AttachmentAllowedMIME) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", upload.ContentType))
	}
	return nil
}

func (s *ComplaintService) storeAttachment(ctx context.Context, complaintID string, upload dto.AttachmentUpload, body io.Reader, actor *models.JWTClaims) (*models.ComplaintAttachment, error) {
	attachment, err := s.putObject(ctx, complaintID, upload, body, actor)
	if err != nil {
		return nil, err
	}
	if err := s.saveAttachment(ctx, attachment, actor); err != nil {
		return nil, err
	}
	return attachment, nil
}

// putObject uploads the file and returns the row to insert. Nothing is written to the database.
func (s *ComplaintService) putObject(ctx context.Context, complaintID string, upload dto.AttachmentUpload, body io.Reader, actor *models.JWTClaims) (*models.ComplaintAttachment, error) {
	attachmentID := uuid.NewString()
	key := path.Join("complaints", complaintID, attachmentID+strings.ToLower(path.Ext(upload.FileName)))
	if err := s.objects.Put(ctx, key, io.LimitReader(body, s.config.AttachmentMaxBytes), upload.Size, upload.ContentType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}

	uploader := actor.UserID
	return &models.ComplaintAttachment{
		ID:          attachmentID,
		ComplaintID: complaintID,
		FileKey:     key,
		FileName:    path.Base(upload.FileName),
		ContentType: upload.ContentType,
		SizeBytes:   upload.Size,
		UploadedBy:  &uploader,
		UploadedAt:  s.now().UTC(),
		Description: strings.TrimSpace(upload.Description),
		IsProof:     upload.IsProof,
	}, nil
}

// saveAttachment inserts the row for an uploaded object. The object is removed when the insert fails.
func (s *ComplaintService) saveAttachment(ctx context.Context, attachment *models.ComplaintAttachment, actor *models.JWTClaims) error {
	if err := s.attachments.Create(ctx, attachment); err != nil {
		s.removeObject(ctx, attachment.FileKey)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attachment")
	}
	s.recordAudit(ctx, actor, models.AuditActionComplaintAttach, attachment.ComplaintID, nil, map[string]interface{}{
		"attachment_id": attachment.ID,
		"file_name":     attachment.FileName,
		"is_proof":      attachment.IsProof,
	})
	s.sign(attachment)
	return nil
}

func (s *ComplaintService) listAttachments(ctx context.Context, complaintID string) ([]models.ComplaintAttachment, error) {
	attachments, err := s.attachments.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachments")
	}
	for i := range attachments {
		s.sign(&attachments[i])
	}
	return attachments, nil
}

func (s *ComplaintService) sign(attachment *models.ComplaintAttachment) {
	if s.signer == nil {
		return
	}
	token, _, err := s.signer.Generate(attachment.ID, attachment.FileKey)
	if err != nil {
		s.logger.Warn("failed to sign attachment download", zap.String("attachment_id", attachment.ID), zap.Error(err))
		return
	}
	attachment.DownloadURL = s.config.DownloadPath + "?token=" + url.QueryEscape(token)
}

func (s *ComplaintService) removeObject(ctx context.Context, key string) {
	if s.objects == nil || key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("failed to delete attachment object", zap.String("key", key), zap.Error(err))
	}
}

func mimeAllowed(contentType string, allowed []string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == base {
			return true
		}
		if strings.HasSuffix(candidate, "/*") && strings.HasPrefix(base, strings.TrimSuffix(candidate, "*")) {
			return true
		}
	}
	return false
}
