package dto

import "github.com/noah-isme/barangay-api/internal/models"

// CreateComplaintRequest is the resident payload for filing a complaint.
type CreateComplaintRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	CategoryID  *int64 `json:"category_id" validate:"omitempty,gt=0"`
	Location    string `json:"location" validate:"max=255"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// ComplaintListQuery maps list query parameters.
type ComplaintListQuery struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	CategoryID *int64 `form:"category_id"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status models.ComplaintStatus `json:"status" validate:"required"`
	Notes  string                 `json:"notes" validate:"max=2000"`
}

// PriorityRequest sets the complaint priority.
type PriorityRequest struct {
	Priority models.ComplaintPriority `json:"priority" validate:"required"`
}

// RatingRequest carries the submitter's satisfaction rating.
type RatingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// CommentRequest adds a comment to the thread.
type CommentRequest struct {
	Comment    string `json:"comment" validate:"required,max=5000"`
	IsInternal bool   `json:"is_internal"`
}

// ResolveRequest marks an in-progress complaint resolved.
type ResolveRequest struct {
	Notes string `json:"notes" validate:"required,max=5000"`
}

// AttachmentUpload describes a file received from a multipart form.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Description string
	IsProof     bool
}

// ComplaintDetail bundles a complaint with what the viewer may act on.
type ComplaintDetail struct {
	Complaint            *models.Complaint               `json:"complaint"`
	History              []models.ComplaintStatusHistory `json:"history"`
	Comments             []models.ComplaintComment       `json:"comments"`
	Attachments          []models.ComplaintAttachment    `json:"attachments"`
	AvailableTransitions []models.ComplaintStatus        `json:"available_transitions"`
	CanRate              bool                            `json:"can_rate"`
}
