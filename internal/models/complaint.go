package models

import "time"

// ComplaintStatus enumerates the lifecycle states of a complaint.
type ComplaintStatus string

const (
	ComplaintStatusPending     ComplaintStatus = "pending"
	ComplaintStatusUnderReview ComplaintStatus = "under_review"
	ComplaintStatusInProgress  ComplaintStatus = "in_progress"
	ComplaintStatusResolved    ComplaintStatus = "resolved"
	ComplaintStatusClosed      ComplaintStatus = "closed"
	ComplaintStatusRejected    ComplaintStatus = "rejected"
)

// ComplaintStatuses lists every status in display order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusUnderReview,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
	ComplaintStatusClosed,
	ComplaintStatusRejected,
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	for _, known := range ComplaintStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ComplaintPriority is set by the secretary independently of status.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
	PriorityUrgent ComplaintPriority = "urgent"
)

// ComplaintPriorities lists every priority from lowest to highest.
var ComplaintPriorities = []ComplaintPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	for _, known := range ComplaintPriorities {
		if p == known {
			return true
		}
	}
	return false
}

// Complaint is a resident-submitted concern moving through the review workflow.
// Anonymous complaints keep UserID; it is hidden at the service layer.
type Complaint struct {
	ID                      string            `db:"id" json:"id"`
	Title                   string            `db:"title" json:"title"`
	Description             string            `db:"description" json:"description"`
	CategoryID              *int64            `db:"category_id" json:"category_id,omitempty"`
	CategoryName            string            `db:"category_name" json:"category_name,omitempty"`
	Location                string            `db:"location" json:"location,omitempty"`
	Status                  ComplaintStatus   `db:"status" json:"status"`
	Priority                ComplaintPriority `db:"priority" json:"priority"`
	UserID                  *string           `db:"user_id" json:"user_id,omitempty"`
	SubmitterName           string            `db:"submitter_name" json:"submitter_name,omitempty"`
	IsAnonymous             bool              `db:"is_anonymous" json:"is_anonymous"`
	AnonymousReference      *string           `db:"anonymous_reference" json:"anonymous_reference,omitempty"`
	AssignedTo              *string           `db:"assigned_to" json:"assigned_to,omitempty"`
	EstimatedResolutionDate *time.Time        `db:"estimated_resolution_date" json:"estimated_resolution_date,omitempty"`
	DelayReason             string            `db:"delay_reason" json:"delay_reason,omitempty"`
	Rating                  *int              `db:"rating" json:"rating,omitempty"`
	RatingFeedback          string            `db:"rating_feedback" json:"rating_feedback,omitempty"`
	ChairmanNotes           string            `db:"chairman_notes" json:"chairman_notes,omitempty"`
	ResolutionNotes         string            `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CreatedAt               time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time         `db:"updated_at" json:"updated_at"`
	AcceptedAt              *time.Time        `db:"accepted_at" json:"accepted_at,omitempty"`
	ResolvedAt              *time.Time        `db:"resolved_at" json:"resolved_at,omitempty"`
	ClosedAt                *time.Time        `db:"closed_at" json:"closed_at,omitempty"`
}

// IsSubmittedBy reports whether userID filed the complaint.
func (c *Complaint) IsSubmittedBy(userID string) bool {
	return c != nil && c.UserID != nil && userID != "" && *c.UserID == userID
}

// ComplaintFilter constrains listing queries.
type ComplaintFilter struct {
	Statuses   []ComplaintStatus
	Priority   ComplaintPriority
	CategoryID *int64
	UserID     string
	Search     string
	Page       int
	PageSize   int
}

// ComplaintStatusHistory is an append-only record of one transition.
type ComplaintStatusHistory struct {
	ID            string          `db:"id" json:"id"`
	ComplaintID   string          `db:"complaint_id" json:"complaint_id"`
	OldStatus     ComplaintStatus `db:"old_status" json:"old_status"`
	NewStatus     ComplaintStatus `db:"new_status" json:"new_status"`
	ChangedBy     string          `db:"changed_by" json:"changed_by"`
	ChangedByName string          `db:"changed_by_name" json:"changed_by_name,omitempty"`
	ChangedAt     time.Time       `db:"changed_at" json:"changed_at"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
}

// ComplaintTransition carries everything persisted by one status change.
// The update applies only while the stored status still equals From.
type ComplaintTransition struct {
	ComplaintID string
	From        ComplaintStatus
	To          ComplaintStatus
	ChangedBy   string
	ChangedAt   time.Time
	Notes       string
	AcceptedAt  *time.Time
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
	// ResolutionNotes is written only when non-nil.
	ResolutionNotes *string
}

// ComplaintAttachment is an evidentiary file linked to a complaint.
type ComplaintAttachment struct {
	ID          string    `db:"id" json:"id"`
	ComplaintID string    `db:"complaint_id" json:"complaint_id"`
	FileKey     string    `db:"file_key" json:"-"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy  *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
	Description string    `db:"description" json:"description,omitempty"`
	IsProof     bool      `db:"is_proof" json:"is_proof"`
	DownloadURL string    `db:"-" json:"download_url,omitempty"`
}

// ComplaintComment is a discussion entry; internal comments are hidden from residents.
type ComplaintComment struct {
	ID          string    `db:"id" json:"id"`
	ComplaintID string    `db:"complaint_id" json:"complaint_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	AuthorName  string    `db:"author_name" json:"author_name,omitempty"`
	AuthorRole  UserRole  `db:"author_role" json:"author_role,omitempty"`
	Comment     string    `db:"comment" json:"comment"`
	IsInternal  bool      `db:"is_internal" json:"is_internal"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ComplaintCategory groups complaints for reporting.
type ComplaintCategory struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Icon        string `db:"icon" json:"icon,omitempty"`
}

// LabelCount is one bucket of a grouped count.
type LabelCount struct {
	Label string `db:"label" json:"label"`
	Count int    `db:"count" json:"count"`
}

// ComplaintStatistics summarises complaint volume for officials.
type ComplaintStatistics struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	ByPriority     map[string]int `json:"by_priority"`
	ByCategory     []LabelCount   `json:"by_category"`
	ResolutionRate float64        `json:"resolution_rate"`
	AverageRating  *float64       `json:"average_rating,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// ComplaintTracking is the resident-facing progress view.
type ComplaintTracking struct {
	Complaint           *Complaint               `json:"complaint"`
	Timeline            []ComplaintStatusHistory `json:"timeline"`
	EstimatedCompletion *time.Time               `json:"estimated_completion,omitempty"`
	EstimatedDays       int                      `json:"estimated_days"`
	Confidence          int                      `json:"confidence"`
}
