package models

import (
	"context"
	"time"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLogout            = "LOGOUT"
	AuditActionPasswordChange    = "PASSWORD_CHANGE"
	AuditActionComplaintCreate   = "COMPLAINT_CREATE"
	AuditActionComplaintStatus   = "COMPLAINT_STATUS"
	AuditActionComplaintPriority = "COMPLAINT_PRIORITY"
	AuditActionComplaintRating   = "COMPLAINT_RATING"
	AuditActionComplaintDelete   = "COMPLAINT_DELETE"
	AuditActionComplaintAttach   = "COMPLAINT_ATTACH"
	AuditActionComplaintExport   = "COMPLAINT_EXPORT"
	AuditActionIdentityRevealed  = "COMPLAINT_IDENTITY_REVEAL"
	AuditResourceComplaint       = "complaint"
	AuditResourceAuth            = "auth"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type clientKey struct{}

// ClientInfo identifies the caller of a request for audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClient stores the caller on ctx.
func WithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, info)
}

// ClientFrom returns the caller stored by WithClient, or a zero value.
func ClientFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientKey{}).(ClientInfo)
	return info
}
