// Package workflow holds the complaint state machine and the role table guarding each edge.
package workflow

import (
	"time"

	"github.com/noah-isme/barangay-api/internal/models"
)

// transitions maps each status to the statuses it may move to, in display order.
var transitions = map[models.ComplaintStatus][]models.ComplaintStatus{
	models.ComplaintStatusPending:     {models.ComplaintStatusUnderReview, models.ComplaintStatusRejected},
	models.ComplaintStatusUnderReview: {models.ComplaintStatusInProgress, models.ComplaintStatusRejected},
	models.ComplaintStatusInProgress:  {models.ComplaintStatusResolved, models.ComplaintStatusUnderReview},
	models.ComplaintStatusResolved:    {models.ComplaintStatusClosed, models.ComplaintStatusInProgress},
	models.ComplaintStatusClosed:      {},
	models.ComplaintStatusRejected:    {models.ComplaintStatusPending},
}

// Next returns the statuses reachable from the given status.
func Next(from models.ComplaintStatus) []models.ComplaintStatus {
	next := transitions[from]
	out := make([]models.ComplaintStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to models.ComplaintStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status models.ComplaintStatus) bool {
	return len(transitions[status]) == 0
}

// Timestamps are the lifecycle stamps written alongside a transition. Nil means unchanged.
type Timestamps struct {
	AcceptedAt *time.Time
	ResolvedAt *time.Time
	ClosedAt   *time.Time
}

// StampsFor computes the timestamps a transition of c to target sets at now.
// accepted_at is written once; resolved_at is refreshed on every resolution.
func StampsFor(c *models.Complaint, target models.ComplaintStatus, now time.Time) Timestamps {
	var stamps Timestamps
	from := c.Status
	switch target {
	case models.ComplaintStatusUnderReview:
		if from == models.ComplaintStatusPending && c.AcceptedAt == nil {
			stamps.AcceptedAt = &now
		}
	case models.ComplaintStatusInProgress:
		if (from == models.ComplaintStatusPending || from == models.ComplaintStatusUnderReview) && c.AcceptedAt == nil {
			stamps.AcceptedAt = &now
		}
	case models.ComplaintStatusResolved:
		stamps.ResolvedAt = &now
	case models.ComplaintStatusClosed:
		stamps.ClosedAt = &now
	}
	return stamps
}
