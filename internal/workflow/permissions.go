package workflow

import (
	"fmt"

	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
)

// Edge is a single directed transition.
type Edge struct {
	From models.ComplaintStatus
	To   models.ComplaintStatus
}

var (
	officials    = []models.UserRole{models.RoleSecretary, models.RoleChairman}
	chairmanOnly = []models.UserRole{models.RoleChairman}
)

// edgeRoles lists who may drive each edge. Every edge in transitions has an entry.
var edgeRoles = map[Edge][]models.UserRole{
	{models.ComplaintStatusPending, models.ComplaintStatusUnderReview}:    officials,
	{models.ComplaintStatusPending, models.ComplaintStatusRejected}:       officials,
	{models.ComplaintStatusUnderReview, models.ComplaintStatusInProgress}: officials,
	{models.ComplaintStatusUnderReview, models.ComplaintStatusRejected}:   officials,
	{models.ComplaintStatusInProgress, models.ComplaintStatusResolved}:    chairmanOnly,
	{models.ComplaintStatusInProgress, models.ComplaintStatusUnderReview}: chairmanOnly,
	{models.ComplaintStatusResolved, models.ComplaintStatusClosed}:        chairmanOnly,
	{models.ComplaintStatusResolved, models.ComplaintStatusInProgress}:    chairmanOnly,
	{models.ComplaintStatusRejected, models.ComplaintStatusPending}:       officials,
}

// RolesFor returns the roles allowed to drive the edge.
func RolesFor(from, to models.ComplaintStatus) []models.UserRole {
	roles := edgeRoles[Edge{From: from, To: to}]
	out := make([]models.UserRole, len(roles))
	copy(out, roles)
	return out
}

// Authorize checks the edge first and the role second, so an unreachable target is
// reported as an invalid transition whoever asks.
func Authorize(from, to models.ComplaintStatus, role models.UserRole) error {
	if !CanTransition(from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move complaint from %s to %s", from, to))
	}
	if !roleAllowed(from, to, role) {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot move complaint from %s to %s", role, from, to))
	}
	return nil
}

// AvailableTransitions lists the statuses the role may move a complaint to from from.
func AvailableTransitions(from models.ComplaintStatus, role models.UserRole) []models.ComplaintStatus {
	out := make([]models.ComplaintStatus, 0, len(transitions[from]))
	for _, to := range transitions[from] {
		if roleAllowed(from, to, role) {
			out = append(out, to)
		}
	}
	return out
}

func roleAllowed(from, to models.ComplaintStatus, role models.UserRole) bool {
	for _, allowed := range edgeRoles[Edge{From: from, To: to}] {
		if allowed == role {
			return true
		}
	}
	return false
}
