package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/export"
)

var complaintExportHeaders = []string{"Reference", "Title", "Category", "Status", "Priority", "Submitted By", "Created At", "Resolved At", "Rating"}

// Statistics aggregates complaint counts for officials. Results are cached until the next
// write; the bool reports a cache hit.
func (s *ComplaintService) Statistics(ctx context.Context, actor *models.JWTClaims) (*models.ComplaintStatistics, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	if !actor.Role.IsOfficial() {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "statistics are available to officials only")
	}

	return remember(ctx, s.cache, complaintStatsKey, s.config.StatsCacheTTL, s.computeStatistics)
}

func (s *ComplaintService) computeStatistics(ctx context.Context) (*models.ComplaintStatistics, error) {
	stats, err := s.complaints.Statistics(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	if stats.Total > 0 {
		rate := float64(stats.ByStatus[string(models.ComplaintStatusResolved)]) / float64(stats.Total) * 100
		stats.ResolutionRate = math.Round(rate*10) / 10
	}
	stats.GeneratedAt = s.now().UTC()
	return stats, nil
}

// Track returns the resident-facing timeline with a rough completion estimate.
func (s *ComplaintService) Track(ctx context.Context, id string, actor *models.JWTClaims) (*models.ComplaintTracking, error) {
	complaint, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	history, err := s.complaints.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}

	days, confidence := estimateCompletion(complaint.Status)
	tracking := &models.ComplaintTracking{
		Complaint:     maskIdentity(complaint, actor),
		Timeline:      history,
		EstimatedDays: days,
		Confidence:    confidence,
	}
	switch {
	case complaint.EstimatedResolutionDate != nil:
		tracking.EstimatedCompletion = complaint.EstimatedResolutionDate
	case days > 0:
		eta := s.now().UTC().AddDate(0, 0, days)
		tracking.EstimatedCompletion = &eta
	}
	return tracking, nil
}

// estimateCompletion returns remaining days and a confidence percentage for a status.
func estimateCompletion(status models.ComplaintStatus) (int, int) {
	switch status {
	case models.ComplaintStatusPending:
		return 7, 50
	case models.ComplaintStatusUnderReview:
		return 5, 60
	case models.ComplaintStatusInProgress:
		return 3, 70
	default:
		return 0, 100
	}
}

// Export renders complaints matching query as CSV or PDF for officials.
func (s *ComplaintService) Export(ctx context.Context, query dto.ComplaintListQuery, format export.Format, actor *models.JWTClaims) ([]byte, string, error) {
	if actor == nil {
		return nil, "", appErrors.ErrUnauthorized
	}
	if !actor.Role.IsOfficial() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are available to officials only")
	}
	filter, err := buildComplaintFilter(query)
	if err != nil {
		return nil, "", err
	}
	complaints, err := s.complaints.ListAll(ctx, filter, s.config.ExportMaxRows)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints")
	}

	dataset := export.Dataset{Headers: complaintExportHeaders, Rows: make([]map[string]string, 0, len(complaints))}
	for i := range complaints {
		c := maskIdentity(&complaints[i], actor)
		row := map[string]string{
			"Reference":    c.ID,
			"Title":        c.Title,
			"Category":     c.CategoryName,
			"Status":       statusLabel(c.Status),
			"Priority":     string(c.Priority),
			"Submitted By": c.SubmitterName,
			"Created At":   c.CreatedAt.Format(time.RFC3339),
		}
		if c.AnonymousReference != nil {
			row["Reference"] = *c.AnonymousReference
		}
		if c.ResolvedAt != nil {
			row["Resolved At"] = c.ResolvedAt.Format(time.RFC3339)
		}
		if c.Rating != nil {
			row["Rating"] = strconv.Itoa(*c.Rating)
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	payload, err := export.Render(format, dataset, "Barangay Complaints")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.recordAudit(ctx, actor, models.AuditActionComplaintExport, "", nil, map[string]interface{}{
		"format": format,
		"rows":   len(dataset.Rows),
	})
	filename := fmt.Sprintf("complaints-%s.%s", s.now().UTC().Format("20060102-150405"), format)
	return payload, filename, nil
}
