package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/barangay-api/internal/models"
)

const complaintSelect = `SELECT c.id, c.title, c.description, c.category_id, COALESCE(cat.name, '') AS category_name,
c.location, c.status, c.priority, c.user_id, COALESCE(u.full_name, '') AS submitter_name, c.is_anonymous,
c.anonymous_reference, c.assigned_to, c.estimated_resolution_date, c.delay_reason, c.rating, c.rating_feedback,
c.chairman_notes, c.resolution_notes, c.created_at, c.updated_at, c.accepted_at, c.resolved_at, c.closed_at
FROM complaints c
LEFT JOIN complaint_categories cat ON cat.id = c.category_id
LEFT JOIN users u ON u.id = c.user_id`

// ComplaintRepository persists complaints and their status history.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a new ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts a new complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = now
	}
	complaint.UpdatedAt = complaint.CreatedAt

	const query = `INSERT INTO complaints (id, title, description, category_id, location, status, priority, user_id, is_anonymous, anonymous_reference, created_at, updated_at)
VALUES (:id, :title, :description, :category_id, :location, :status, :priority, :user_id, :is_anonymous, :anonymous_reference, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// FindByID returns a complaint with its category and submitter names.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, complaintSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return &complaint, nil
}

// List returns one page of complaints matching filter plus the total count.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error) {
	where, args := complaintConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("%s %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d", complaintSelect, where, pageSize, offset)
	complaints := make([]models.Complaint, 0)
	if err := r.db.SelectContext(ctx, &complaints, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM complaints c "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	return complaints, total, nil
}

// ListAll returns up to limit complaints matching filter, newest first. Used by exports.
func (r *ComplaintRepository) ListAll(ctx context.Context, filter models.ComplaintFilter, limit int) ([]models.Complaint, error) {
	where, args := complaintConditions(filter)
	query := fmt.Sprintf("%s %s ORDER BY c.created_at DESC LIMIT %d", complaintSelect, where, limit)
	complaints := make([]models.Complaint, 0)
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("list complaints for export: %w", err)
	}
	return complaints, nil
}

func complaintConditions(filter models.ComplaintFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("c.status = ANY($%d)", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("c.priority = $%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("c.category_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("c.user_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.title) LIKE $%d OR LOWER(c.description) LIKE $%d OR LOWER(COALESCE(c.anonymous_reference, '')) LIKE $%d)", len(args), len(args), len(args)))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// ApplyTransition moves the complaint from t.From to t.To and appends the history row in
// one transaction. It returns sql.ErrNoRows when the stored status is no longer t.From.
func (r *ComplaintRepository) ApplyTransition(ctx context.Context, t models.ComplaintTransition) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complaint transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE complaints SET status = $1, updated_at = $2,
accepted_at = COALESCE($3, accepted_at), resolved_at = COALESCE($4, resolved_at),
closed_at = COALESCE($5, closed_at), resolution_notes = COALESCE($6, resolution_notes)
WHERE id = $7 AND status = $8`
	result, err := tx.ExecContext(ctx, updateQuery, t.To, t.ChangedAt, t.AcceptedAt, t.ResolvedAt, t.ClosedAt, t.ResolutionNotes, t.ComplaintID, t.From)
	if err != nil {
		return fmt.Errorf("update complaint status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check complaint update rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	const historyQuery = `INSERT INTO complaint_status_history (id, complaint_id, old_status, new_status, changed_by, changed_at, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.ExecContext(ctx, historyQuery, uuid.NewString(), t.ComplaintID, t.From, t.To, t.ChangedBy, t.ChangedAt, t.Notes); err != nil {
		return fmt.Errorf("insert complaint history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit complaint transition: %w", err)
	}
	return nil
}

// ListHistory returns the status history of a complaint, oldest first.
func (r *ComplaintRepository) ListHistory(ctx context.Context, complaintID string) ([]models.ComplaintStatusHistory, error) {
	const query = `SELECT h.id, h.complaint_id, h.old_status, h.new_status, h.changed_by, COALESCE(u.full_name, '') AS changed_by_name, h.changed_at, h.notes
FROM complaint_status_history h
LEFT JOIN users u ON u.id = h.changed_by
WHERE h.complaint_id = $1
ORDER BY h.changed_at ASC`
	history := make([]models.ComplaintStatusHistory, 0)
	if err := r.db.SelectContext(ctx, &history, query, complaintID); err != nil {
		return nil, fmt.Errorf("list complaint history: %w", err)
	}
	return history, nil
}

// UpdatePriority sets the priority. It returns sql.ErrNoRows when the complaint is missing.
func (r *ComplaintRepository) UpdatePriority(ctx context.Context, id string, priority models.ComplaintPriority, updatedAt time.Time) error {
	const query = `UPDATE complaints SET priority = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, priority, updatedAt)
	if err != nil {
		return fmt.Errorf("update complaint priority: %w", err)
	}
	return expectAffected(result, "complaint priority")
}

// UpdateRating stores the submitter's rating while the complaint is resolved or closed.
func (r *ComplaintRepository) UpdateRating(ctx context.Context, id string, rating int, feedback string, updatedAt time.Time) error {
	const query = `UPDATE complaints SET rating = $2, rating_feedback = $3, updated_at = $4
WHERE id = $1 AND status IN ('resolved', 'closed')`
	result, err := r.db.ExecContext(ctx, query, id, rating, feedback, updatedAt)
	if err != nil {
		return fmt.Errorf("update complaint rating: %w", err)
	}
	return expectAffected(result, "complaint rating")
}

// ReferenceExists reports whether an anonymous reference is already taken.
func (r *ComplaintRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM complaints WHERE anonymous_reference = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, reference); err != nil {
		return false, fmt.Errorf("check anonymous reference: %w", err)
	}
	return exists, nil
}

// Delete removes a resolved or closed complaint with its dependent rows.
func (r *ComplaintRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM complaints WHERE id = $1 AND status IN ('resolved', 'closed')`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	return expectAffected(result, "complaint delete")
}

// Statistics aggregates complaint counts for the dashboard.
func (r *ComplaintRepository) Statistics(ctx context.Context) (*models.ComplaintStatistics, error) {
	stats := &models.ComplaintStatistics{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	var byStatus []models.LabelCount
	if err := r.db.SelectContext(ctx, &byStatus, `SELECT status AS label, COUNT(*) AS count FROM complaints GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count complaints by status: %w", err)
	}
	for _, status := range models.ComplaintStatuses {
		stats.ByStatus[string(status)] = 0
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Label] = row.Count
		stats.Total += row.Count
	}

	var byPriority []models.LabelCount
	if err := r.db.SelectContext(ctx, &byPriority, `SELECT priority AS label, COUNT(*) AS count FROM complaints GROUP BY priority`); err != nil {
		return nil, fmt.Errorf("count complaints by priority: %w", err)
	}
	for _, priority := range models.ComplaintPriorities {
		stats.ByPriority[string(priority)] = 0
	}
	for _, row := range byPriority {
		stats.ByPriority[row.Label] = row.Count
	}

	const categoryQuery = `SELECT COALESCE(cat.name, 'Uncategorized') AS label, COUNT(*) AS count
FROM complaints c LEFT JOIN complaint_categories cat ON cat.id = c.category_id
GROUP BY COALESCE(cat.name, 'Uncategorized') ORDER BY count DESC, label ASC`
	stats.ByCategory = make([]models.LabelCount, 0)
	if err := r.db.SelectContext(ctx, &stats.ByCategory, categoryQuery); err != nil {
		return nil, fmt.Errorf("count complaints by category: %w", err)
	}

	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, `SELECT AVG(rating)::float8 FROM complaints WHERE rating IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("average complaint rating: %w", err)
	}
	if avg.Valid {
		value := avg.Float64
		stats.AverageRating = &value
	}
	return stats, nil
}

func expectAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
