package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barangay-api/internal/models"
)

// ComplaintCategoryRepository reads the seeded complaint categories.
type ComplaintCategoryRepository struct {
	db *sqlx.DB
}

// NewComplaintCategoryRepository creates a new ComplaintCategoryRepository.
func NewComplaintCategoryRepository(db *sqlx.DB) *ComplaintCategoryRepository {
	return &ComplaintCategoryRepository{db: db}
}

// List returns every category ordered by name.
func (r *ComplaintCategoryRepository) List(ctx context.Context) ([]models.ComplaintCategory, error) {
	categories := make([]models.ComplaintCategory, 0)
	if err := r.db.SelectContext(ctx, &categories, `SELECT id, name, description, icon FROM complaint_categories ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list complaint categories: %w", err)
	}
	return categories, nil
}

// Exists reports whether the category id is known.
func (r *ComplaintCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var found int64
	if err := r.db.GetContext(ctx, &found, `SELECT id FROM complaint_categories WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("find complaint category: %w", err)
	}
	return true, nil
}
