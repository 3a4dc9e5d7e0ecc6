package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/speaker-match-api/internal/models"
)

// IndustryRepository manages the industry focus vocabulary.
type IndustryRepository struct {
	db *sqlx.DB
}

// NewIndustryRepository constructs an IndustryRepository.
func NewIndustryRepository(db *sqlx.DB) *IndustryRepository {
	return &IndustryRepository{db: db}
}

// List returns industry focuses ordered by name.
func (r *IndustryRepository) List(ctx context.Context, filter models.IndustryFilter) ([]models.IndustryFocus, error) {
	query := "SELECT id, name, active, created_at, updated_at FROM industry_focuses"
	var args []interface{}
	if filter.Active != nil {
		query += " WHERE active = $1"
		args = append(args, *filter.Active)
	}
	query += " ORDER BY name ASC"

	industries := []models.IndustryFocus{}
	if err := r.db.SelectContext(ctx, &industries, query, args...); err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	return industries, nil
}

// FindByID fetches an industry focus by ID.
func (r *IndustryRepository) FindByID(ctx context.Context, id string) (*models.IndustryFocus, error) {
	const query = `SELECT id, name, active, created_at, updated_at FROM industry_focuses WHERE id = $1`
	var industry models.IndustryFocus
	if err := r.db.GetContext(ctx, &industry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find industry: %w", err)
	}
	return &industry, nil
}

// ExistsByName checks case-insensitively whether another entry uses the name.
func (r *IndustryRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM industry_focuses WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check industry name: %w", err)
	}
	return true, nil
}

// Create inserts a new industry focus.
func (r *IndustryRepository) Create(ctx context.Context, industry *models.IndustryFocus) error {
	if industry.ID == "" {
		industry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if industry.CreatedAt.IsZero() {
		industry.CreatedAt = now
	}
	industry.UpdatedAt = now

	const query = `INSERT INTO industry_focuses (id, name, active, created_at, updated_at) VALUES (:id, :name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, industry); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create industry: %w", err)
	}
	return nil
}

// Update renames or reactivates an industry focus.
func (r *IndustryRepository) Update(ctx context.Context, industry *models.IndustryFocus) error {
	industry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE industry_focuses SET name = :name, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, industry); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update industry: %w", err)
	}
	return nil
}

// Archive marks an industry focus inactive. Speaker profiles keep the name.
func (r *IndustryRepository) Archive(ctx context.Context, id string) error {
	const query = `UPDATE industry_focuses SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("archive industry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
