package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// Category groups medicines
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryRepository handles category persistence
type CategoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		c.Name, c.Description, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	query := `SELECT * FROM categories WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("category")
		}
		return nil, err
	}
	return &c, nil
}

// GetByName gets a category by exact name
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*Category, error) {
	var c Category
	query := `SELECT * FROM categories WHERE name = $1`
	if err := r.db.GetContext(ctx, &c, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("category")
		}
		return nil, err
	}
	return &c, nil
}

// List lists active categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	query := `SELECT * FROM categories WHERE is_active = true ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

// Update updates a category
func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories SET
			name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID, c.Name, c.Description, c.IsActive,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("category")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// Deactivate soft-deletes a category. Medicines keep their reference.
func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE categories SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("category")
	}

	return nil
}
