package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// Unit is a dosage/packaging unit (tablet, bottle, strip, ...)
type Unit struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UnitRepository handles unit persistence
type UnitRepository struct {
	db *database.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *database.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// Create creates a new unit
func (r *UnitRepository) Create(ctx context.Context, u *Unit) error {
	query := `
		INSERT INTO units (name)
		VALUES ($1)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, u.Name).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a unit by ID
func (r *UnitRepository) GetByID(ctx context.Context, id int64) (*Unit, error) {
	var u Unit
	query := `SELECT * FROM units WHERE id = $1`
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("unit")
		}
		return nil, err
	}
	return &u, nil
}

// GetByName gets a unit by exact name
func (r *UnitRepository) GetByName(ctx context.Context, name string) (*Unit, error) {
	var u Unit
	query := `SELECT * FROM units WHERE name = $1`
	if err := r.db.GetContext(ctx, &u, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("unit")
		}
		return nil, err
	}
	return &u, nil
}

// List lists units ordered by name
func (r *UnitRepository) List(ctx context.Context) ([]*Unit, error) {
	var units []*Unit
	query := `SELECT * FROM units ORDER BY name`
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, err
	}
	return units, nil
}

// Update updates a unit
func (r *UnitRepository) Update(ctx context.Context, u *Unit) error {
	query := `UPDATE units SET name = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, u.ID, u.Name)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("unit")
	}

	return nil
}

// Delete deletes a unit
func (r *UnitRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM units WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("unit")
	}

	return nil
}
