package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// Medicine represents a medicine in the catalog
type Medicine struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Supplier    *string         `db:"supplier" json:"supplier,omitempty"`
	ImageURL    *string         `db:"image_url" json:"image_url,omitempty"`
	CategoryID  *int64          `db:"category_id" json:"category_id,omitempty"`
	UnitID      *int64          `db:"unit_id" json:"unit_id,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// MedicineStock is a medicine row joined with batch stock aggregates.
// TotalStock and NearestExpiry only consider non-expired batches.
type MedicineStock struct {
	Medicine
	CategoryName  *string    `db:"category_name" json:"category_name,omitempty"`
	UnitName      *string    `db:"unit_name" json:"unit_name,omitempty"`
	TotalStock    int        `db:"total_stock" json:"total_stock"`
	ExpiredStock  int        `db:"expired_stock" json:"expired_stock"`
	NearestExpiry *time.Time `db:"nearest_expiry" json:"nearest_expiry,omitempty"`
}

// MedicineRepository handles medicine persistence
type MedicineRepository struct {
	db *database.DB
}

// NewMedicineRepository creates a new medicine repository
func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

// Create creates a new medicine
func (r *MedicineRepository) Create(ctx context.Context, m *Medicine) error {
	query := `
		INSERT INTO medicines (
			name, description, price, supplier, image_url, category_id, unit_id, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.Name, m.Description, m.Price, m.Supplier, m.ImageURL,
		m.CategoryID, m.UnitID, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a medicine by ID
func (r *MedicineRepository) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	var m Medicine
	query := `SELECT * FROM medicines WHERE id = $1`
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &m, nil
}

// GetByName gets a medicine by exact name
func (r *MedicineRepository) GetByName(ctx context.Context, name string) (*Medicine, error) {
	var m Medicine
	query := `SELECT * FROM medicines WHERE name = $1`
	if err := r.db.GetContext(ctx, &m, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &m, nil
}

// ListWithStock lists medicines with batch stock aggregates.
// When expiredOnly is true, only medicines holding expired stock are returned.
func (r *MedicineRepository) ListWithStock(ctx context.Context, expiredOnly bool) ([]*MedicineStock, error) {
	query := `
		SELECT
			m.*,
			c.name AS category_name,
			u.name AS unit_name,
			COALESCE(SUM(b.quantity) FILTER (WHERE b.expiry_date >= NOW()), 0) AS total_stock,
			COALESCE(SUM(b.quantity) FILTER (WHERE b.expiry_date < NOW()), 0) AS expired_stock,
			MIN(b.expiry_date) FILTER (WHERE b.expiry_date >= NOW() AND b.quantity > 0) AS nearest_expiry
		FROM medicines m
		LEFT JOIN categories c ON c.id = m.category_id
		LEFT JOIN units u ON u.id = m.unit_id
		LEFT JOIN batches b ON b.medicine_id = m.id
		GROUP BY m.id, c.name, u.name
	`
	if expiredOnly {
		query += ` HAVING COALESCE(SUM(b.quantity) FILTER (WHERE b.expiry_date < NOW()), 0) > 0`
	}
	query += ` ORDER BY m.name`

	var rows []*MedicineStock
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update updates a medicine
func (r *MedicineRepository) Update(ctx context.Context, m *Medicine) error {
	query := `
		UPDATE medicines SET
			name = $2, description = $3, price = $4, supplier = $5,
			image_url = $6, category_id = $7, unit_id = $8, is_active = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.Name, m.Description, m.Price, m.Supplier,
		m.ImageURL, m.CategoryID, m.UnitID, m.IsActive,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("medicine")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// Delete deletes a medicine
func (r *MedicineRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM medicines WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("medicine")
	}

	return nil
}

// TotalStock returns the summed quantity across all batches of a medicine,
// expired stock included. Used to guard deletion.
func (r *MedicineRepository) TotalStock(ctx context.Context, id int64) (int, error) {
	var total sql.NullInt64
	query := `SELECT SUM(quantity) FROM batches WHERE medicine_id = $1`
	if err := r.db.GetContext(ctx, &total, query, id); err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return int(total.Int64), nil
}
