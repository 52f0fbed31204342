package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// Batch represents a stock batch of a medicine
type Batch struct {
	ID         int64     `db:"id" json:"id"`
	MedicineID int64     `db:"medicine_id" json:"medicine_id"`
	BatchNo    string    `db:"batch_no" json:"batch_no"`
	Quantity   int       `db:"quantity" json:"quantity"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiry_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// BatchDetail is a batch joined with its medicine name
type BatchDetail struct {
	Batch
	MedicineName string `db:"medicine_name" json:"medicine_name"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, b *Batch) error {
	query := `
		INSERT INTO batches (medicine_id, batch_no, quantity, expiry_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		b.MedicineID, b.BatchNo, b.Quantity, b.ExpiryDate,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*Batch, error) {
	var b Batch
	query := `SELECT * FROM batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &b, nil
}

// List lists all batches joined with their medicine names, soonest expiry first
func (r *BatchRepository) List(ctx context.Context) ([]*BatchDetail, error) {
	var batches []*BatchDetail
	query := `
		SELECT b.*, m.name AS medicine_name
		FROM batches b
		JOIN medicines m ON m.id = b.medicine_id
		ORDER BY b.expiry_date
	`
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListByMedicine lists batches for a medicine, soonest expiry first
func (r *BatchRepository) ListByMedicine(ctx context.Context, medicineID int64) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE medicine_id = $1
		ORDER BY expiry_date
	`
	if err := r.db.SelectContext(ctx, &batches, query, medicineID); err != nil {
		return nil, err
	}
	return batches, nil
}

// Update updates a batch
func (r *BatchRepository) Update(ctx context.Context, b *Batch) error {
	query := `
		UPDATE batches SET
			batch_no = $2, quantity = $3, expiry_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID, b.BatchNo, b.Quantity, b.ExpiryDate,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("batch")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// Delete deletes a batch
func (r *BatchRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM batches WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}
