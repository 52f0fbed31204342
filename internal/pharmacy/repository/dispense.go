package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// AllocatableBatch is a batch eligible for dispensing, joined with the
// medicine's current unit price for the receipt-line snapshot.
type AllocatableBatch struct {
	ID         int64           `db:"id"`
	MedicineID int64           `db:"medicine_id"`
	BatchNo    string          `db:"batch_no"`
	Quantity   int             `db:"quantity"`
	ExpiryDate time.Time       `db:"expiry_date"`
	Price      decimal.Decimal `db:"price"`
}

// DispenseStore binds the inventory ledger to one open transaction.
// Every method runs on the same *sqlx.Tx so a failed dispense rolls
// back all of its writes together.
type DispenseStore struct {
	tx *sqlx.Tx
}

// NewDispenseStore creates a dispense store over an open transaction
func NewDispenseStore(tx *sqlx.Tx) *DispenseStore {
	return &DispenseStore{tx: tx}
}

// FindMedicine looks up a medicine by ID
func (s *DispenseStore) FindMedicine(ctx context.Context, id int64) (*Medicine, error) {
	var m Medicine
	query := `SELECT * FROM medicines WHERE id = $1`
	if err := s.tx.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &m, nil
}

// FindUser looks up a user by ID
func (s *DispenseStore) FindUser(ctx context.Context, id int64) (*User, error) {
	var u User
	query := `SELECT * FROM users WHERE id = $1`
	if err := s.tx.GetContext(ctx, &u, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// ListAllocatableBatches returns the medicine's batches that have not
// expired as of asOf, soonest expiry first. asOf is compared at date
// precision, so a batch expiring that day still qualifies. Rows are
// locked FOR UPDATE so concurrent dispenses serialize per batch.
func (s *DispenseStore) ListAllocatableBatches(ctx context.Context, medicineID int64, asOf time.Time) ([]*AllocatableBatch, error) {
	var batches []*AllocatableBatch
	query := `
		SELECT b.id, b.medicine_id, b.batch_no, b.quantity, b.expiry_date, m.price
		FROM batches b
		JOIN medicines m ON m.id = b.medicine_id
		WHERE b.medicine_id = $1 AND b.expiry_date >= $2::date
		ORDER BY b.expiry_date ASC, b.id ASC
		FOR UPDATE OF b
	`
	if err := s.tx.SelectContext(ctx, &batches, query, medicineID, asOf); err != nil {
		return nil, err
	}
	return batches, nil
}

// DecrementBatch deducts qty from a batch. The quantity guard in the
// WHERE clause keeps the stored quantity from ever going negative; a
// zero row count means the batch no longer covers the deduction.
func (s *DispenseStore) DecrementBatch(ctx context.Context, batchID int64, qty int) error {
	query := `
		UPDATE batches
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
	`
	result, err := s.tx.ExecContext(ctx, query, batchID, qty)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("batch quantity changed concurrently")
	}

	return nil
}

// InsertReceipt creates the receipt shell
func (s *DispenseStore) InsertReceipt(ctx context.Context, r *Receipt) error {
	query := `
		INSERT INTO receipts (patient_name, total_items, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return s.tx.QueryRowxContext(ctx, query,
		r.PatientName, r.TotalItems, r.CreatedBy,
	).Scan(&r.ID, &r.CreatedAt)
}

// InsertReceiptItem records one allocation line
func (s *DispenseStore) InsertReceiptItem(ctx context.Context, item *ReceiptItem) error {
	query := `
		INSERT INTO receipt_items (receipt_id, batch_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return s.tx.QueryRowxContext(ctx, query,
		item.ReceiptID, item.BatchID, item.Quantity, item.Price,
	).Scan(&item.ID, &item.CreatedAt)
}

// InsertStockLog appends a stock movement entry inside the transaction
func (s *DispenseStore) InsertStockLog(ctx context.Context, l *StockLog) error {
	query := `
		INSERT INTO stock_logs (batch_id, action, sub_action, quantity_change, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return s.tx.QueryRowxContext(ctx, query,
		l.BatchID, l.Action, l.SubAction, l.QuantityChange, l.Note, l.CreatedBy,
	).Scan(&l.ID, &l.CreatedAt)
}
