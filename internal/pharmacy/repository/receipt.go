package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// Receipt is the header of a dispense transaction
type Receipt struct {
	ID          int64     `db:"id" json:"id"`
	PatientName string    `db:"patient_name" json:"patient_name"`
	TotalItems  int       `db:"total_items" json:"total_items"`
	CreatedBy   *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ReceiptItem is one allocation line of a receipt. Price is the medicine
// unit price snapshotted at dispense time.
type ReceiptItem struct {
	ID        int64           `db:"id" json:"id"`
	ReceiptID int64           `db:"receipt_id" json:"receipt_id"`
	BatchID   int64           `db:"batch_id" json:"batch_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ReceiptItemDetail is a receipt line joined with its batch and medicine
type ReceiptItemDetail struct {
	ReceiptItem
	BatchNo      string    `db:"batch_no" json:"batch_no"`
	ExpiryDate   time.Time `db:"expiry_date" json:"expiry_date"`
	MedicineID   int64     `db:"medicine_id" json:"medicine_id"`
	MedicineName string    `db:"medicine_name" json:"medicine_name"`
}

// ReceiptDetail is a fully populated receipt
type ReceiptDetail struct {
	Receipt
	Username *string              `db:"username" json:"username,omitempty"`
	Items    []*ReceiptItemDetail `json:"items"`
}

// ReceiptRepository handles receipt reads
type ReceiptRepository struct {
	db *database.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *database.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// List lists receipts newest first, items included
func (r *ReceiptRepository) List(ctx context.Context) ([]*ReceiptDetail, error) {
	var receipts []*ReceiptDetail
	query := `
		SELECT r.*, u.username
		FROM receipts r
		LEFT JOIN users u ON u.id = r.created_by
		ORDER BY r.created_at DESC, r.id DESC
	`
	if err := r.db.SelectContext(ctx, &receipts, query); err != nil {
		return nil, err
	}

	for _, receipt := range receipts {
		items, err := r.listItems(ctx, receipt.ID)
		if err != nil {
			return nil, err
		}
		receipt.Items = items
	}

	return receipts, nil
}

// GetByID gets a receipt by ID, items included
func (r *ReceiptRepository) GetByID(ctx context.Context, id int64) (*ReceiptDetail, error) {
	var receipt ReceiptDetail
	query := `
		SELECT r.*, u.username
		FROM receipts r
		LEFT JOIN users u ON u.id = r.created_by
		WHERE r.id = $1
	`
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("receipt")
		}
		return nil, err
	}

	items, err := r.listItems(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}
	receipt.Items = items

	return &receipt, nil
}

func (r *ReceiptRepository) listItems(ctx context.Context, receiptID int64) ([]*ReceiptItemDetail, error) {
	var items []*ReceiptItemDetail
	query := `
		SELECT
			ri.*,
			b.batch_no,
			b.expiry_date,
			m.id AS medicine_id,
			m.name AS medicine_name
		FROM receipt_items ri
		JOIN batches b ON b.id = ri.batch_id
		JOIN medicines m ON m.id = b.medicine_id
		WHERE ri.receipt_id = $1
		ORDER BY ri.id
	`
	if err := r.db.SelectContext(ctx, &items, query, receiptID); err != nil {
		return nil, err
	}
	return items, nil
}
