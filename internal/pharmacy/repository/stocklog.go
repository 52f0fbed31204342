package repository

import (
	"context"
	"time"

	"github.com/pharmadesk/pharmacy-backend/pkg/database"
)

// Stock movement actions. A movement is either stock entering (IN) or
// leaving (OUT); SubActionAdjust marks movements caused by a direct
// quantity correction rather than a receipt or dispense.
const (
	ActionIn  = "IN"
	ActionOut = "OUT"

	SubActionAdjust = "ADJUST"
)

// StockLog is one entry in the append-only stock movement log
type StockLog struct {
	ID             int64     `db:"id" json:"id"`
	BatchID        *int64    `db:"batch_id" json:"batch_id,omitempty"`
	Action         string    `db:"action" json:"action"`
	SubAction      *string   `db:"sub_action" json:"sub_action,omitempty"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	Note           *string   `db:"note" json:"note,omitempty"`
	CreatedBy      *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ActionTag returns the movement action joined with its sub-action,
// e.g. "OUT,ADJUST". Exposed for display and filter compatibility.
func (l *StockLog) ActionTag() string {
	if l.SubAction == nil || *l.SubAction == "" {
		return l.Action
	}
	return l.Action + "," + *l.SubAction
}

// StockLogDetail is a stock log entry joined with batch, medicine and actor
type StockLogDetail struct {
	StockLog
	BatchNo      *string `db:"batch_no" json:"batch_no,omitempty"`
	MedicineName *string `db:"medicine_name" json:"medicine_name,omitempty"`
	Username     *string `db:"username" json:"username,omitempty"`
}

// StockLogRepository handles stock movement persistence
type StockLogRepository struct {
	db *database.DB
}

// NewStockLogRepository creates a new stock log repository
func NewStockLogRepository(db *database.DB) *StockLogRepository {
	return &StockLogRepository{db: db}
}

// Insert appends a stock movement entry
func (r *StockLogRepository) Insert(ctx context.Context, l *StockLog) error {
	query := `
		INSERT INTO stock_logs (batch_id, action, sub_action, quantity_change, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		l.BatchID, l.Action, l.SubAction, l.QuantityChange, l.Note, l.CreatedBy,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// List lists stock movements newest first
func (r *StockLogRepository) List(ctx context.Context) ([]*StockLogDetail, error) {
	var logs []*StockLogDetail
	query := `
		SELECT
			l.*,
			b.batch_no,
			m.name AS medicine_name,
			u.username
		FROM stock_logs l
		LEFT JOIN batches b ON b.id = l.batch_id
		LEFT JOIN medicines m ON m.id = b.medicine_id
		LEFT JOIN users u ON u.id = l.created_by
		ORDER BY l.created_at DESC, l.id DESC
	`
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListByBatch lists stock movements for one batch, newest first
func (r *StockLogRepository) ListByBatch(ctx context.Context, batchID int64) ([]*StockLogDetail, error) {
	var logs []*StockLogDetail
	query := `
		SELECT
			l.*,
			b.batch_no,
			m.name AS medicine_name,
			u.username
		FROM stock_logs l
		LEFT JOIN batches b ON b.id = l.batch_id
		LEFT JOIN medicines m ON m.id = b.medicine_id
		LEFT JOIN users u ON u.id = l.created_by
		WHERE l.batch_id = $1
		ORDER BY l.created_at DESC, l.id DESC
	`
	if err := r.db.SelectContext(ctx, &logs, query, batchID); err != nil {
		return nil, err
	}
	return logs, nil
}
