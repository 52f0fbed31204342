package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/events"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/messaging"
)

// DefaultPatientName is used when a dispense request names no patient
const DefaultPatientName = "Walk-in Customer"

// Ledger is the slice of the inventory store the allocation loop needs.
// In production it is a repository.DispenseStore bound to one open
// transaction; tests substitute an in-memory fake.
type Ledger interface {
	FindMedicine(ctx context.Context, id int64) (*repository.Medicine, error)
	FindUser(ctx context.Context, id int64) (*repository.User, error)
	ListAllocatableBatches(ctx context.Context, medicineID int64, asOf time.Time) ([]*repository.AllocatableBatch, error)
	DecrementBatch(ctx context.Context, batchID int64, qty int) error
	InsertReceipt(ctx context.Context, r *repository.Receipt) error
	InsertReceiptItem(ctx context.Context, item *repository.ReceiptItem) error
	InsertStockLog(ctx context.Context, l *repository.StockLog) error
}

// InsufficientStockError reports a dispense line that cannot be covered
// by non-expired stock. It aborts the whole dispense transaction.
type InsufficientStockError struct {
	MedicineID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for medicine id %d", e.MedicineID)
}

// DispenseItem is one requested line of a dispense
type DispenseItem struct {
	MedicineID int64 `json:"medicine_id" validate:"required"`
	Quantity   int   `json:"quantity" validate:"required,gt=0"`
}

// DispenseRequest is a multi-item dispense
type DispenseRequest struct {
	PatientName string         `json:"patient_name"`
	Items       []DispenseItem `json:"items" validate:"required,min=1,dive"`
	UserID      *int64         `json:"-"`
}

// DispenseService runs the first-expiry-first-out dispense engine
type DispenseService struct {
	db       *database.DB
	receipts *repository.ReceiptRepository
	events   *events.Publisher
	logger   *logger.Logger
	now      func() time.Time
}

// NewDispenseService creates a new dispense service
func NewDispenseService(db *database.DB, receipts *repository.ReceiptRepository, pub *events.Publisher, log *logger.Logger) *DispenseService {
	return &DispenseService{
		db:       db,
		receipts: receipts,
		events:   pub,
		logger:   log,
		now:      time.Now,
	}
}

// Dispense allocates stock for every requested line in one transaction.
// Batches are consumed soonest-expiry-first; expired batches never
// participate. Any shortfall rolls the whole transaction back.
func (s *DispenseService) Dispense(ctx context.Context, req *DispenseRequest) (*repository.ReceiptDetail, error) {
	if len(req.Items) == 0 {
		return nil, errors.BadRequest("no items to dispense")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, errors.BadRequest("quantity must be greater than zero")
		}
	}

	var (
		receiptID int64
		lines     []messaging.DispensedLine
	)

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		store := repository.NewDispenseStore(tx)
		id, allocated, err := Allocate(ctx, store, req, s.now())
		if err != nil {
			return err
		}
		receiptID = id
		lines = allocated
		return nil
	})
	if err != nil {
		return nil, err
	}

	receipt, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	s.events.PublishStockDispensed(ctx, &messaging.StockDispensedEvent{
		ReceiptID:   receipt.ID,
		PatientName: receipt.PatientName,
		TotalItems:  receipt.TotalItems,
		Lines:       lines,
		DispensedBy: req.UserID,
	})

	s.logger.Info().
		Int64("receipt_id", receipt.ID).
		Int("total_items", receipt.TotalItems).
		Int("lines", len(lines)).
		Msg("dispense completed")

	return receipt, nil
}

// Allocate runs the greedy first-expiry-first-out walk for every
// requested line against the given ledger. The caller owns the
// surrounding transaction. Returns the new receipt ID and the
// allocations that were made.
func Allocate(ctx context.Context, ledger Ledger, req *DispenseRequest, asOf time.Time) (int64, []messaging.DispensedLine, error) {
	// Resolve every medicine up front so an unknown ID fails before
	// any stock moves.
	for _, item := range req.Items {
		if _, err := ledger.FindMedicine(ctx, item.MedicineID); err != nil {
			return 0, nil, err
		}
	}

	if req.UserID != nil {
		if _, err := ledger.FindUser(ctx, *req.UserID); err != nil {
			return 0, nil, err
		}
	}

	patientName := req.PatientName
	if patientName == "" {
		patientName = DefaultPatientName
	}

	totalItems := 0
	for _, item := range req.Items {
		totalItems += item.Quantity
	}

	receipt := &repository.Receipt{
		PatientName: patientName,
		TotalItems:  totalItems,
		CreatedBy:   req.UserID,
	}
	if err := ledger.InsertReceipt(ctx, receipt); err != nil {
		return 0, nil, err
	}

	dispenseNote := "Dispense"
	var lines []messaging.DispensedLine

	for _, item := range req.Items {
		batches, err := ledger.ListAllocatableBatches(ctx, item.MedicineID, asOf)
		if err != nil {
			return 0, nil, err
		}

		remaining := item.Quantity
		for _, batch := range batches {
			if remaining == 0 {
				break
			}
			deduct := batch.Quantity
			if deduct > remaining {
				deduct = remaining
			}
			if deduct == 0 {
				continue
			}

			if err := ledger.DecrementBatch(ctx, batch.ID, deduct); err != nil {
				return 0, nil, err
			}

			batchID := batch.ID
			if err := ledger.InsertStockLog(ctx, &repository.StockLog{
				BatchID:        &batchID,
				Action:         repository.ActionOut,
				QuantityChange: deduct,
				Note:           &dispenseNote,
				CreatedBy:      req.UserID,
			}); err != nil {
				return 0, nil, err
			}

			if err := ledger.InsertReceiptItem(ctx, &repository.ReceiptItem{
				ReceiptID: receipt.ID,
				BatchID:   batch.ID,
				Quantity:  deduct,
				Price:     batch.Price,
			}); err != nil {
				return 0, nil, err
			}

			lines = append(lines, messaging.DispensedLine{
				MedicineID: item.MedicineID,
				BatchID:    batch.ID,
				Quantity:   deduct,
				Price:      batch.Price,
			})

			remaining -= deduct
		}

		if remaining > 0 {
			return 0, nil, &InsufficientStockError{MedicineID: item.MedicineID}
		}
	}

	return receipt.ID, lines, nil
}
