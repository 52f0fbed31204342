package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/events"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/messaging"
)

// CreateBatchRequest is a new stock delivery
type CreateBatchRequest struct {
	MedicineID int64     `json:"medicine_id" validate:"required"`
	BatchNo    string    `json:"batch_no" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,gte=0"`
	ExpiryDate time.Time `json:"expiry_date" validate:"required"`
	UserID     *int64    `json:"-"`
}

// UpdateBatchRequest updates a batch; a quantity change is a correction
// and is recorded in the stock movement log.
type UpdateBatchRequest struct {
	BatchNo    string    `json:"batch_no" validate:"required"`
	Quantity   int       `json:"quantity" validate:"gte=0"`
	ExpiryDate time.Time `json:"expiry_date" validate:"required"`
	UserID     *int64    `json:"-"`
}

// BatchService manages stock batches
type BatchService struct {
	batches   *repository.BatchRepository
	medicines *repository.MedicineRepository
	stockLogs *repository.StockLogRepository
	events    *events.Publisher
	logger    *logger.Logger
}

// NewBatchService creates a new batch service
func NewBatchService(
	batches *repository.BatchRepository,
	medicines *repository.MedicineRepository,
	stockLogs *repository.StockLogRepository,
	pub *events.Publisher,
	log *logger.Logger,
) *BatchService {
	return &BatchService{
		batches:   batches,
		medicines: medicines,
		stockLogs: stockLogs,
		events:    pub,
		logger:    log,
	}
}

// List lists all batches with medicine names
func (s *BatchService) List(ctx context.Context) ([]*repository.BatchDetail, error) {
	return s.batches.List(ctx)
}

// ListByMedicine lists a medicine's batches
func (s *BatchService) ListByMedicine(ctx context.Context, medicineID int64) ([]*repository.Batch, error) {
	if _, err := s.medicines.GetByID(ctx, medicineID); err != nil {
		return nil, err
	}
	return s.batches.ListByMedicine(ctx, medicineID)
}

// Get gets a batch by ID
func (s *BatchService) Get(ctx context.Context, id int64) (*repository.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

// Create records a new delivery and logs the incoming stock
func (s *BatchService) Create(ctx context.Context, req *CreateBatchRequest) (*repository.Batch, error) {
	if _, err := s.medicines.GetByID(ctx, req.MedicineID); err != nil {
		return nil, err
	}

	batch := &repository.Batch{
		MedicineID: req.MedicineID,
		BatchNo:    req.BatchNo,
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	note := "New batch"
	batchID := batch.ID
	if err := s.stockLogs.Insert(ctx, &repository.StockLog{
		BatchID:        &batchID,
		Action:         repository.ActionIn,
		QuantityChange: batch.Quantity,
		Note:           &note,
		CreatedBy:      req.UserID,
	}); err != nil {
		s.logger.Error().Err(err).Int64("batch_id", batch.ID).Msg("failed to log batch receipt")
	}

	s.events.PublishBatchReceived(ctx, &messaging.BatchReceivedEvent{
		BatchID:    batch.ID,
		MedicineID: batch.MedicineID,
		BatchNo:    batch.BatchNo,
		Quantity:   batch.Quantity,
		ExpiryDate: batch.ExpiryDate,
		ReceivedBy: req.UserID,
	})

	return batch, nil
}

// Update applies a correction to a batch. A quantity change produces a
// movement tagged ADJUST whose magnitude is the absolute delta:
// an increase is stock entering (IN), a decrease is stock leaving (OUT).
func (s *BatchService) Update(ctx context.Context, id int64, req *UpdateBatchRequest) (*repository.Batch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldQuantity := batch.Quantity

	batch.BatchNo = req.BatchNo
	batch.Quantity = req.Quantity
	batch.ExpiryDate = req.ExpiryDate
	if err := s.batches.Update(ctx, batch); err != nil {
		return nil, err
	}

	if req.Quantity != oldQuantity {
		action := repository.ActionIn
		note := fmt.Sprintf("Increase: %d → %d", oldQuantity, req.Quantity)
		delta := req.Quantity - oldQuantity
		if delta < 0 {
			action = repository.ActionOut
			note = fmt.Sprintf("Decrease: %d → %d", oldQuantity, req.Quantity)
			delta = -delta
		}

		subAction := repository.SubActionAdjust
		batchID := batch.ID
		if err := s.stockLogs.Insert(ctx, &repository.StockLog{
			BatchID:        &batchID,
			Action:         action,
			SubAction:      &subAction,
			QuantityChange: delta,
			Note:           &note,
			CreatedBy:      req.UserID,
		}); err != nil {
			s.logger.Error().Err(err).Int64("batch_id", batch.ID).Msg("failed to log batch correction")
		}

		s.events.PublishStockAdjusted(ctx, &messaging.StockAdjustedEvent{
			BatchID:     batch.ID,
			MedicineID:  batch.MedicineID,
			OldQuantity: oldQuantity,
			NewQuantity: req.Quantity,
			AdjustedBy:  req.UserID,
		})
	}

	return batch, nil
}

// Delete removes a batch. Batches still holding stock cannot be deleted.
func (s *BatchService) Delete(ctx context.Context, id int64) error {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if batch.Quantity > 0 {
		return errors.BadRequest("cannot delete a batch that still has stock")
	}

	if err := s.batches.Delete(ctx, id); err != nil {
		return err
	}

	s.events.PublishBatchDeleted(ctx, &messaging.BatchDeletedEvent{
		BatchID:    batch.ID,
		MedicineID: batch.MedicineID,
	})

	return nil
}
