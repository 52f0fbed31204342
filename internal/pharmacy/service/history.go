package service

import (
	"context"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

// HistoryService serves the stock movement log and dispense receipts
type HistoryService struct {
	stockLogs *repository.StockLogRepository
	receipts  *repository.ReceiptRepository
	logger    *logger.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(stockLogs *repository.StockLogRepository, receipts *repository.ReceiptRepository, log *logger.Logger) *HistoryService {
	return &HistoryService{
		stockLogs: stockLogs,
		receipts:  receipts,
		logger:    log,
	}
}

// StockLogs lists stock movements, newest first
func (s *HistoryService) StockLogs(ctx context.Context) ([]*repository.StockLogDetail, error) {
	return s.stockLogs.List(ctx)
}

// StockLogsByBatch lists one batch's movements, newest first
func (s *HistoryService) StockLogsByBatch(ctx context.Context, batchID int64) ([]*repository.StockLogDetail, error) {
	return s.stockLogs.ListByBatch(ctx, batchID)
}

// Receipts lists receipts with their line items, newest first
func (s *HistoryService) Receipts(ctx context.Context) ([]*repository.ReceiptDetail, error) {
	return s.receipts.List(ctx)
}

// Receipt gets one receipt with its line items
func (s *HistoryService) Receipt(ctx context.Context, id int64) (*repository.ReceiptDetail, error) {
	return s.receipts.GetByID(ctx, id)
}
