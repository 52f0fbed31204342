package service

import (
	"context"
	"time"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

const (
	expiryWindow      = 30 * 24 * time.Hour
	lowStockThreshold = 10
)

// DashboardStats is the inventory overview served to the dashboard
type DashboardStats struct {
	repository.StockTotals
	ReceiptsToday int                         `json:"receipts_today"`
	Categories    []*repository.CategoryStock `json:"categories"`
}

// DashboardService computes inventory overview figures
type DashboardService struct {
	dashboard *repository.DashboardRepository
	logger    *logger.Logger
	now       func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(dashboard *repository.DashboardRepository, log *logger.Logger) *DashboardService {
	return &DashboardService{
		dashboard: dashboard,
		logger:    log,
		now:       time.Now,
	}
}

// Stats assembles the dashboard overview
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	asOf := s.now()

	totals, err := s.dashboard.Totals(ctx, asOf, expiryWindow, lowStockThreshold)
	if err != nil {
		return nil, err
	}

	categories, err := s.dashboard.ByCategory(ctx, asOf)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	receiptsToday, err := s.dashboard.ReceiptsSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		StockTotals:   *totals,
		ReceiptsToday: receiptsToday,
		Categories:    categories,
	}, nil
}
