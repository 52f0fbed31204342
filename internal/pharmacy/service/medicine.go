package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/events"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/messaging"
)

// MedicineRequest creates or updates a medicine
type MedicineRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Supplier    *string         `json:"supplier"`
	ImageURL    *string         `json:"image_url"`
	CategoryID  *int64          `json:"category_id"`
	UnitID      *int64          `json:"unit_id"`
	IsActive    *bool           `json:"is_active"`
}

// MedicineService manages the medicine catalog
type MedicineService struct {
	medicines *repository.MedicineRepository
	batches   *repository.BatchRepository
	events    *events.Publisher
	logger    *logger.Logger
}

// NewMedicineService creates a new medicine service
func NewMedicineService(
	medicines *repository.MedicineRepository,
	batches *repository.BatchRepository,
	pub *events.Publisher,
	log *logger.Logger,
) *MedicineService {
	return &MedicineService{
		medicines: medicines,
		batches:   batches,
		events:    pub,
		logger:    log,
	}
}

// List lists medicines with stock aggregates and their batches.
// With expiredOnly, only medicines still holding expired stock appear.
func (s *MedicineService) List(ctx context.Context, expiredOnly bool) ([]*MedicineSummary, error) {
	rows, err := s.medicines.ListWithStock(ctx, expiredOnly)
	if err != nil {
		return nil, err
	}

	summaries := make([]*MedicineSummary, 0, len(rows))
	for _, row := range rows {
		batches, err := s.batches.ListByMedicine(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &MedicineSummary{
			MedicineStock: *row,
			Batches:       batches,
		})
	}

	return summaries, nil
}

// MedicineSummary is a medicine with aggregates and embedded batches
type MedicineSummary struct {
	repository.MedicineStock
	Batches []*repository.Batch `json:"batches"`
}

// Get gets a medicine by ID
func (s *MedicineService) Get(ctx context.Context, id int64) (*repository.Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

// Create creates a new medicine
func (s *MedicineService) Create(ctx context.Context, req *MedicineRequest) (*repository.Medicine, error) {
	m := &repository.Medicine{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Supplier:    req.Supplier,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		UnitID:      req.UnitID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.medicines.Create(ctx, m); err != nil {
		return nil, err
	}

	s.events.PublishMedicineCreated(ctx, &messaging.MedicineCreatedEvent{
		MedicineID: m.ID,
		Name:       m.Name,
		Price:      m.Price,
		CategoryID: m.CategoryID,
	})

	return m, nil
}

// Update updates a medicine
func (s *MedicineService) Update(ctx context.Context, id int64, req *MedicineRequest) (*repository.Medicine, error) {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Name = req.Name
	m.Description = req.Description
	m.Price = req.Price
	m.Supplier = req.Supplier
	if req.ImageURL != nil {
		m.ImageURL = req.ImageURL
	}
	m.CategoryID = req.CategoryID
	m.UnitID = req.UnitID
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.medicines.Update(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Delete removes a medicine. Medicines with remaining stock, expired
// included, cannot be deleted.
func (s *MedicineService) Delete(ctx context.Context, id int64) error {
	if _, err := s.medicines.GetByID(ctx, id); err != nil {
		return err
	}

	stock, err := s.medicines.TotalStock(ctx, id)
	if err != nil {
		return err
	}
	if stock > 0 {
		return errors.BadRequest("cannot delete a medicine that still has stock")
	}

	return s.medicines.Delete(ctx, id)
}
