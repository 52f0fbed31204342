package service

import (
	"context"
	"strings"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// UnitRequest creates or updates a unit
type UnitRequest struct {
	Name string `json:"name" validate:"required"`
}

// ReferenceService manages categories and units
type ReferenceService struct {
	categories *repository.CategoryRepository
	units      *repository.UnitRepository
	logger     *logger.Logger
}

// NewReferenceService creates a new reference-data service
func NewReferenceService(categories *repository.CategoryRepository, units *repository.UnitRepository, log *logger.Logger) *ReferenceService {
	return &ReferenceService{
		categories: categories,
		units:      units,
		logger:     log,
	}
}

// ListCategories lists active categories
func (s *ReferenceService) ListCategories(ctx context.Context) ([]*repository.Category, error) {
	return s.categories.List(ctx)
}

// GetCategory gets a category by ID
func (s *ReferenceService) GetCategory(ctx context.Context, id int64) (*repository.Category, error) {
	return s.categories.GetByID(ctx, id)
}

// CreateCategory creates a category, rejecting duplicate names
func (s *ReferenceService) CreateCategory(ctx context.Context, req *CategoryRequest) (*repository.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("category name must not be empty")
	}

	if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil {
		return nil, errors.Conflict("a category with this name already exists")
	}

	c := &repository.Category{
		Name:        name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory updates a category
func (s *ReferenceService) UpdateCategory(ctx context.Context, id int64, req *CategoryRequest) (*repository.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("category name must not be empty")
	}
	if name != c.Name {
		if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil {
			return nil, errors.Conflict("a category with this name already exists")
		}
	}

	c.Name = name
	c.Description = req.Description
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory deactivates a category. Medicines keep their reference
// so historical data stays intact.
func (s *ReferenceService) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.Deactivate(ctx, id)
}

// ListUnits lists units ordered by name
func (s *ReferenceService) ListUnits(ctx context.Context) ([]*repository.Unit, error) {
	return s.units.List(ctx)
}

// GetUnit gets a unit by ID
func (s *ReferenceService) GetUnit(ctx context.Context, id int64) (*repository.Unit, error) {
	return s.units.GetByID(ctx, id)
}

// CreateUnit creates a unit, rejecting duplicate names
func (s *ReferenceService) CreateUnit(ctx context.Context, req *UnitRequest) (*repository.Unit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("unit name must not be empty")
	}

	if existing, err := s.units.GetByName(ctx, name); err == nil && existing != nil {
		return nil, errors.Conflict("a unit with this name already exists")
	}

	u := &repository.Unit{Name: name}
	if err := s.units.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUnit updates a unit
func (s *ReferenceService) UpdateUnit(ctx context.Context, id int64, req *UnitRequest) (*repository.Unit, error) {
	u, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("unit name must not be empty")
	}
	if name != u.Name {
		if existing, err := s.units.GetByName(ctx, name); err == nil && existing != nil {
			return nil, errors.Conflict("a unit with this name already exists")
		}
	}

	u.Name = name
	if err := s.units.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUnit deletes a unit
func (s *ReferenceService) DeleteUnit(ctx context.Context, id int64) error {
	return s.units.Delete(ctx, id)
}
