package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/events"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/messaging"
)

// Import types decide which part of a parsed row is replayed on confirm.
const (
	ImportMedicineAndBatch = "medicine_and_batch"
	ImportMedicineOnly     = "medicine_only"
	ImportBatchOnly        = "batch_only"
)

// PreviewCache holds parsed imports between parse and confirm.
// Satisfied by pkg/cache.Cache.
type PreviewCache interface {
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
}

// ImportRow is one parsed data row of an uploaded spreadsheet
type ImportRow struct {
	Row         int             `json:"row"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Unit        *string         `json:"unit,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Supplier    *string         `json:"supplier,omitempty"`
	BatchNo     *string         `json:"batch_no,omitempty"`
	Quantity    *int            `json:"quantity,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Error       *string         `json:"error,omitempty"`
}

// ImportPreview is returned to the client after parsing
type ImportPreview struct {
	ImportKey string       `json:"import_key"`
	Rows      []*ImportRow `json:"rows"`
	Valid     int          `json:"valid"`
	Invalid   int          `json:"invalid"`
}

// ConfirmImportRequest replays a cached preview
type ConfirmImportRequest struct {
	ImportKey  string `json:"import_key" validate:"required"`
	ImportType string `json:"import_type" validate:"required,oneof=medicine_and_batch medicine_only batch_only"`
	// Rows restricts the confirm to the given row numbers; empty means all valid rows
	Rows   []int  `json:"rows"`
	UserID *int64 `json:"-"`
}

// RowResult reports the outcome of one confirmed row
type RowResult struct {
	Row    int     `json:"row"`
	Status string  `json:"status"` // created | updated | error
	Error  *string `json:"error,omitempty"`
}

// ImportResult summarizes a confirmed import
type ImportResult struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Failed  int          `json:"failed"`
	Results []*RowResult `json:"results"`
}

// ImportService parses Excel uploads and replays them into the catalog
type ImportService struct {
	medicines  *repository.MedicineRepository
	categories *repository.CategoryRepository
	units      *repository.UnitRepository
	batchSvc   *BatchService
	cache      PreviewCache
	cacheTTL   time.Duration
	maxRows    int
	events     *events.Publisher
	logger     *logger.Logger
}

// NewImportService creates a new import service
func NewImportService(
	medicines *repository.MedicineRepository,
	categories *repository.CategoryRepository,
	units *repository.UnitRepository,
	batchSvc *BatchService,
	cache PreviewCache,
	cacheTTL time.Duration,
	maxRows int,
	pub *events.Publisher,
	log *logger.Logger,
) *ImportService {
	return &ImportService{
		medicines:  medicines,
		categories: categories,
		units:      units,
		batchSvc:   batchSvc,
		cache:      cache,
		cacheTTL:   cacheTTL,
		maxRows:    maxRows,
		events:     pub,
		logger:     log,
	}
}

// Parse reads an .xlsx upload, validates each row and caches the result
// under a fresh import key awaiting confirmation.
func (s *ImportService) Parse(ctx context.Context, r io.Reader) (*ImportPreview, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.BadRequest("file is not a valid xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.BadRequest("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.BadRequest("failed to read sheet")
	}
	if len(rows) < 2 {
		return nil, errors.BadRequest("sheet has no data rows")
	}
	if s.maxRows > 0 && len(rows)-1 > s.maxRows {
		return nil, errors.BadRequest(fmt.Sprintf("sheet exceeds the limit of %d rows", s.maxRows))
	}

	columns := headerIndex(rows[0])
	if _, ok := columns["name"]; !ok {
		return nil, errors.BadRequest("sheet is missing a 'name' column")
	}

	preview := &ImportPreview{
		ImportKey: "import:" + uuid.New().String(),
	}

	for i, cells := range rows[1:] {
		row := parseRow(i+2, cells, columns)
		if row == nil {
			continue // fully empty row
		}
		if row.Error != nil {
			preview.Invalid++
		} else {
			preview.Valid++
		}
		preview.Rows = append(preview.Rows, row)
	}

	if len(preview.Rows) == 0 {
		return nil, errors.BadRequest("sheet has no data rows")
	}

	if err := s.cache.SetJSON(ctx, preview.ImportKey, preview.Rows, s.cacheTTL); err != nil {
		return nil, errors.Internal("failed to cache import preview")
	}

	s.logger.Info().
		Str("import_key", preview.ImportKey).
		Int("valid", preview.Valid).
		Int("invalid", preview.Invalid).
		Msg("import parsed")

	return preview, nil
}

// Confirm replays the cached rows according to the import type and
// removes the cached preview.
func (s *ImportService) Confirm(ctx context.Context, req *ConfirmImportRequest) (*ImportResult, error) {
	var rows []*ImportRow
	if err := s.cache.GetJSON(ctx, req.ImportKey, &rows); err != nil {
		return nil, errors.NotFound("import preview")
	}

	selected := make(map[int]bool, len(req.Rows))
	for _, n := range req.Rows {
		selected[n] = true
	}

	result := &ImportResult{}
	for _, row := range rows {
		if len(selected) > 0 && !selected[row.Row] {
			continue
		}
		if row.Error != nil {
			continue
		}

		res := s.applyRow(ctx, row, req.ImportType, req.UserID)
		result.Results = append(result.Results, res)
		switch res.Status {
		case "created":
			result.Created++
		case "updated":
			result.Updated++
		default:
			result.Failed++
		}
	}

	if err := s.cache.Delete(ctx, req.ImportKey); err != nil {
		s.logger.Warn().Err(err).Str("import_key", req.ImportKey).Msg("failed to drop import preview")
	}

	s.events.PublishImportCompleted(ctx, &messaging.ImportCompletedEvent{
		ImportKey:  req.ImportKey,
		ImportType: req.ImportType,
		Created:    result.Created,
		Updated:    result.Updated,
		Failed:     result.Failed,
		ImportedBy: req.UserID,
	})

	return result, nil
}

func (s *ImportService) applyRow(ctx context.Context, row *ImportRow, importType string, userID *int64) *RowResult {
	res := &RowResult{Row: row.Row}

	fail := func(err error) *RowResult {
		msg := err.Error()
		res.Status = "error"
		res.Error = &msg
		return res
	}

	var medicine *repository.Medicine
	existing, err := s.medicines.GetByName(ctx, row.Name)
	switch {
	case err == nil:
		medicine = existing
	case errors.Is(err, errors.ErrNotFound):
		medicine = nil
	default:
		return fail(err)
	}

	if importType == ImportBatchOnly && medicine == nil {
		return fail(errors.NotFound("medicine"))
	}

	created := false
	if importType != ImportBatchOnly {
		if medicine == nil {
			medicine = &repository.Medicine{
				Name:        row.Name,
				Description: row.Description,
				Price:       row.Price,
				Supplier:    row.Supplier,
				IsActive:    true,
			}
			if err := s.resolveRefs(ctx, medicine, row); err != nil {
				return fail(err)
			}
			if err := s.medicines.Create(ctx, medicine); err != nil {
				return fail(err)
			}
			created = true
		} else {
			medicine.Price = row.Price
			if row.Description != nil {
				medicine.Description = row.Description
			}
			if row.Supplier != nil {
				medicine.Supplier = row.Supplier
			}
			if err := s.resolveRefs(ctx, medicine, row); err != nil {
				return fail(err)
			}
			if err := s.medicines.Update(ctx, medicine); err != nil {
				return fail(err)
			}
		}
	}

	if importType != ImportMedicineOnly {
		if row.BatchNo == nil || row.Quantity == nil || row.ExpiryDate == nil {
			return fail(errors.BadRequest("row has no batch data"))
		}
		if _, err := s.batchSvc.Create(ctx, &CreateBatchRequest{
			MedicineID: medicine.ID,
			BatchNo:    *row.BatchNo,
			Quantity:   *row.Quantity,
			ExpiryDate: *row.ExpiryDate,
			UserID:     userID,
		}); err != nil {
			return fail(err)
		}
	}

	if created {
		res.Status = "created"
	} else {
		res.Status = "updated"
	}
	return res
}

// resolveRefs maps category and unit names to IDs, creating categories
// and units on the fly so a spreadsheet can introduce new ones.
func (s *ImportService) resolveRefs(ctx context.Context, m *repository.Medicine, row *ImportRow) error {
	if row.Category != nil && *row.Category != "" {
		category, err := s.categories.GetByName(ctx, *row.Category)
		if errors.Is(err, errors.ErrNotFound) {
			category = &repository.Category{Name: *row.Category, IsActive: true}
			if err := s.categories.Create(ctx, category); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		m.CategoryID = &category.ID
	}

	if row.Unit != nil && *row.Unit != "" {
		unit, err := s.units.GetByName(ctx, *row.Unit)
		if errors.Is(err, errors.ErrNotFound) {
			unit = &repository.Unit{Name: *row.Unit}
			if err := s.units.Create(ctx, unit); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		m.UnitID = &unit.ID
	}

	return nil
}

// headerIndex maps normalized header names to column positions.
// Header matching tolerates case and surrounding spaces.
func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			columns[key] = i
		}
	}
	return columns
}

func cellAt(cells []string, idx int, ok bool) string {
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

var expiryLayouts = []string{"2006-01-02", "02.01.2006", "2006/01/02", "01-02-06"}

func parseRow(rowNum int, cells []string, columns map[string]int) *ImportRow {
	get := func(name string) string {
		idx, ok := columns[name]
		return cellAt(cells, idx, ok)
	}

	empty := true
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil
	}

	row := &ImportRow{Row: rowNum, Name: get("name")}

	setErr := func(msg string) {
		if row.Error == nil {
			row.Error = &msg
		}
	}

	if row.Name == "" {
		setErr("name is required")
	}

	if v := get("description"); v != "" {
		row.Description = &v
	}
	if v := get("category"); v != "" {
		row.Category = &v
	}
	if v := get("unit"); v != "" {
		row.Unit = &v
	}
	if v := get("supplier"); v != "" {
		row.Supplier = &v
	}

	if v := get("price"); v != "" {
		price, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil || price.IsNegative() {
			setErr("price is not a valid amount")
		} else {
			row.Price = price
		}
	}

	if v := get("batch_no"); v != "" {
		row.BatchNo = &v
	}

	if v := get("quantity"); v != "" {
		qty, err := strconv.Atoi(v)
		if err != nil || qty < 0 {
			setErr("quantity is not a valid number")
		} else {
			row.Quantity = &qty
		}
	}

	if v := get("expiry_date"); v != "" {
		parsed := false
		for _, layout := range expiryLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				row.ExpiryDate = &t
				parsed = true
				break
			}
		}
		if !parsed {
			setErr("expiry_date is not a recognized date")
		}
	}

	// a row carrying any batch field must carry all of them
	hasBatch := row.BatchNo != nil || row.Quantity != nil || row.ExpiryDate != nil
	if hasBatch && (row.BatchNo == nil || row.Quantity == nil || row.ExpiryDate == nil) {
		setErr("batch rows need batch_no, quantity and expiry_date")
	}

	return row
}
