package handler

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/service"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/testutil"
)

func newDispenseHandler(t *testing.T) (*DispenseHandler, *testutil.MockDB) {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("pharmacy-service-test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	svc := service.NewDispenseService(db, repository.NewReceiptRepository(db), nil, log)
	return NewDispenseHandler(svc, log), mockDB
}

func TestDispense_UnknownMedicineReturnsNotFound(t *testing.T) {
	h, mockDB := newDispenseHandler(t)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("SELECT \\* FROM medicines WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mockDB.Mock.ExpectRollback()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/dispense", map[string]interface{}{
		"medicine_id": 99,
		"quantity":    5,
	})
	rr := testutil.ExecuteRequest(http.HandlerFunc(h.Dispense), req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	testutil.AssertBodyContains(t, rr, "NOT_FOUND")
	mockDB.ExpectationsWereMet(t)
}

func TestDispense_ShortfallReturnsInsufficientStock(t *testing.T) {
	h, mockDB := newDispenseHandler(t)

	medicineRow := testutil.MockRows(
		"id", "name", "description", "price", "supplier", "image_url",
		"category_id", "unit_id", "is_active", "created_at", "updated_at",
	).AddRow(int64(1), "Paracetamol 500mg", nil, "2.50", nil, nil, nil, nil, true, time.Now(), time.Now())

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("SELECT \\* FROM medicines WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(medicineRow)
	mockDB.Mock.ExpectQuery("INSERT INTO receipts").
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(7), time.Now()))
	// no allocatable batches: everything expired or empty
	mockDB.Mock.ExpectQuery("FOR UPDATE OF b").
		WillReturnRows(testutil.MockRows("id", "medicine_id", "batch_no", "quantity", "expiry_date", "price"))
	mockDB.Mock.ExpectRollback()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/dispense", map[string]interface{}{
		"medicine_id": 1,
		"quantity":    5,
	})
	rr := testutil.ExecuteRequest(http.HandlerFunc(h.Dispense), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "INSUFFICIENT_STOCK")
	testutil.AssertBodyContains(t, rr, "medicine id 1")
	mockDB.ExpectationsWereMet(t)
}

func TestDispense_RejectsNonPositiveQuantity(t *testing.T) {
	h, _ := newDispenseHandler(t)

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/dispense", map[string]interface{}{
		"medicine_id": 1,
		"quantity":    0,
	})
	rr := testutil.ExecuteRequest(http.HandlerFunc(h.Dispense), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	require.NotContains(t, rr.Body.String(), "INSUFFICIENT_STOCK")
}
