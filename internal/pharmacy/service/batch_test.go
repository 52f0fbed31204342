package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/testutil"
)

func newBatchService(t *testing.T) (*BatchService, *testutil.MockDB) {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("pharmacy-service-test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	svc := NewBatchService(
		repository.NewBatchRepository(db),
		repository.NewMedicineRepository(db),
		repository.NewStockLogRepository(db),
		nil,
		log,
	)
	return svc, mockDB
}

func batchRow(id, medicineID int64, batchNo string, quantity int, expiry time.Time) *sqlmock.Rows {
	return testutil.MockRows("id", "medicine_id", "batch_no", "quantity", "expiry_date", "created_at", "updated_at").
		AddRow(id, medicineID, batchNo, quantity, expiry, time.Now(), time.Now())
}

func TestBatchUpdate_IncreaseLogsAdjustment(t *testing.T) {
	svc, mockDB := newBatchService(t)

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery("SELECT \\* FROM batches WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(batchRow(3, 1, "B-003", 10, expiry))

	mockDB.Mock.ExpectQuery("UPDATE batches SET").
		WithArgs(int64(3), "B-003", 15, expiry).
		WillReturnRows(testutil.MockRows("updated_at").AddRow(time.Now()))

	userID := int64(7)
	mockDB.Mock.ExpectQuery("INSERT INTO stock_logs").
		WithArgs(int64(3), repository.ActionIn, repository.SubActionAdjust, 5, "Increase: 10 → 15", userID).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(90), time.Now()))

	batch, err := svc.Update(context.Background(), 3, &UpdateBatchRequest{
		BatchNo:    "B-003",
		Quantity:   15,
		ExpiryDate: expiry,
		UserID:     &userID,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, batch.Quantity)

	mockDB.ExpectationsWereMet(t)
}

func TestBatchUpdate_DecreaseLogsAdjustment(t *testing.T) {
	svc, mockDB := newBatchService(t)

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery("SELECT \\* FROM batches WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(batchRow(3, 1, "B-003", 10, expiry))

	mockDB.Mock.ExpectQuery("UPDATE batches SET").
		WithArgs(int64(3), "B-003", 4, expiry).
		WillReturnRows(testutil.MockRows("updated_at").AddRow(time.Now()))

	// magnitude is the absolute delta, direction carried by the action
	mockDB.Mock.ExpectQuery("INSERT INTO stock_logs").
		WithArgs(int64(3), repository.ActionOut, repository.SubActionAdjust, 6, "Decrease: 10 → 4", nil).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(91), time.Now()))

	_, err := svc.Update(context.Background(), 3, &UpdateBatchRequest{
		BatchNo:    "B-003",
		Quantity:   4,
		ExpiryDate: expiry,
	})
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestBatchUpdate_UnchangedQuantitySkipsLog(t *testing.T) {
	svc, mockDB := newBatchService(t)

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery("SELECT \\* FROM batches WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(batchRow(3, 1, "B-003", 10, expiry))

	mockDB.Mock.ExpectQuery("UPDATE batches SET").
		WithArgs(int64(3), "B-004", 10, expiry).
		WillReturnRows(testutil.MockRows("updated_at").AddRow(time.Now()))

	_, err := svc.Update(context.Background(), 3, &UpdateBatchRequest{
		BatchNo:    "B-004",
		Quantity:   10,
		ExpiryDate: expiry,
	})
	require.NoError(t, err)

	// no stock_logs insert expected
	mockDB.ExpectationsWereMet(t)
}

func TestBatchDelete_RejectsRemainingStock(t *testing.T) {
	svc, mockDB := newBatchService(t)

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery("SELECT \\* FROM batches WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(batchRow(3, 1, "B-003", 5, expiry))

	err := svc.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}

func TestBatchCreate_DuplicateBatchNoRejected(t *testing.T) {
	svc, mockDB := newBatchService(t)

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery("SELECT \\* FROM medicines WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(testutil.MockRows(
			"id", "name", "description", "price", "supplier", "image_url",
			"category_id", "unit_id", "is_active", "created_at", "updated_at",
		).AddRow(int64(1), "Paracetamol 500mg", nil, "2.50", nil, nil, nil, nil, true, time.Now(), time.Now()))

	mockDB.Mock.ExpectQuery("INSERT INTO batches").
		WithArgs(int64(1), "B-010", 200, expiry).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "batches_medicine_batch_no_key"})

	_, err := svc.Create(context.Background(), &CreateBatchRequest{
		MedicineID: 1,
		BatchNo:    "B-010",
		Quantity:   200,
		ExpiryDate: expiry,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Contains(t, err.Error(), "already exists for this medicine")

	mockDB.ExpectationsWereMet(t)
}

func TestBatchCreate_LogsIncomingStock(t *testing.T) {
	svc, mockDB := newBatchService(t)

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery("SELECT \\* FROM medicines WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(testutil.MockRows(
			"id", "name", "description", "price", "supplier", "image_url",
			"category_id", "unit_id", "is_active", "created_at", "updated_at",
		).AddRow(int64(1), "Paracetamol 500mg", nil, "2.50", nil, nil, nil, nil, true, time.Now(), time.Now()))

	mockDB.Mock.ExpectQuery("INSERT INTO batches").
		WithArgs(int64(1), "B-010", 200, expiry).
		WillReturnRows(testutil.MockRows("id", "created_at", "updated_at").AddRow(int64(10), time.Now(), time.Now()))

	mockDB.Mock.ExpectQuery("INSERT INTO stock_logs").
		WithArgs(int64(10), repository.ActionIn, nil, 200, "New batch", nil).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(92), time.Now()))

	batch, err := svc.Create(context.Background(), &CreateBatchRequest{
		MedicineID: 1,
		BatchNo:    "B-010",
		Quantity:   200,
		ExpiryDate: expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), batch.ID)

	mockDB.ExpectationsWereMet(t)
}
