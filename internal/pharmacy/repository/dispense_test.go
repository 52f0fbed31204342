package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/testutil"
)

func beginMockTx(t *testing.T) (*testutil.MockDB, *sqlx.Tx) {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	mockDB.ExpectBegin()
	tx, err := mockDB.DB.Beginx()
	require.NoError(t, err)
	return mockDB, tx
}

func TestListAllocatableBatches_LocksAndOrders(t *testing.T) {
	mockDB, tx := beginMockTx(t)
	store := NewDispenseStore(tx)

	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := testutil.MockRows("id", "medicine_id", "batch_no", "quantity", "expiry_date", "price").
		AddRow(int64(3), int64(1), "B-003", 20, asOf.AddDate(0, 1, 0), "2.50").
		AddRow(int64(5), int64(1), "B-005", 50, asOf.AddDate(0, 6, 0), "2.50")

	mockDB.Mock.ExpectQuery("FOR UPDATE OF b").
		WithArgs(int64(1), asOf).
		WillReturnRows(rows)
	mockDB.Mock.ExpectRollback()

	batches, err := store.ListAllocatableBatches(context.Background(), 1, asOf)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, int64(3), batches[0].ID)
	assert.Equal(t, "2.5", batches[0].Price.String())

	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}

func TestListAllocatableBatches_ComparesExpiryByDate(t *testing.T) {
	mockDB, tx := beginMockTx(t)
	store := NewDispenseStore(tx)

	// expiry_date is a DATE column; asOf carries a time of day and must
	// be cast down so a batch expiring today stays eligible
	asOf := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	expiresToday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mockDB.Mock.ExpectQuery(`expiry_date >= \$2::date`).
		WithArgs(int64(1), asOf).
		WillReturnRows(testutil.MockRows("id", "medicine_id", "batch_no", "quantity", "expiry_date", "price").
			AddRow(int64(7), int64(1), "B-007", 10, expiresToday, "2.50"))
	mockDB.Mock.ExpectRollback()

	batches, err := store.ListAllocatableBatches(context.Background(), 1, asOf)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, int64(7), batches[0].ID)

	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}

func TestDecrementBatch_Succeeds(t *testing.T) {
	mockDB, tx := beginMockTx(t)
	store := NewDispenseStore(tx)

	mockDB.Mock.ExpectExec("UPDATE batches").
		WithArgs(int64(3), 15).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectRollback()

	require.NoError(t, store.DecrementBatch(context.Background(), 3, 15))

	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}

func TestDecrementBatch_GuardRejectsOverdraw(t *testing.T) {
	mockDB, tx := beginMockTx(t)
	store := NewDispenseStore(tx)

	// the quantity >= $2 guard matches no row when stock is short
	mockDB.Mock.ExpectExec("UPDATE batches").
		WithArgs(int64(3), 500).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.Mock.ExpectRollback()

	err := store.DecrementBatch(context.Background(), 3, 500)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}

func TestInsertReceipt_ReturnsGeneratedID(t *testing.T) {
	mockDB, tx := beginMockTx(t)
	store := NewDispenseStore(tx)

	createdAt := time.Now()
	mockDB.Mock.ExpectQuery("INSERT INTO receipts").
		WithArgs("Walk-in Customer", 10, nil).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(42), createdAt))
	mockDB.Mock.ExpectRollback()

	receipt := &Receipt{PatientName: "Walk-in Customer", TotalItems: 10}
	require.NoError(t, store.InsertReceipt(context.Background(), receipt))
	assert.Equal(t, int64(42), receipt.ID)

	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}

func TestInsertReceiptItem_ReturnsIDAndTimestamp(t *testing.T) {
	mockDB, tx := beginMockTx(t)
	store := NewDispenseStore(tx)

	createdAt := time.Now()
	mockDB.Mock.ExpectQuery("INSERT INTO receipt_items").
		WithArgs(int64(42), int64(3), 15, decimal.RequireFromString("2.50")).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(9), createdAt))
	mockDB.Mock.ExpectRollback()

	item := &ReceiptItem{
		ReceiptID: 42,
		BatchID:   3,
		Quantity:  15,
		Price:     decimal.RequireFromString("2.50"),
	}
	require.NoError(t, store.InsertReceiptItem(context.Background(), item))
	assert.Equal(t, int64(9), item.ID)
	assert.Equal(t, createdAt, item.CreatedAt)

	require.NoError(t, tx.Rollback())
	mockDB.ExpectationsWereMet(t)
}
