package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	pkgerrors "github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// fakeLedger is an in-memory Ledger for exercising the allocation loop
// without a database.
type fakeLedger struct {
	medicines map[int64]*repository.Medicine
	users     map[int64]*repository.User
	batches   []*repository.AllocatableBatch

	receipts     []*repository.Receipt
	receiptItems []*repository.ReceiptItem
	stockLogs    []*repository.StockLog

	nextReceiptID int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		medicines:     make(map[int64]*repository.Medicine),
		users:         make(map[int64]*repository.User),
		nextReceiptID: 100,
	}
}

func (f *fakeLedger) addMedicine(id int64, name string, price string) {
	f.medicines[id] = &repository.Medicine{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}

func (f *fakeLedger) addBatch(id, medicineID int64, qty int, expiry time.Time) {
	f.batches = append(f.batches, &repository.AllocatableBatch{
		ID:         id,
		MedicineID: medicineID,
		Quantity:   qty,
		ExpiryDate: expiry,
		Price:      f.medicines[medicineID].Price,
	})
}

func (f *fakeLedger) FindMedicine(_ context.Context, id int64) (*repository.Medicine, error) {
	m, ok := f.medicines[id]
	if !ok {
		return nil, pkgerrors.NotFound("medicine")
	}
	return m, nil
}

func (f *fakeLedger) FindUser(_ context.Context, id int64) (*repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, pkgerrors.NotFound("user")
	}
	return u, nil
}

func (f *fakeLedger) ListAllocatableBatches(_ context.Context, medicineID int64, asOf time.Time) ([]*repository.AllocatableBatch, error) {
	var out []*repository.AllocatableBatch
	for _, b := range f.batches {
		if b.MedicineID == medicineID && !b.ExpiryDate.Before(asOf) {
			out = append(out, b)
		}
	}
	// ascending expiry, id as tiebreaker, matching the SQL ordering
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ExpiryDate.Before(out[i].ExpiryDate) ||
				(out[j].ExpiryDate.Equal(out[i].ExpiryDate) && out[j].ID < out[i].ID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) DecrementBatch(_ context.Context, batchID int64, qty int) error {
	for _, b := range f.batches {
		if b.ID == batchID {
			if b.Quantity < qty {
				return pkgerrors.Conflict("batch quantity changed concurrently")
			}
			b.Quantity -= qty
			return nil
		}
	}
	return pkgerrors.NotFound("batch")
}

func (f *fakeLedger) InsertReceipt(_ context.Context, r *repository.Receipt) error {
	f.nextReceiptID++
	r.ID = f.nextReceiptID
	r.CreatedAt = time.Now()
	f.receipts = append(f.receipts, r)
	return nil
}

func (f *fakeLedger) InsertReceiptItem(_ context.Context, item *repository.ReceiptItem) error {
	item.ID = int64(len(f.receiptItems) + 1)
	item.CreatedAt = time.Now()
	f.receiptItems = append(f.receiptItems, item)
	return nil
}

func (f *fakeLedger) InsertStockLog(_ context.Context, l *repository.StockLog) error {
	l.ID = int64(len(f.stockLogs) + 1)
	l.CreatedAt = time.Now()
	f.stockLogs = append(f.stockLogs, l)
	return nil
}

func (f *fakeLedger) batchQuantity(id int64) int {
	for _, b := range f.batches {
		if b.ID == id {
			return b.Quantity
		}
	}
	return -1
}

var asOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return asOf.AddDate(0, 0, offset)
}

func TestAllocate_FEFOOrder(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Paracetamol 500mg", "2.50")
	// later-expiring batch inserted first to prove ordering is by expiry
	ledger.addBatch(11, 1, 50, day(90))
	ledger.addBatch(12, 1, 50, day(10))

	_, lines, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 30}},
	}, asOf)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, int64(12), lines[0].BatchID, "soonest-expiring batch must be consumed first")
	assert.Equal(t, 30, lines[0].Quantity)
	assert.Equal(t, 20, ledger.batchQuantity(12))
	assert.Equal(t, 50, ledger.batchQuantity(11), "later batch untouched")
}

func TestAllocate_SpilloverAcrossBatches(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Amoxicillin 250mg", "4.00")
	ledger.addBatch(21, 1, 10, day(5))
	ledger.addBatch(22, 1, 40, day(30))

	_, lines, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 25}},
	}, asOf)
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, int64(21), lines[0].BatchID)
	assert.Equal(t, 10, lines[0].Quantity, "first batch drained completely")
	assert.Equal(t, int64(22), lines[1].BatchID)
	assert.Equal(t, 15, lines[1].Quantity, "remainder comes from the next batch")
	assert.Equal(t, 0, ledger.batchQuantity(21))
	assert.Equal(t, 25, ledger.batchQuantity(22))
}

func TestAllocate_InsufficientStock(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Ibuprofen 400mg", "3.00")
	ledger.addBatch(31, 1, 5, day(10))

	_, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 6}},
	}, asOf)

	var insufficientErr *InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(1), insufficientErr.MedicineID)
	assert.Contains(t, err.Error(), "not enough stock for medicine id 1")
}

func TestAllocate_ExpiredBatchesExcluded(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Cetirizine 10mg", "1.20")
	ledger.addBatch(41, 1, 100, day(-1)) // expired yesterday
	ledger.addBatch(42, 1, 10, day(20))

	_, lines, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 10}},
	}, asOf)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, int64(42), lines[0].BatchID)
	assert.Equal(t, 100, ledger.batchQuantity(41), "expired stock must never be touched")

	// expired stock alone cannot cover a request
	_, _, err = Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 50}},
	}, asOf)
	var insufficientErr *InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
}

func TestAllocate_BatchExpiringTodayIsAllocatable(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Loratadine 10mg", "2.00")
	ledger.addBatch(51, 1, 10, day(0)) // expiry exactly asOf

	_, lines, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 5}},
	}, asOf)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(51), lines[0].BatchID)
}

func TestAllocate_MultiItemShortfallNamesOffendingMedicine(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Metformin 500mg", "5.00")
	ledger.addMedicine(2, "Aspirin 100mg", "1.00")
	ledger.addBatch(61, 1, 100, day(30))
	ledger.addBatch(62, 2, 3, day(30))

	_, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{
			{MedicineID: 1, Quantity: 10},
			{MedicineID: 2, Quantity: 5},
		},
	}, asOf)

	var insufficientErr *InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(2), insufficientErr.MedicineID,
		"the error names the line that fell short, not the first line")
}

func TestAllocate_UnknownMedicineFailsBeforeAllocation(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Omeprazole 20mg", "6.00")
	ledger.addBatch(71, 1, 50, day(30))

	_, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{
			{MedicineID: 1, Quantity: 10},
			{MedicineID: 999, Quantity: 1},
		},
	}, asOf)

	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrNotFound))
	assert.Empty(t, ledger.receipts, "no receipt shell before all medicines resolve")
	assert.Equal(t, 50, ledger.batchQuantity(71), "no stock moves for an unknown medicine")
}

func TestAllocate_UnknownUserRejected(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Simvastatin 20mg", "7.50")
	ledger.addBatch(81, 1, 50, day(30))

	missing := int64(404)
	_, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items:  []DispenseItem{{MedicineID: 1, Quantity: 1}},
		UserID: &missing,
	}, asOf)

	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrNotFound))
}

func TestAllocate_ReceiptShellAndTotals(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Amlodipine 5mg", "3.30")
	ledger.addMedicine(2, "Atenolol 50mg", "2.10")
	ledger.addBatch(91, 1, 50, day(10))
	ledger.addBatch(92, 2, 50, day(10))
	ledger.users[7] = &repository.User{ID: 7, Username: "apothecary"}

	userID := int64(7)
	receiptID, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		PatientName: "Jane Roe",
		Items: []DispenseItem{
			{MedicineID: 1, Quantity: 4},
			{MedicineID: 2, Quantity: 6},
		},
		UserID: &userID,
	}, asOf)
	require.NoError(t, err)

	require.Len(t, ledger.receipts, 1)
	receipt := ledger.receipts[0]
	assert.Equal(t, receiptID, receipt.ID)
	assert.Equal(t, "Jane Roe", receipt.PatientName)
	assert.Equal(t, 10, receipt.TotalItems, "total items is the sum of requested quantities")
	require.NotNil(t, receipt.CreatedBy)
	assert.Equal(t, int64(7), *receipt.CreatedBy)
}

func TestAllocate_DefaultPatientName(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Vitamin C 500mg", "0.80")
	ledger.addBatch(101, 1, 10, day(10))

	_, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 1}},
	}, asOf)
	require.NoError(t, err)

	require.Len(t, ledger.receipts, 1)
	assert.Equal(t, DefaultPatientName, ledger.receipts[0].PatientName)
}

func TestAllocate_LogAndReceiptLineConsistency(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Azithromycin 500mg", "12.00")
	ledger.addBatch(111, 1, 8, day(5))
	ledger.addBatch(112, 1, 20, day(15))
	ledger.users[3] = &repository.User{ID: 3, Username: "pharmacist"}

	userID := int64(3)
	_, _, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items:  []DispenseItem{{MedicineID: 1, Quantity: 12}},
		UserID: &userID,
	}, asOf)
	require.NoError(t, err)

	// one OUT movement per receipt line, with matching batch and quantity
	require.Len(t, ledger.stockLogs, 2)
	require.Len(t, ledger.receiptItems, 2)
	for i, log := range ledger.stockLogs {
		item := ledger.receiptItems[i]
		assert.Equal(t, repository.ActionOut, log.Action)
		assert.Nil(t, log.SubAction)
		require.NotNil(t, log.Note)
		assert.Equal(t, "Dispense", *log.Note)
		require.NotNil(t, log.BatchID)
		assert.Equal(t, item.BatchID, *log.BatchID)
		assert.Equal(t, item.Quantity, log.QuantityChange)
		require.NotNil(t, log.CreatedBy)
		assert.Equal(t, int64(3), *log.CreatedBy)
	}
	assert.Equal(t, 8, ledger.receiptItems[0].Quantity)
	assert.Equal(t, 4, ledger.receiptItems[1].Quantity)
}

func TestAllocate_PriceSnapshot(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Insulin Glargine", "45.99")
	ledger.addBatch(121, 1, 10, day(10))

	_, lines, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 2}},
	}, asOf)
	require.NoError(t, err)

	require.Len(t, ledger.receiptItems, 1)
	want := decimal.RequireFromString("45.99")
	assert.True(t, ledger.receiptItems[0].Price.Equal(want),
		"receipt line price is the medicine price at dispense time")
	assert.True(t, lines[0].Price.Equal(want))

	// later price changes must not affect the recorded snapshot
	ledger.medicines[1].Price = decimal.RequireFromString("99.99")
	assert.True(t, ledger.receiptItems[0].Price.Equal(want))
}

func TestAllocate_ZeroQuantityBatchSkipped(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addMedicine(1, "Prednisolone 5mg", "2.75")
	ledger.addBatch(131, 1, 0, day(2))
	ledger.addBatch(132, 1, 10, day(20))

	_, lines, err := Allocate(context.Background(), ledger, &DispenseRequest{
		Items: []DispenseItem{{MedicineID: 1, Quantity: 5}},
	}, asOf)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, int64(132), lines[0].BatchID)
	assert.Len(t, ledger.stockLogs, 1, "empty batches produce no movements")
}
