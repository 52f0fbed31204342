package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/pharmadesk/pharmacy-backend/pkg/cache"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *fakeCache) GetJSON(_ context.Context, key string, v interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func newParseOnlyService(t *testing.T, c PreviewCache) *ImportService {
	t.Helper()
	log := logger.New("pharmacy-service-test", "test")
	return NewImportService(nil, nil, nil, nil, c, time.Hour, 100, nil, log)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestParse_ValidSheet(t *testing.T) {
	c := newFakeCache()
	svc := newParseOnlyService(t, c)

	file := buildWorkbook(t, [][]interface{}{
		{"Name", "Category", "Unit", "Price", "Batch_No", "Quantity", "Expiry_Date"},
		{"Paracetamol 500mg", "Analgesics", "Tablet", "2.50", "B-001", "100", "2027-06-30"},
		{"Ibuprofen 400mg", "Analgesics", "Tablet", "3.10", "B-002", "50", "2027-01-15"},
	})

	preview, err := svc.Parse(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 2, preview.Valid)
	assert.Equal(t, 0, preview.Invalid)
	require.Len(t, preview.Rows, 2)
	assert.True(t, strings.HasPrefix(preview.ImportKey, "import:"))

	first := preview.Rows[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "Paracetamol 500mg", first.Name)
	require.NotNil(t, first.Category)
	assert.Equal(t, "Analgesics", *first.Category)
	assert.Equal(t, "2.5", first.Price.String())
	require.NotNil(t, first.Quantity)
	assert.Equal(t, 100, *first.Quantity)
	require.NotNil(t, first.ExpiryDate)
	assert.Equal(t, 2027, first.ExpiryDate.Year())

	// the preview must be retrievable under its key
	var cached []*ImportRow
	require.NoError(t, c.GetJSON(context.Background(), preview.ImportKey, &cached))
	assert.Len(t, cached, 2)
}

func TestParse_InvalidRowsMarked(t *testing.T) {
	svc := newParseOnlyService(t, newFakeCache())

	file := buildWorkbook(t, [][]interface{}{
		{"name", "price", "batch_no", "quantity", "expiry_date"},
		{"", "2.50", "B-001", "100", "2027-06-30"},
		{"Aspirin", "not-a-price", "B-002", "10", "2027-06-30"},
		{"Cetirizine", "1.20", "B-003", "10", "sometime"},
		{"Loratadine", "1.80", "B-004", "", "2027-06-30"},
		{"Amoxicillin", "4.00", "B-005", "30", "2027-06-30"},
	})

	preview, err := svc.Parse(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 1, preview.Valid)
	assert.Equal(t, 4, preview.Invalid)

	require.Len(t, preview.Rows, 5)
	require.NotNil(t, preview.Rows[0].Error)
	assert.Contains(t, *preview.Rows[0].Error, "name")
	require.NotNil(t, preview.Rows[1].Error)
	assert.Contains(t, *preview.Rows[1].Error, "price")
	require.NotNil(t, preview.Rows[2].Error)
	assert.Contains(t, *preview.Rows[2].Error, "expiry_date")
	require.NotNil(t, preview.Rows[3].Error)
	assert.Contains(t, *preview.Rows[3].Error, "batch")
	assert.Nil(t, preview.Rows[4].Error)
}

func TestParse_MissingNameColumn(t *testing.T) {
	svc := newParseOnlyService(t, newFakeCache())

	file := buildWorkbook(t, [][]interface{}{
		{"price", "quantity"},
		{"2.50", "100"},
	})

	_, err := svc.Parse(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestParse_NotAWorkbook(t *testing.T) {
	svc := newParseOnlyService(t, newFakeCache())

	_, err := svc.Parse(context.Background(), strings.NewReader("this,is,a,csv\n1,2,3,4\n"))
	require.Error(t, err)
}

func TestParse_RowLimit(t *testing.T) {
	c := newFakeCache()
	log := logger.New("pharmacy-service-test", "test")
	svc := NewImportService(nil, nil, nil, nil, c, time.Hour, 2, nil, log)

	file := buildWorkbook(t, [][]interface{}{
		{"name", "price"},
		{"A", "1.00"},
		{"B", "1.00"},
		{"C", "1.00"},
	})

	_, err := svc.Parse(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestParse_EmptyRowsSkipped(t *testing.T) {
	svc := newParseOnlyService(t, newFakeCache())

	file := buildWorkbook(t, [][]interface{}{
		{"name", "price"},
		{"Paracetamol", "2.50"},
		{"", ""},
		{"Ibuprofen", "3.10"},
	})

	preview, err := svc.Parse(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, preview.Rows, 2)
	assert.Equal(t, 2, preview.Rows[0].Row)
	assert.Equal(t, 4, preview.Rows[1].Row)
}
