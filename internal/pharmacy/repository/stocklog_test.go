package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/testutil"
)

func TestActionTag(t *testing.T) {
	plain := &StockLog{Action: ActionOut}
	assert.Equal(t, "OUT", plain.ActionTag())

	sub := SubActionAdjust
	adjusted := &StockLog{Action: ActionIn, SubAction: &sub}
	assert.Equal(t, "IN,ADJUST", adjusted.ActionTag())

	empty := ""
	blank := &StockLog{Action: ActionIn, SubAction: &empty}
	assert.Equal(t, "IN", blank.ActionTag())
}

func TestStockLogInsert(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := NewStockLogRepository(database.NewFromSqlx(mockDB.DB, logger.New("test", "test")))

	batchID := int64(7)
	note := "Dispense"
	createdBy := int64(2)
	mockDB.Mock.ExpectQuery("INSERT INTO stock_logs").
		WithArgs(batchID, ActionOut, nil, 5, note, createdBy).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(11), time.Now()))

	entry := &StockLog{
		BatchID:        &batchID,
		Action:         ActionOut,
		QuantityChange: 5,
		Note:           &note,
		CreatedBy:      &createdBy,
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.Equal(t, int64(11), entry.ID)

	mockDB.ExpectationsWereMet(t)
}
