package repository

import (
	"context"
	"time"

	"github.com/pharmadesk/pharmacy-backend/pkg/database"
)

// StockTotals aggregates the whole inventory at a point in time
type StockTotals struct {
	TotalMedicines int `db:"total_medicines" json:"total_medicines"`
	TotalStock     int `db:"total_stock" json:"total_stock"`
	ExpiredStock   int `db:"expired_stock" json:"expired_stock"`
	ExpiringSoon   int `db:"expiring_soon" json:"expiring_soon"`
	LowStock       int `db:"low_stock" json:"low_stock"`
}

// CategoryStock is the usable stock grouped by category
type CategoryStock struct {
	CategoryName string `db:"category_name" json:"category_name"`
	Medicines    int    `db:"medicines" json:"medicines"`
	TotalStock   int    `db:"total_stock" json:"total_stock"`
}

// DashboardRepository aggregates inventory figures for the dashboard
type DashboardRepository struct {
	db *database.DB
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db *database.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals computes the headline inventory figures. A medicine counts as
// low stock when its usable quantity is below the threshold, expiring
// soon covers batches running out within the window.
func (r *DashboardRepository) Totals(ctx context.Context, asOf time.Time, window time.Duration, lowStockThreshold int) (*StockTotals, error) {
	query := `
		SELECT
			COUNT(*) AS total_medicines,
			COALESCE(SUM(usable), 0) AS total_stock,
			COALESCE(SUM(expired), 0) AS expired_stock,
			COUNT(*) FILTER (WHERE usable > 0 AND usable < $2) AS low_stock
		FROM (
			SELECT
				m.id,
				COALESCE(SUM(b.quantity) FILTER (WHERE b.expiry_date >= $1::date), 0) AS usable,
				COALESCE(SUM(b.quantity) FILTER (WHERE b.expiry_date < $1::date), 0) AS expired
			FROM medicines m
			LEFT JOIN batches b ON b.medicine_id = m.id
			WHERE m.is_active = TRUE
			GROUP BY m.id
		) stock`

	var totals StockTotals
	if err := r.db.GetContext(ctx, &totals, query, asOf, lowStockThreshold); err != nil {
		return nil, err
	}

	expiringQuery := `
		SELECT COUNT(*)
		FROM batches
		WHERE quantity > 0 AND expiry_date >= $1::date AND expiry_date < $2::date`
	if err := r.db.GetContext(ctx, &totals.ExpiringSoon, expiringQuery, asOf, asOf.Add(window)); err != nil {
		return nil, err
	}

	return &totals, nil
}

// ByCategory breaks usable stock down per category. Medicines without
// a category fall under "Uncategorized".
func (r *DashboardRepository) ByCategory(ctx context.Context, asOf time.Time) ([]*CategoryStock, error) {
	query := `
		SELECT
			COALESCE(c.name, 'Uncategorized') AS category_name,
			COUNT(DISTINCT m.id) AS medicines,
			COALESCE(SUM(b.quantity) FILTER (WHERE b.expiry_date >= $1::date), 0) AS total_stock
		FROM medicines m
		LEFT JOIN categories c ON c.id = m.category_id
		LEFT JOIN batches b ON b.medicine_id = m.id
		WHERE m.is_active = TRUE
		GROUP BY c.name
		ORDER BY category_name`

	rows := []*CategoryStock{}
	if err := r.db.SelectContext(ctx, &rows, query, asOf); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReceiptsSince counts receipts created at or after the given time
func (r *DashboardRepository) ReceiptsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM receipts WHERE created_at >= $1`, since)
	return count, err
}
