package store

import (
	"context"
	"fmt"

	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

type dailyMetricsStore struct {
	*MYSQLStore
}

// DailyMetrics returns an object implementing the dependency.DailyMetrics interface
func (ms *MYSQLStore) DailyMetrics() dependency.DailyMetrics {
	return &dailyMetricsStore{MYSQLStore: ms}
}

// Recompute rebuilds the daily_metrics snapshot from raw orders and
// feedback. The whole upsert runs inside a single transaction so readers
// never observe a half-updated table. Keys with no current orders are left
// untouched; existing keys are overwritten column by column, never
// duplicated.
func (dm *dailyMetricsStore) Recompute(ctx context.Context) error {
	return dm.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		query := `
		INSERT INTO daily_metrics (restaurant_id, day, total_revenue, total_orders, total_cancellations, avg_rating)
		SELECT
			o.restaurant_id,
			DATE(o.placed) AS day,
			COALESCE(SUM(CASE WHEN o.status = 'delivered' THEN o.total_amount ELSE 0 END), 0) AS total_revenue,
			COUNT(o.id) AS total_orders,
			COALESCE(SUM(CASE WHEN o.status = 'cancelled' THEN 1 ELSE 0 END), 0) AS total_cancellations,
			COALESCE(AVG(f.rating), 0) AS avg_rating
		FROM orders o
		LEFT JOIN feedbacks f ON f.order_id = o.id
		GROUP BY o.restaurant_id, DATE(o.placed)
		ON DUPLICATE KEY UPDATE
			total_revenue = VALUES(total_revenue),
			total_orders = VALUES(total_orders),
			total_cancellations = VALUES(total_cancellations),
			avg_rating = VALUES(avg_rating),
			updated_at = CURRENT_TIMESTAMP`

		if err := ExecNamed(ctx, rep.DB(), query, map[string]any{}); err != nil {
			return fmt.Errorf("recompute daily metrics: %w", err)
		}
		return nil
	})
}

func (dm *dailyMetricsStore) GetSnapshots(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.DailyMetric, error) {
	params := map[string]any{"ownerId": ownerID}
	clause := ""
	if !tr.From.IsZero() {
		clause += " AND dm.day >= :from"
		params["from"] = tr.From
	}
	if !tr.To.IsZero() {
		clause += " AND dm.day < :to"
		params["to"] = tr.To
	}

	query := fmt.Sprintf(`
	SELECT dm.restaurant_id, dm.day, dm.total_revenue, dm.total_orders,
		dm.total_cancellations, dm.avg_rating, dm.updated_at
	FROM daily_metrics dm
	JOIN restaurants r ON r.id = dm.restaurant_id
	WHERE r.owner_id = :ownerId%s
	ORDER BY dm.day, dm.restaurant_id`, clause)

	rows, err := QueryListNamed[entity.DailyMetric](ctx, dm.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	if rows == nil {
		rows = []entity.DailyMetric{}
	}
	return rows, nil
}

func (dm *dailyMetricsStore) RevenueSummary(ctx context.Context, ownerID int) ([]entity.RevenueSummaryRow, error) {
	query := `
	SELECT dm.restaurant_id,
		r.name AS restaurant_name,
		COALESCE(SUM(dm.total_revenue), 0) AS total_revenue
	FROM daily_metrics dm
	JOIN restaurants r ON r.id = dm.restaurant_id
	WHERE r.owner_id = :ownerId
	GROUP BY dm.restaurant_id, r.name
	ORDER BY total_revenue DESC`

	rows, err := QueryListNamed[entity.RevenueSummaryRow](ctx, dm.db, query, map[string]any{
		"ownerId": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("revenue summary: %w", err)
	}
	if rows == nil {
		rows = []entity.RevenueSummaryRow{}
	}
	return rows, nil
}
