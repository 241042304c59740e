package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

type metricsStore struct {
	*MYSQLStore
}

// Metrics returns an object implementing the dependency.Metrics interface
func (ms *MYSQLStore) Metrics() dependency.Metrics {
	return &metricsStore{MYSQLStore: ms}
}

const defaultTopLimit = 5

// rangeClause appends optional placed-timestamp bounds to params and returns
// the matching SQL fragment. A missing bound means unbounded on that side.
// The upper bound is exclusive; callers translate an inclusive end date to
// the start of the following day.
func rangeClause(tr entity.TimeRange, params map[string]any) string {
	clause := ""
	if !tr.From.IsZero() {
		clause += " AND o.placed >= :from"
		params["from"] = tr.From
	}
	if !tr.To.IsZero() {
		clause += " AND o.placed < :to"
		params["to"] = tr.To
	}
	return clause
}

// dayRange bounds a query to one calendar day.
func dayRange(day time.Time) entity.TimeRange {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return entity.TimeRange{From: from, To: from.AddDate(0, 0, 1)}
}

func (ms *metricsStore) MonthlyRevenue(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.MonthlyRevenueRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT r.name AS restaurant_name,
		DATE_FORMAT(o.placed, '%%Y-%%m') AS month,
		COALESCE(SUM(CASE WHEN o.status = 'delivered' THEN o.total_amount ELSE 0 END), 0) AS revenue
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY r.id, r.name, DATE_FORMAT(o.placed, '%%Y-%%m')
	ORDER BY month, restaurant_name`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.MonthlyRevenueRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}
	if rows == nil {
		rows = []entity.MonthlyRevenueRow{}
	}
	return rows, nil
}

func (ms *metricsStore) TopSellingProducts(ctx context.Context, ownerID int, tr entity.TimeRange, limit int) ([]entity.TopProductRow, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	params := map[string]any{"ownerId": ownerID, "limit": limit}
	query := fmt.Sprintf(`
	SELECT oi.product_name, SUM(oi.quantity) AS total_sold
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY oi.product_name
	ORDER BY total_sold DESC
	LIMIT :limit`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.TopProductRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	if rows == nil {
		rows = []entity.TopProductRow{}
	}
	return rows, nil
}

func (ms *metricsStore) TopProductsByRevenue(ctx context.Context, ownerID int, tr entity.TimeRange, limit int) ([]entity.ProductRevenueRow, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	params := map[string]any{"ownerId": ownerID, "limit": limit}
	query := fmt.Sprintf(`
	SELECT oi.product_name,
		COALESCE(SUM(oi.quantity * oi.unit_price), 0) AS revenue
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY oi.product_name
	ORDER BY revenue DESC
	LIMIT :limit`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.ProductRevenueRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("top products by revenue: %w", err)
	}
	if rows == nil {
		rows = []entity.ProductRevenueRow{}
	}
	return rows, nil
}

func (ms *metricsStore) AverageRatings(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.AverageRatingRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT r.name AS restaurant_name,
		ROUND(AVG(f.rating), 2) AS avg_rating
	FROM feedbacks f
	JOIN orders o ON o.id = f.order_id
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY r.id, r.name
	ORDER BY restaurant_name`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.AverageRatingRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("average ratings: %w", err)
	}
	if rows == nil {
		rows = []entity.AverageRatingRow{}
	}
	return rows, nil
}

func (ms *metricsStore) OrdersByStatus(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.OrdersByStatusRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT o.status, COUNT(*) AS total
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY o.status
	ORDER BY total DESC`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.OrdersByStatusRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	if rows == nil {
		rows = []entity.OrdersByStatusRow{}
	}
	return rows, nil
}

func (ms *metricsStore) WeeklyOrders(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.WeeklyOrdersRow, error) {
	params := map[string]any{"ownerId": ownerID}
	// WEEKDAY is 0 for Monday, so this truncates to the ISO week start.
	query := fmt.Sprintf(`
	SELECT DATE_SUB(DATE(o.placed), INTERVAL WEEKDAY(o.placed) DAY) AS week_start,
		COUNT(*) AS total
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY week_start
	ORDER BY week_start`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.WeeklyOrdersRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("weekly orders: %w", err)
	}
	if rows == nil {
		rows = []entity.WeeklyOrdersRow{}
	}
	return rows, nil
}

func (ms *metricsStore) DailyRevenue(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.DailyRevenueRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	WITH per_day AS (
		SELECT DATE(o.placed) AS day,
			COALESCE(SUM(o.total_amount), 0) AS revenue,
			COUNT(*) AS order_count
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE r.owner_id = :ownerId AND o.status = 'delivered'%s
		GROUP BY DATE(o.placed)
	)
	SELECT day, revenue, order_count,
		ROUND(SUM(revenue) OVER (ORDER BY day) / SUM(order_count) OVER (ORDER BY day), 2) AS avg_ticket
	FROM per_day
	ORDER BY day`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.DailyRevenueRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	if rows == nil {
		rows = []entity.DailyRevenueRow{}
	}
	return rows, nil
}

func (ms *metricsStore) CancellationCost(ctx context.Context, ownerID int, tr entity.TimeRange) (*entity.CancellationCost, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT COALESCE(SUM(o.total_amount), 0) AS total
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId AND o.status = 'cancelled'%s`, rangeClause(tr, params))

	cost, err := QueryNamedOne[entity.CancellationCost](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("cancellation cost: %w", err)
	}
	return &cost, nil
}

func (ms *metricsStore) DailyOverview(ctx context.Context, ownerID int, day time.Time) (*entity.DailyOverview, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT COUNT(o.id) AS orders,
		COALESCE(SUM(CASE WHEN o.status = 'delivered' THEN o.total_amount ELSE 0 END), 0) AS revenue,
		COALESCE(SUM(CASE WHEN o.status = 'cancelled' THEN 1 ELSE 0 END), 0) AS cancellations,
		COALESCE(ROUND(AVG(f.rating), 2), 0) AS avg_rating
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	LEFT JOIN feedbacks f ON f.order_id = o.id
	WHERE r.owner_id = :ownerId%s`, rangeClause(dayRange(day), params))

	ov, err := QueryNamedOne[entity.DailyOverview](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("daily overview: %w", err)
	}
	return &ov, nil
}

func (ms *metricsStore) DailyCumulativeRevenue(ctx context.Context, ownerID int, day time.Time) ([]entity.HourlyRevenueRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	WITH per_hour AS (
		SELECT HOUR(o.placed) AS hour,
			COALESCE(SUM(o.total_amount), 0) AS revenue
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE r.owner_id = :ownerId AND o.status = 'delivered'%s
		GROUP BY HOUR(o.placed)
	)
	SELECT hour, revenue,
		SUM(revenue) OVER (ORDER BY hour) AS cumulative
	FROM per_hour
	ORDER BY hour`, rangeClause(dayRange(day), params))

	rows, err := QueryListNamed[entity.HourlyRevenueRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("daily cumulative revenue: %w", err)
	}
	if rows == nil {
		rows = []entity.HourlyRevenueRow{}
	}
	return rows, nil
}

func (ms *metricsStore) DailyAcceptTimeByHour(ctx context.Context, ownerID int, day time.Time) ([]entity.HourlyAcceptTimeRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT HOUR(o.placed) AS hour,
		ROUND(AVG(TIMESTAMPDIFF(MINUTE, o.placed, o.delivered_at)), 2) AS avg_minutes
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId AND o.delivered_at IS NOT NULL%s
	GROUP BY HOUR(o.placed)
	ORDER BY hour`, rangeClause(dayRange(day), params))

	rows, err := QueryListNamed[entity.HourlyAcceptTimeRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("daily accept time by hour: %w", err)
	}
	if rows == nil {
		rows = []entity.HourlyAcceptTimeRow{}
	}
	return rows, nil
}

func (ms *metricsStore) DailyCancellationsByHour(ctx context.Context, ownerID int, day time.Time) ([]entity.HourlyCancellationsRow, error) {
	params := map[string]any{"ownerId": ownerID}
	query := fmt.Sprintf(`
	SELECT HOUR(o.placed) AS hour, COUNT(*) AS total
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId AND o.status = 'cancelled'%s
	GROUP BY HOUR(o.placed)
	ORDER BY hour`, rangeClause(dayRange(day), params))

	rows, err := QueryListNamed[entity.HourlyCancellationsRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("daily cancellations by hour: %w", err)
	}
	if rows == nil {
		rows = []entity.HourlyCancellationsRow{}
	}
	return rows, nil
}

func (ms *metricsStore) TopCancelledProducts(ctx context.Context, ownerID int, tr entity.TimeRange, limit int) ([]entity.TopProductRow, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	params := map[string]any{"ownerId": ownerID, "limit": limit}
	query := fmt.Sprintf(`
	SELECT oi.product_name, SUM(oi.quantity) AS total_sold
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId AND o.status = 'cancelled'%s
	GROUP BY oi.product_name
	ORDER BY total_sold DESC
	LIMIT :limit`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.TopProductRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("top cancelled products: %w", err)
	}
	if rows == nil {
		rows = []entity.TopProductRow{}
	}
	return rows, nil
}

func (ms *metricsStore) OrdersHeatmap(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.HeatmapRow, error) {
	params := map[string]any{"ownerId": ownerID}
	// WEEKDAY()+1 gives ISO weekday numbering, Monday = 1.
	query := fmt.Sprintf(`
	SELECT WEEKDAY(o.placed) + 1 AS weekday,
		HOUR(o.placed) AS hour,
		COUNT(*) AS total
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId%s
	GROUP BY weekday, hour
	ORDER BY weekday, hour`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.HeatmapRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("orders heatmap: %w", err)
	}
	if rows == nil {
		rows = []entity.HeatmapRow{}
	}
	return rows, nil
}

func (ms *metricsStore) NegativeFeedbacks(ctx context.Context, ownerID int, tr entity.TimeRange, threshold float64) ([]entity.NegativeFeedbackRow, error) {
	params := map[string]any{"ownerId": ownerID, "threshold": threshold}
	query := fmt.Sprintf(`
	SELECT f.order_id,
		r.name AS restaurant_name,
		f.rating,
		COALESCE(f.comment, '') AS comment,
		o.placed
	FROM feedbacks f
	JOIN orders o ON o.id = f.order_id
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId AND f.rating < :threshold%s
	ORDER BY o.placed DESC`, rangeClause(tr, params))

	rows, err := QueryListNamed[entity.NegativeFeedbackRow](ctx, ms.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("negative feedbacks: %w", err)
	}
	if rows == nil {
		rows = []entity.NegativeFeedbackRow{}
	}
	return rows, nil
}
