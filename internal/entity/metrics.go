package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeRange bounds a metric query on orders.placed. A zero From or To means
// unbounded on that side, never an error.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// MonthlyRevenueRow is the delivered revenue of one unit in one calendar
// month ("2006-01" format).
type MonthlyRevenueRow struct {
	RestaurantName string          `db:"restaurant_name" json:"restaurant_name"`
	Month          string          `db:"month" json:"month"`
	Revenue        decimal.Decimal `db:"revenue" json:"revenue"`
}

type TopProductRow struct {
	ProductName string `db:"product_name" json:"product_name"`
	TotalSold   int    `db:"total_sold" json:"total_sold"`
}

type ProductRevenueRow struct {
	ProductName string          `db:"product_name" json:"product_name"`
	Revenue     decimal.Decimal `db:"revenue" json:"revenue"`
}

type AverageRatingRow struct {
	RestaurantName string          `db:"restaurant_name" json:"restaurant_name"`
	AvgRating      decimal.Decimal `db:"avg_rating" json:"avg_rating"`
}

type OrdersByStatusRow struct {
	Status OrderStatus `db:"status" json:"status"`
	Total  int         `db:"total" json:"total"`
}

// WeeklyOrdersRow counts orders placed in the ISO week starting at WeekStart.
type WeeklyOrdersRow struct {
	WeekStart time.Time `db:"week_start" json:"week_start"`
	Total     int       `db:"total" json:"total"`
}

// DailyRevenueRow carries per-day delivered revenue together with the
// running average ticket up to and including that day.
type DailyRevenueRow struct {
	Day        time.Time       `db:"day" json:"day"`
	Revenue    decimal.Decimal `db:"revenue" json:"revenue"`
	AvgTicket  decimal.Decimal `db:"avg_ticket" json:"avg_ticket"`
	OrderCount int             `db:"order_count" json:"order_count"`
}

// CancellationCost is the total value lost to cancelled orders. Zero when
// nothing matched, never a missing row.
type CancellationCost struct {
	Total decimal.Decimal `db:"total" json:"total"`
}

// DailyOverview summarizes one calendar day across all of an owner's units.
type DailyOverview struct {
	Orders        int             `db:"orders" json:"orders"`
	Revenue       decimal.Decimal `db:"revenue" json:"revenue"`
	Cancellations int             `db:"cancellations" json:"cancellations"`
	AvgRating     decimal.Decimal `db:"avg_rating" json:"avg_rating"`
}

type HourlyRevenueRow struct {
	Hour       int             `db:"hour" json:"hour"`
	Revenue    decimal.Decimal `db:"revenue" json:"revenue"`
	Cumulative decimal.Decimal `db:"cumulative" json:"cumulative"`
}

// HourlyAcceptTimeRow is the average minutes from placed to delivery for
// orders placed within one hour of the day.
type HourlyAcceptTimeRow struct {
	Hour       int             `db:"hour" json:"hour"`
	AvgMinutes decimal.Decimal `db:"avg_minutes" json:"avg_minutes"`
}

type HourlyCancellationsRow struct {
	Hour  int `db:"hour" json:"hour"`
	Total int `db:"total" json:"total"`
}

// HeatmapRow is an order count bucketed by ISO weekday (1=Monday) and hour.
type HeatmapRow struct {
	Weekday int `db:"weekday" json:"weekday"`
	Hour    int `db:"hour" json:"hour"`
	Total   int `db:"total" json:"total"`
}

type NegativeFeedbackRow struct {
	OrderID        int             `db:"order_id" json:"order_id"`
	RestaurantName string          `db:"restaurant_name" json:"restaurant_name"`
	Rating         decimal.Decimal `db:"rating" json:"rating"`
	Comment        string          `db:"comment" json:"comment"`
	Placed         time.Time       `db:"placed" json:"placed"`
}

// DailyMetric is one precomputed snapshot row of the daily_metrics table,
// keyed by (restaurant, day). At most one row may exist per key.
type DailyMetric struct {
	RestaurantID       int             `db:"restaurant_id" json:"restaurant_id"`
	Day                time.Time       `db:"day" json:"day"`
	TotalRevenue       decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	TotalOrders        int             `db:"total_orders" json:"total_orders"`
	TotalCancellations int             `db:"total_cancellations" json:"total_cancellations"`
	AvgRating          decimal.Decimal `db:"avg_rating" json:"avg_rating"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// RevenueSummaryRow is the all-time snapshot revenue of one unit, served
// from daily_metrics rather than raw orders.
type RevenueSummaryRow struct {
	RestaurantID   int             `db:"restaurant_id" json:"restaurant_id"`
	RestaurantName string          `db:"restaurant_name" json:"restaurant_name"`
	TotalRevenue   decimal.Decimal `db:"total_revenue" json:"total_revenue"`
}
