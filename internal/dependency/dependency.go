package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/ifooddash/dashboard/internal/entity"
	"github.com/jmoiron/sqlx"
)

type (
	Users interface {
		// AddUser creates a user from an already-hashed password and
		// returns the stored row.
		AddUser(ctx context.Context, name, email, passwordHash string) (*entity.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
		GetUserById(ctx context.Context, id int) (*entity.User, error)
	}

	Restaurants interface {
		AddRestaurant(ctx context.Context, ownerID int, r *entity.RestaurantInsert) (*entity.Restaurant, error)
		GetRestaurantsByOwner(ctx context.Context, ownerID int) ([]entity.Restaurant, error)
		// GetRestaurantByIdForOwner returns the unit only when it belongs
		// to ownerID, which is how order import checks tenancy.
		GetRestaurantByIdForOwner(ctx context.Context, id, ownerID int) (*entity.Restaurant, error)
	}

	Orders interface {
		// CreateOrder writes the order header and all its items in one
		// transaction. Either everything is stored or nothing is.
		CreateOrder(ctx context.Context, restaurantID int, orderNew *entity.OrderNew) (int, error)
		GetOrdersByOwner(ctx context.Context, ownerID int) ([]entity.OrderFull, error)
		GetOrderByIdForOwner(ctx context.Context, id, ownerID int) (*entity.OrderFull, error)
		AddFeedback(ctx context.Context, orderID int, rating float64, comment, feedbackType string) error
	}

	// Metrics is the ad hoc aggregation query set. Every method scopes
	// results to ownerID through the unit ownership chain; tr bounds are
	// optional on both sides.
	Metrics interface {
		MonthlyRevenue(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.MonthlyRevenueRow, error)
		TopSellingProducts(ctx context.Context, ownerID int, tr entity.TimeRange, limit int) ([]entity.TopProductRow, error)
		TopProductsByRevenue(ctx context.Context, ownerID int, tr entity.TimeRange, limit int) ([]entity.ProductRevenueRow, error)
		AverageRatings(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.AverageRatingRow, error)
		OrdersByStatus(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.OrdersByStatusRow, error)
		WeeklyOrders(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.WeeklyOrdersRow, error)
		DailyRevenue(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.DailyRevenueRow, error)
		CancellationCost(ctx context.Context, ownerID int, tr entity.TimeRange) (*entity.CancellationCost, error)
		DailyOverview(ctx context.Context, ownerID int, day time.Time) (*entity.DailyOverview, error)
		DailyCumulativeRevenue(ctx context.Context, ownerID int, day time.Time) ([]entity.HourlyRevenueRow, error)
		DailyAcceptTimeByHour(ctx context.Context, ownerID int, day time.Time) ([]entity.HourlyAcceptTimeRow, error)
		DailyCancellationsByHour(ctx context.Context, ownerID int, day time.Time) ([]entity.HourlyCancellationsRow, error)
		TopCancelledProducts(ctx context.Context, ownerID int, tr entity.TimeRange, limit int) ([]entity.TopProductRow, error)
		OrdersHeatmap(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.HeatmapRow, error)
		NegativeFeedbacks(ctx context.Context, ownerID int, tr entity.TimeRange, threshold float64) ([]entity.NegativeFeedbackRow, error)
	}

	// DailyMetrics maintains the precomputed daily_metrics snapshot table.
	DailyMetrics interface {
		// Recompute rebuilds per (restaurant, day) aggregates from raw
		// orders and feedback in a single transaction, overwriting
		// existing keys in place.
		Recompute(ctx context.Context) error
		GetSnapshots(ctx context.Context, ownerID int, tr entity.TimeRange) ([]entity.DailyMetric, error)
		RevenueSummary(ctx context.Context, ownerID int) ([]entity.RevenueSummaryRow, error)
	}

	Repository interface {
		Users() Users
		Restaurants() Restaurants
		Orders() Orders
		Metrics() Metrics
		DailyMetrics() DailyMetrics
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		IsErrUniqueViolation(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// OrderSource produces orders to import. The mock implementation stands
	// in for the future iFood API integration; anything that yields
	// entity.OrderNew rows can be plugged in.
	OrderSource interface {
		FetchOrders(ctx context.Context) ([]entity.OrderNew, error)
		// Ingest is the idempotent pre-aggregation pull step of the daily
		// job. The placeholder implementation is a no-op.
		Ingest(ctx context.Context) error
	}
)
