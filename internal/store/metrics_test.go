package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ifooddash/dashboard/internal/entity"
)

// seedMarch stores one delivered 89.90 order and one cancelled 25.00 order
// in March 2025 for the given restaurant.
func seedMarch(t *testing.T, db *MYSQLStore, restaurantID int) (deliveredID, cancelledID int) {
	ctx := context.Background()

	delivered := testOrder("IF-MAR-1", time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC), entity.OrderStatusDelivered, 89.90)
	at := time.Date(2025, 3, 10, 13, 15, 0, 0, time.UTC)
	delivered.DeliveredAt = &at
	deliveredID, err := db.Orders().CreateOrder(ctx, restaurantID, delivered)
	assert.NoError(t, err)

	cancelled := &entity.OrderNew{
		ExternalID:   "IF-MAR-2",
		CustomerName: "Bruna Lima",
		Placed:       time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC),
		Status:       entity.OrderStatusCancelled,
		TotalAmount:  decimal.NewFromFloat(25.00),
		Items: []entity.OrderItemNew{
			{ProductName: "Pizza Portuguesa", Quantity: 1, UnitPrice: decimal.NewFromFloat(25.00)},
		},
	}
	cancelledID, err = db.Orders().CreateOrder(ctx, restaurantID, cancelled)
	assert.NoError(t, err)
	return deliveredID, cancelledID
}

func TestMonthlyRevenueAndCancellationCost(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	ownerID, restaurantID := seedOwner(t, db, "march@example.com")
	seedMarch(t, db, restaurantID)

	rows, err := db.Metrics().MonthlyRevenue(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "2025-03", rows[0].Month)
	assert.True(t, rows[0].Revenue.Equal(decimal.NewFromFloat(89.90)),
		"revenue = %s", rows[0].Revenue)

	cost, err := db.Metrics().CancellationCost(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.True(t, cost.Total.Equal(decimal.NewFromFloat(25.00)), "cost = %s", cost.Total)

	// bounds exclude everything placed outside the range
	rows, err = db.Metrics().MonthlyRevenue(ctx, ownerID, entity.TimeRange{
		From: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestZeroRowAggregates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	ownerID, _ := seedOwner(t, db, "empty@example.com")

	cost, err := db.Metrics().CancellationCost(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.True(t, cost.Total.IsZero())

	ov, err := db.Metrics().DailyOverview(ctx, ownerID, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Zero(t, ov.Orders)
	assert.True(t, ov.Revenue.IsZero())
	assert.True(t, ov.AvgRating.IsZero())

	rows, err := db.Metrics().MonthlyRevenue(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Empty(t, rows)

	top, err := db.Metrics().TopSellingProducts(ctx, ownerID, entity.TimeRange{}, 5)
	assert.NoError(t, err)
	assert.Empty(t, top)
}

func TestMetricsTenantIsolation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	_, restaurantA := seedOwner(t, db, "tenant-a@example.com")
	ownerB, _ := seedOwner(t, db, "tenant-b@example.com")
	seedMarch(t, db, restaurantA)

	rows, err := db.Metrics().MonthlyRevenue(ctx, ownerB, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Empty(t, rows)

	cost, err := db.Metrics().CancellationCost(ctx, ownerB, entity.TimeRange{})
	assert.NoError(t, err)
	assert.True(t, cost.Total.IsZero())

	heat, err := db.Metrics().OrdersHeatmap(ctx, ownerB, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Empty(t, heat)
}

func TestTopProductsAndStatusBreakdown(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	ownerID, restaurantID := seedOwner(t, db, "products@example.com")
	seedMarch(t, db, restaurantID)

	top, err := db.Metrics().TopSellingProducts(ctx, ownerID, entity.TimeRange{}, 5)
	assert.NoError(t, err)
	assert.Len(t, top, 3)
	assert.Equal(t, "Refrigerante", top[0].ProductName)
	assert.Equal(t, 2, top[0].TotalSold)

	byRevenue, err := db.Metrics().TopProductsByRevenue(ctx, ownerID, entity.TimeRange{}, 2)
	assert.NoError(t, err)
	assert.Len(t, byRevenue, 2)
	assert.Equal(t, "Pizza Calabresa", byRevenue[0].ProductName)

	cancelledTop, err := db.Metrics().TopCancelledProducts(ctx, ownerID, entity.TimeRange{}, 5)
	assert.NoError(t, err)
	assert.Len(t, cancelledTop, 1)
	assert.Equal(t, "Pizza Portuguesa", cancelledTop[0].ProductName)

	statuses, err := db.Metrics().OrdersByStatus(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, 1, s.Total)
	}
}

func TestDailyBreakdowns(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	ownerID, restaurantID := seedOwner(t, db, "daily@example.com")
	seedMarch(t, db, restaurantID)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	ov, err := db.Metrics().DailyOverview(ctx, ownerID, day)
	assert.NoError(t, err)
	assert.Equal(t, 1, ov.Orders)
	assert.True(t, ov.Revenue.Equal(decimal.NewFromFloat(89.90)))
	assert.Zero(t, ov.Cancellations)

	cum, err := db.Metrics().DailyCumulativeRevenue(ctx, ownerID, day)
	assert.NoError(t, err)
	assert.Len(t, cum, 1)
	assert.Equal(t, 12, cum[0].Hour)
	assert.True(t, cum[0].Cumulative.Equal(decimal.NewFromFloat(89.90)))

	accept, err := db.Metrics().DailyAcceptTimeByHour(ctx, ownerID, day)
	assert.NoError(t, err)
	assert.Len(t, accept, 1)
	assert.True(t, accept[0].AvgMinutes.Equal(decimal.NewFromInt(45)),
		"avg minutes = %s", accept[0].AvgMinutes)

	cancelDay := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	cancels, err := db.Metrics().DailyCancellationsByHour(ctx, ownerID, cancelDay)
	assert.NoError(t, err)
	assert.Len(t, cancels, 1)
	assert.Equal(t, 20, cancels[0].Hour)
	assert.Equal(t, 1, cancels[0].Total)
}

func TestNegativeFeedbacks(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	ownerID, restaurantID := seedOwner(t, db, "feedback@example.com")
	deliveredID, cancelledID := seedMarch(t, db, restaurantID)

	assert.NoError(t, db.Orders().AddFeedback(ctx, deliveredID, 4.5, "muito bom", "praise"))
	assert.NoError(t, db.Orders().AddFeedback(ctx, cancelledID, 1.0, "pedido cancelado", "complaint"))

	rows, err := db.Metrics().NegativeFeedbacks(ctx, ownerID, entity.TimeRange{}, 3)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, cancelledID, rows[0].OrderID)
	assert.Equal(t, "pedido cancelado", rows[0].Comment)

	// threshold below every rating filters everything out
	rows, err = db.Metrics().NegativeFeedbacks(ctx, ownerID, entity.TimeRange{}, 0.5)
	assert.NoError(t, err)
	assert.Empty(t, rows)

	avg, err := db.Metrics().AverageRatings(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Len(t, avg, 1)
	assert.True(t, avg[0].AvgRating.Equal(decimal.NewFromFloat(2.75)),
		"avg rating = %s", avg[0].AvgRating)
}

func TestWeeklyOrdersAndHeatmap(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()
	ownerID, restaurantID := seedOwner(t, db, "weekly@example.com")
	seedMarch(t, db, restaurantID)

	weeks, err := db.Metrics().WeeklyOrders(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	// 2025-03-10 and 2025-03-15 fall in the same ISO week starting Monday the 10th
	assert.Len(t, weeks, 1)
	assert.Equal(t, 2, weeks[0].Total)

	heat, err := db.Metrics().OrdersHeatmap(ctx, ownerID, entity.TimeRange{})
	assert.NoError(t, err)
	assert.Len(t, heat, 2)
	// 2025-03-10 is a Monday
	assert.Equal(t, 1, heat[0].Weekday)
	assert.Equal(t, 12, heat[0].Hour)
}
