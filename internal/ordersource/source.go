// Package ordersource provides feeds of incoming marketplace orders.
package ordersource

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ifooddash/dashboard/internal/entity"
)

// Mock is an in-process order feed that returns a fixed batch on every
// fetch. It stands in for the marketplace integration until a real feed
// is wired up.
type Mock struct{}

// NewMock creates a mock order source.
func NewMock() *Mock {
	return &Mock{}
}

// FetchOrders returns the canned order batch with Placed set to the
// current time.
func (m *Mock) FetchOrders(_ context.Context) ([]entity.OrderNew, error) {
	now := time.Now()
	return []entity.OrderNew{
		{
			ExternalID:   "IF123456",
			CustomerName: "Allan Baeza",
			Placed:       now,
			Status:       entity.OrderStatusDelivered,
			TotalAmount:  decimal.NewFromFloat(89.90),
			Items: []entity.OrderItemNew{
				{ProductName: "Pizza Calabresa", Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
				{ProductName: "Refrigerante", Quantity: 2, UnitPrice: decimal.NewFromFloat(19.95)},
			},
		},
	}, nil
}

// Ingest is a no-op for the mock feed: imported orders land in the
// orders table synchronously via the import endpoint, so there is
// nothing to pull before aggregation.
func (m *Mock) Ingest(_ context.Context) error {
	return nil
}
