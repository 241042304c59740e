package entity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order lifecycle states. The service does
// not enforce a transition graph, only set membership on writes.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusInProgress     OrderStatus = "in_progress"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// ValidOrderStatuses lists every status accepted on writes.
var ValidOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusInProgress,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	for _, vs := range ValidOrderStatuses {
		if s == vs {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus validates a raw status string against the closed set.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

// Order represents the orders table.
type Order struct {
	ID                 int             `db:"id" json:"id"`
	UUID               string          `db:"uuid" json:"uuid"`
	CustomerName       string          `db:"customer_name" json:"customer_name"`
	RestaurantID       int             `db:"restaurant_id" json:"restaurant_id"`
	Placed             time.Time       `db:"placed" json:"placed"`
	Status             OrderStatus     `db:"status" json:"status"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	CancellationReason sql.NullString  `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	DeliveredAt        sql.NullTime    `db:"delivered_at" json:"delivered_at,omitempty"`
}

// OrderItem represents the order_items table. Items are written atomically
// with their parent order.
type OrderItem struct {
	ID          int             `db:"id" json:"id"`
	OrderID     int             `db:"order_id" json:"order_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// OrderFull is an order with its line items and the owning unit's name,
// the shape served by GET /orders.
type OrderFull struct {
	Order
	RestaurantName string      `db:"restaurant_name" json:"restaurant_name"`
	Items          []OrderItem `json:"items"`
}

// OrderNew is one incoming order from an order source, before persistence.
type OrderNew struct {
	ExternalID   string          `json:"external_id"`
	CustomerName string          `json:"customer_name" valid:"required"`
	Placed       time.Time       `json:"placed"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	Items        []OrderItemNew  `json:"items" valid:"required"`
}

type OrderItemNew struct {
	ProductName string          `json:"product_name" valid:"required"`
	Quantity    int             `json:"quantity" valid:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
