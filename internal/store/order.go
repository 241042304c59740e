package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

type ordersStore struct {
	*MYSQLStore
}

// Orders returns an object implementing the dependency.Orders interface
func (ms *MYSQLStore) Orders() dependency.Orders {
	return &ordersStore{
		MYSQLStore: ms,
	}
}

// CreateOrder inserts the order header and all of its items inside one
// transaction. A failure at any point rolls everything back so the order
// either exists with all items or not at all.
func (os *ordersStore) CreateOrder(ctx context.Context, restaurantID int, orderNew *entity.OrderNew) (int, error) {
	if !orderNew.Status.IsValid() {
		return 0, fmt.Errorf("unknown order status %q", orderNew.Status)
	}

	var orderID int
	err := os.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		orderUUID := orderNew.ExternalID
		if orderUUID == "" {
			orderUUID = uuid.New().String()
		}
		placed := orderNew.Placed
		if placed.IsZero() {
			placed = rep.Now()
		}

		query := `
		INSERT INTO orders (uuid, customer_name, restaurant_id, placed, status, total_amount, delivered_at)
		VALUES (:uuid, :customerName, :restaurantId, :placed, :status, :totalAmount, :deliveredAt)`

		id, err := ExecNamedLastId(ctx, rep.DB(), query, map[string]any{
			"uuid":         orderUUID,
			"customerName": orderNew.CustomerName,
			"restaurantId": restaurantID,
			"placed":       placed,
			"status":       orderNew.Status.String(),
			"totalAmount":  orderNew.TotalAmount,
			"deliveredAt":  orderNew.DeliveredAt,
		})
		if err != nil {
			return fmt.Errorf("can't insert order: %w", err)
		}

		for _, item := range orderNew.Items {
			err := ExecNamed(ctx, rep.DB(), `
			INSERT INTO order_items (order_id, product_name, quantity, unit_price)
			VALUES (:orderId, :productName, :quantity, :unitPrice)`, map[string]any{
				"orderId":     id,
				"productName": item.ProductName,
				"quantity":    item.Quantity,
				"unitPrice":   item.UnitPrice,
			})
			if err != nil {
				return fmt.Errorf("can't insert order item: %w", err)
			}
		}

		orderID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (os *ordersStore) GetOrdersByOwner(ctx context.Context, ownerID int) ([]entity.OrderFull, error) {
	query := `
	SELECT o.id, o.uuid, o.customer_name, o.restaurant_id, o.placed, o.status,
		o.total_amount, o.cancellation_reason, o.delivered_at,
		r.name AS restaurant_name
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE r.owner_id = :ownerId
	ORDER BY o.placed DESC, o.id DESC`

	orders, err := QueryListNamed[entity.OrderFull](ctx, os.db, query, map[string]any{
		"ownerId": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get orders by owner: %w", err)
	}
	if len(orders) == 0 {
		return []entity.OrderFull{}, nil
	}

	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	items, err := QueryListNamed[entity.OrderItem](ctx, os.db, `
	SELECT id, order_id, product_name, quantity, unit_price
	FROM order_items
	WHERE order_id IN (:orderIds)
	ORDER BY id`, map[string]any{
		"orderIds": ids,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get order items: %w", err)
	}

	byOrder := make(map[int][]entity.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

func (os *ordersStore) GetOrderByIdForOwner(ctx context.Context, id, ownerID int) (*entity.OrderFull, error) {
	query := `
	SELECT o.id, o.uuid, o.customer_name, o.restaurant_id, o.placed, o.status,
		o.total_amount, o.cancellation_reason, o.delivered_at,
		r.name AS restaurant_name
	FROM orders o
	JOIN restaurants r ON r.id = o.restaurant_id
	WHERE o.id = :id AND r.owner_id = :ownerId`

	order, err := QueryNamedOne[entity.OrderFull](ctx, os.db, query, map[string]any{
		"id":      id,
		"ownerId": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get order %d: %w", id, err)
	}

	items, err := QueryListNamed[entity.OrderItem](ctx, os.db, `
	SELECT id, order_id, product_name, quantity, unit_price
	FROM order_items
	WHERE order_id = :orderId
	ORDER BY id`, map[string]any{
		"orderId": order.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get order items: %w", err)
	}
	order.Items = items
	return &order, nil
}

// AddFeedback writes a feedback row for an order. Feedback normally arrives
// from an external process; this entry point exists for seeding and tests.
func (os *ordersStore) AddFeedback(ctx context.Context, orderID int, rating float64, comment, feedbackType string) error {
	err := ExecNamed(ctx, os.db, `
	INSERT INTO feedbacks (order_id, rating, comment, feedback_type)
	VALUES (:orderId, :rating, :comment, :feedbackType)`, map[string]any{
		"orderId":      orderID,
		"rating":       rating,
		"comment":      comment,
		"feedbackType": feedbackType,
	})
	if err != nil {
		return fmt.Errorf("can't add feedback: %w", err)
	}
	return nil
}
