package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coinview/exchange/internal/models"
)

// OrderRepository owns the read/write path to the orders table.
type OrderRepository struct {
	pool Querier
}

// NewOrderRepository creates a new order repository over a shared pool.
func NewOrderRepository(pool Querier) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new open order and returns the persisted row.
func (r *OrderRepository) Create(ctx context.Context, userID uuid.UUID, side string, price, qty decimal.Decimal) (*models.Order, error) {
	if side != models.SideBuy && side != models.SideSell {
		return nil, fmt.Errorf("side must be %q or %q", models.SideBuy, models.SideSell)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("price must be positive")
	}
	if !qty.IsPositive() {
		return nil, fmt.Errorf("qty must be positive")
	}

	order := &models.Order{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, side, price, qty, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, side, price, qty, status, created_at`,
		uuid.New(), userID, side, price, qty, models.OrderStatusOpen, time.Now().UTC()).Scan(
		&order.ID, &order.UserID, &order.Side, &order.Price, &order.Qty, &order.Status, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// FindByID retrieves an order by id. Returns (nil, nil) when no order exists.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, side, price, qty, status, created_at FROM orders WHERE id = $1`,
		id).Scan(&order.ID, &order.UserID, &order.Side, &order.Price, &order.Qty, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// FindByUser retrieves all orders for a user, newest first.
func (r *OrderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, side, price, qty, status, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// FindOpen retrieves all open orders, oldest first. FIFO ordering among open
// orders is part of the contract: future matching depends on it.
func (r *OrderRepository) FindOpen(ctx context.Context) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, side, price, qty, status, created_at
		 FROM orders WHERE status = 'open' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get open orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// UpdateStatus transitions an open order to filled or cancelled and returns
// the updated row. Orders never move back to open, and a settled order stays
// settled: the target status is restricted and the WHERE predicate only
// matches rows still open. Returns ErrNotFound if no open row matched.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	if status != models.OrderStatusFilled && status != models.OrderStatusCancelled {
		return nil, fmt.Errorf("status must be %q or %q", models.OrderStatusFilled, models.OrderStatusCancelled)
	}

	order := &models.Order{}
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = 'open'
		 RETURNING id, user_id, side, price, qty, status, created_at`,
		status, id).Scan(&order.ID, &order.UserID, &order.Side, &order.Price, &order.Qty, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s not open: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}

// Cancel cancels an order if it belongs to the user and is still open.
// Returns ErrNotFound when the predicate matched no row: the order is
// missing, owned by someone else, or no longer open. The single conditional
// UPDATE makes the status check and the write one atomic statement.
func (r *OrderRepository) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = 'cancelled'
		 WHERE id = $1 AND user_id = $2 AND status = 'open'
		 RETURNING id, user_id, side, price, qty, status, created_at`,
		id, userID).Scan(&order.ID, &order.UserID, &order.Side, &order.Price, &order.Qty, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s not open or not owned by user: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	return order, nil
}

func scanOrders(rows pgx.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Side, &o.Price, &o.Qty, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}
