package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boxoffice/internal/database"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"

	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateDraft(ctx context.Context, userID int64, createdAt time.Time) (int64, error) {
	query := `
		INSERT INTO orders (user_id, status, total_price, created_at)
		VALUES ($1, 'DRAFT', 0, $2)
		RETURNING id`

	var id int64
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, userID, createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (r *OrderRepository) AddItem(ctx context.Context, item models.OrderItem) (int64, error) {
	query := `
		INSERT INTO order_items (order_id, event_id, seat_id, ticket_type, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		item.OrderID,
		item.EventID,
		item.SeatID,
		item.TicketType,
		item.Price,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order item: %w", err)
	}
	return id, nil
}

func (r *OrderRepository) SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	return r.exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
}

func (r *OrderRepository) SetExpiration(ctx context.Context, orderID int64, expiresAt *time.Time) error {
	return r.exec(ctx, `UPDATE orders SET expires_at = $2 WHERE id = $1`, orderID, expiresAt)
}

func (r *OrderRepository) exec(ctx context.Context, query string, orderID int64, arg any) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, orderID, arg)
	if err != nil {
		return fmt.Errorf("update order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", orderID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.get(ctx, orderID, false)
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	if !database.InTx(ctx) {
		return nil, errors.New("lock order: no transaction in context")
	}
	return r.get(ctx, orderID, true)
}

func (r *OrderRepository) get(ctx context.Context, orderID int64, forUpdate bool) (*models.Order, error) {
	query := `
		SELECT id, user_id, status, total_price, created_at, expires_at
		FROM orders
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	q := r.db.Conn(ctx)
	order := &models.Order{}
	err := q.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalPrice,
		&order.CreatedAt,
		&order.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", orderID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select order %d: %w", orderID, err)
	}

	items, err := r.items(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *OrderRepository) items(ctx context.Context, q database.Querier, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, event_id, seat_id, ticket_type, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("select items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.EventID,
			&item.SeatID,
			&item.TicketType,
			&item.Price,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) ExpiredHeldOrders(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT id FROM orders
		WHERE status = 'HELD' AND expires_at <= $1
		ORDER BY expires_at, id`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("select expired holds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *OrderRepository) RecomputeTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	query := `
		UPDATE orders
		SET total_price = (SELECT COALESCE(SUM(price), 0) FROM order_items WHERE order_id = $1)
		WHERE id = $1
		RETURNING total_price`

	var total decimal.Decimal
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, orderID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return total, fmt.Errorf("order %d: %w", orderID, apperrors.ErrNotFound)
	}
	if err != nil {
		return total, fmt.Errorf("recompute total of order %d: %w", orderID, err)
	}
	return total, nil
}

func (r *OrderRepository) RecordPayment(ctx context.Context, payment models.Payment) (int64, error) {
	query := `
		INSERT INTO payments (order_id, status, gateway_ref, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		payment.OrderID,
		payment.Status,
		payment.GatewayRef,
		payment.Amount,
		payment.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

// Payments lists the payment attempts of an order, oldest first.
func (r *OrderRepository) Payments(ctx context.Context, orderID int64) ([]models.Payment, error) {
	query := `
		SELECT id, order_id, status, gateway_ref, amount, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("select payments of order %d: %w", orderID, err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Status, &p.GatewayRef, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
