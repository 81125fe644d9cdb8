package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boxoffice/internal/database"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

// LedgerRepository implements the inventory ledger on the events and seats
// tables. Lock-dependent calls must run inside DB.WithTx.
type LedgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) LockEvent(ctx context.Context, eventID int64) (models.EventSnapshot, error) {
	if !database.InTx(ctx) {
		return models.EventSnapshot{}, errors.New("lock event: no transaction in context")
	}

	var snap models.EventSnapshot
	query := `SELECT id, capacity, sales_open FROM events WHERE id = $1 FOR UPDATE`
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, eventID).Scan(&snap.ID, &snap.Capacity, &snap.SalesOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("lock event %d: %w", eventID, err)
	}
	return snap, nil
}

func (r *LedgerRepository) ReservedCount(ctx context.Context, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.event_id = $1 AND o.status IN ('HELD', 'CONFIRMED')`

	var count int
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reserved for event %d: %w", eventID, err)
	}
	return count, nil
}

// TryReserveSeat is a compare-and-set on the seat row. A concurrent writer
// blocks on the row lock and re-evaluates the predicate after commit.
func (r *LedgerRepository) TryReserveSeat(ctx context.Context, eventID, seatID int64) (bool, error) {
	query := `UPDATE seats SET is_reserved = TRUE WHERE id = $1 AND event_id = $2 AND is_reserved = FALSE`
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, seatID, eventID)
	if err != nil {
		return false, fmt.Errorf("reserve seat %d: %w", seatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *LedgerRepository) ReleaseSeat(ctx context.Context, seatID int64) error {
	query := `UPDATE seats SET is_reserved = FALSE WHERE id = $1`
	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, seatID); err != nil {
		return fmt.Errorf("release seat %d: %w", seatID, err)
	}
	return nil
}
