package service

import (
	"context"
	"time"

	"boxoffice/internal/models"

	"github.com/shopspring/decimal"
)

// Transactor opens the transaction that every ledger and store call made
// with the callback's context joins.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InventoryLedger holds per-event capacity and per-seat reservation flags.
type InventoryLedger interface {
	// LockEvent takes an exclusive row lock on the event for the rest of the
	// transaction, blocking while another transaction holds it.
	LockEvent(ctx context.Context, eventID int64) (models.EventSnapshot, error)
	// ReservedCount counts items of HELD and CONFIRMED orders for the event.
	ReservedCount(ctx context.Context, eventID int64) (int, error)
	// TryReserveSeat flips is_reserved from false to true. It returns false
	// when the seat is taken or is not a seat of eventID.
	TryReserveSeat(ctx context.Context, eventID, seatID int64) (bool, error)
	// ReleaseSeat clears is_reserved. Releasing a free seat is a no-op.
	ReleaseSeat(ctx context.Context, seatID int64) error
}

// OrderStore persists orders, their items and payment attempts.
type OrderStore interface {
	CreateDraft(ctx context.Context, userID int64, createdAt time.Time) (int64, error)
	AddItem(ctx context.Context, item models.OrderItem) (int64, error)
	SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) error
	SetExpiration(ctx context.Context, orderID int64, expiresAt *time.Time) error
	Get(ctx context.Context, orderID int64) (*models.Order, error)
	// GetForUpdate is Get plus an exclusive lock on the order row.
	GetForUpdate(ctx context.Context, orderID int64) (*models.Order, error)
	ExpiredHeldOrders(ctx context.Context, now time.Time) ([]int64, error)
	RecomputeTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
	RecordPayment(ctx context.Context, payment models.Payment) (int64, error)
}

// PaymentAuthorizer approves or declines a payment token for an amount.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, amount decimal.Decimal, token string) (models.PaymentResult, error)
}

// Notifier is told about confirmed orders after commit.
type Notifier interface {
	NotifyConfirmation(ctx context.Context, orderID int64) error
}

// CancellationNotifier is optionally implemented by a Notifier that also
// wants to hear about cancelled orders. reason is "user" or "expired".
type CancellationNotifier interface {
	NotifyCancellation(ctx context.Context, orderID int64, reason string) error
}
