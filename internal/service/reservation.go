package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"boxoffice/internal/clock"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/logger"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
)

// DefaultHoldDuration is how long a HELD order keeps its inventory.
const DefaultHoldDuration = 15 * time.Minute

// LineItem is one requested line of a hold.
type LineItem struct {
	EventID    int64
	Quantity   int
	TicketType models.TicketType
	SeatID     *int64
}

// ReservationEngine drives orders through DRAFT -> HELD -> CONFIRMED or
// CANCELLED. It is the only writer of order status.
type ReservationEngine struct {
	tx       Transactor
	ledger   InventoryLedger
	orders   OrderStore
	payments PaymentAuthorizer
	notifier Notifier
	clock    clock.Clock
	holdFor  time.Duration
}

type ReservationOption func(*ReservationEngine)

// WithHoldDuration overrides DefaultHoldDuration. Non-positive values are ignored.
func WithHoldDuration(d time.Duration) ReservationOption {
	return func(e *ReservationEngine) {
		if d > 0 {
			e.holdFor = d
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c clock.Clock) ReservationOption {
	return func(e *ReservationEngine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithNotifier sets the notifier called after a confirmation commits, and
// after a cancellation when it implements CancellationNotifier.
func WithNotifier(n Notifier) ReservationOption {
	return func(e *ReservationEngine) {
		e.notifier = n
	}
}

func NewReservationEngine(tx Transactor, ledger InventoryLedger, orders OrderStore, payments PaymentAuthorizer, opts ...ReservationOption) *ReservationEngine {
	e := &ReservationEngine{
		tx:       tx,
		ledger:   ledger,
		orders:   orders,
		payments: payments,
		clock:    clock.NewSystem(),
		holdFor:  DefaultHoldDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HoldDuration returns the configured hold duration.
func (e *ReservationEngine) HoldDuration() time.Duration {
	return e.holdFor
}

// CreateHold reserves inventory for items in a single transaction and
// returns the HELD order. On any failure nothing is persisted.
func (e *ReservationEngine) CreateHold(ctx context.Context, userID int64, items []LineItem) (order *models.Order, err error) {
	start := time.Now()
	defer func() { metrics.ObserveHold(start, err) }()

	items, err = normalizeItems(items)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	err = e.tx.WithTx(ctx, func(ctx context.Context) error {
		events := make(map[int64]models.EventSnapshot)
		for _, id := range lockOrder(items) {
			snap, err := e.ledger.LockEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("lock event %d: %w", id, err)
			}
			events[id] = snap
		}

		orderID, err := e.orders.CreateDraft(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("create draft order: %w", err)
		}

		// Units added earlier in this order are not counted by ReservedCount
		// while the order is still DRAFT.
		pending := make(map[int64]int)
		for _, item := range items {
			if err := e.addLine(ctx, orderID, events[item.EventID], item, pending[item.EventID]); err != nil {
				return err
			}
			pending[item.EventID] += item.Quantity
		}

		if _, err := e.orders.RecomputeTotal(ctx, orderID); err != nil {
			return fmt.Errorf("recompute total: %w", err)
		}
		if err := e.orders.SetStatus(ctx, orderID, models.OrderStatusHeld); err != nil {
			return fmt.Errorf("hold order %d: %w", orderID, err)
		}
		expiresAt := now.Add(e.holdFor)
		if err := e.orders.SetExpiration(ctx, orderID, &expiresAt); err != nil {
			return fmt.Errorf("set expiration: %w", err)
		}

		order, err = e.orders.Get(ctx, orderID)
		return err
	})
	if err != nil {
		err = classify(err)
		logger.WithContext(ctx).Info("Hold rejected", "user_id", userID, "error", err)
		return nil, err
	}

	logger.WithContext(ctx).Info("Order held",
		"order_id", order.ID, "items", len(order.Items), "total", order.TotalPrice.StringFixed(2), "expires_at", order.ExpiresAt)
	return order, nil
}

func (e *ReservationEngine) addLine(ctx context.Context, orderID int64, event models.EventSnapshot, item LineItem, pending int) error {
	if !event.SalesOpen {
		return fmt.Errorf("event %d: %w", event.ID, apperrors.ErrSalesClosed)
	}

	reserved, err := e.ledger.ReservedCount(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("reserved count for event %d: %w", event.ID, err)
	}
	if available := event.Capacity - reserved - pending; available < item.Quantity {
		return fmt.Errorf("event %d has %d tickets left, %d requested: %w",
			event.ID, max(available, 0), item.Quantity, apperrors.ErrInsufficientCapacity)
	}

	unit := UnitPrice(CalculatePrice(BasePrice(item.TicketType), item.Quantity), item.Quantity)
	for range item.Quantity {
		if _, err := e.orders.AddItem(ctx, models.OrderItem{
			OrderID:    orderID,
			EventID:    event.ID,
			SeatID:     item.SeatID,
			TicketType: item.TicketType,
			Price:      unit,
		}); err != nil {
			return fmt.Errorf("add item: %w", err)
		}
	}

	if item.SeatID != nil {
		ok, err := e.ledger.TryReserveSeat(ctx, event.ID, *item.SeatID)
		if err != nil {
			return fmt.Errorf("reserve seat %d: %w", *item.SeatID, err)
		}
		if !ok {
			return fmt.Errorf("seat %d: %w", *item.SeatID, apperrors.ErrSeatUnavailable)
		}
	}
	return nil
}

// Confirm charges the order total and moves the order to CONFIRMED. A
// declined payment leaves the order HELD so the caller can retry; an expired
// hold is cancelled and reported as ErrExpired.
func (e *ReservationEngine) Confirm(ctx context.Context, orderID int64, paymentToken string) (order *models.Order, err error) {
	defer func() { metrics.ObserveConfirmation(err) }()

	var (
		expired  bool
		declined *models.PaymentResult
	)
	err = e.tx.WithTx(ctx, func(ctx context.Context) error {
		o, err := e.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %d: %w", orderID, err)
		}
		if o.Status != models.OrderStatusHeld {
			return fmt.Errorf("confirm order %d in status %s: %w", orderID, o.Status, apperrors.ErrInvalidState)
		}

		if o.ExpiresAt != nil && o.ExpiresAt.Before(e.clock.Now()) {
			expired = true
			order, err = e.cancelLocked(ctx, o)
			return err
		}

		result, err := e.payments.Authorize(ctx, o.TotalPrice, paymentToken)
		if err != nil {
			result = models.PaymentResult{Error: err.Error()}
		}

		status := models.PaymentStatusFailed
		if result.Success {
			status = models.PaymentStatusSuccess
		}
		if _, err := e.orders.RecordPayment(ctx, models.Payment{
			OrderID:    o.ID,
			Status:     status,
			GatewayRef: result.Reference,
			Amount:     o.TotalPrice,
			CreatedAt:  e.clock.Now(),
		}); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		if !result.Success {
			declined = &result
			return nil
		}

		if err := e.transition(ctx, o, models.OrderStatusConfirmed); err != nil {
			return err
		}
		if err := e.orders.SetExpiration(ctx, o.ID, nil); err != nil {
			return fmt.Errorf("clear expiration: %w", err)
		}

		order, err = e.orders.Get(ctx, o.ID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	log := logger.WithContext(ctx).With("order_id", orderID)
	switch {
	case expired:
		metrics.ObserveCancellation(metrics.SourceExpired)
		log.Info("Hold expired before confirmation")
		e.notifyCancelled(ctx, orderID, metrics.SourceExpired)
		return nil, fmt.Errorf("order %d: %w", orderID, apperrors.ErrExpired)
	case declined != nil:
		log.Info("Payment declined", "reason", declined.Error)
		return nil, fmt.Errorf("order %d: %s: %w", orderID, declined.Error, apperrors.ErrPaymentFailed)
	}

	log.Info("Order confirmed", "total", order.TotalPrice.StringFixed(2))
	e.notify(ctx, orderID)
	return order, nil
}

// Cancel releases the order's seats and moves it to CANCELLED. Confirmed
// orders cannot be cancelled.
func (e *ReservationEngine) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	return e.cancel(ctx, orderID, metrics.SourceUser)
}

func (e *ReservationEngine) cancel(ctx context.Context, orderID int64, source string) (*models.Order, error) {
	var order *models.Order
	err := e.tx.WithTx(ctx, func(ctx context.Context) error {
		o, err := e.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %d: %w", orderID, err)
		}
		order, err = e.cancelLocked(ctx, o)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	metrics.ObserveCancellation(source)
	logger.WithContext(ctx).Info("Order cancelled", "order_id", orderID, "source", source)
	e.notifyCancelled(ctx, orderID, source)
	return order, nil
}

// cancelLocked expects the caller to hold the order row lock.
func (e *ReservationEngine) cancelLocked(ctx context.Context, o *models.Order) (*models.Order, error) {
	if !o.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, fmt.Errorf("cancel order %d in status %s: %w", o.ID, o.Status, apperrors.ErrInvalidState)
	}

	for _, seatID := range o.SeatIDs() {
		if err := e.ledger.ReleaseSeat(ctx, seatID); err != nil {
			return nil, fmt.Errorf("release seat %d: %w", seatID, err)
		}
	}

	if err := e.transition(ctx, o, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	if err := e.orders.SetExpiration(ctx, o.ID, nil); err != nil {
		return nil, fmt.Errorf("clear expiration: %w", err)
	}

	return e.orders.Get(ctx, o.ID)
}

func (e *ReservationEngine) transition(ctx context.Context, o *models.Order, next models.OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("order %d: %s -> %s: %w", o.ID, o.Status, next, apperrors.ErrInvalidState)
	}
	if err := e.orders.SetStatus(ctx, o.ID, next); err != nil {
		return fmt.Errorf("set order %d status %s: %w", o.ID, next, err)
	}
	return nil
}

// GetOrder returns the order with its items.
func (e *ReservationEngine) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, classify(fmt.Errorf("order %d: %w", orderID, err))
	}
	return order, nil
}

func (e *ReservationEngine) notify(ctx context.Context, orderID int64) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyConfirmation(ctx, orderID); err != nil {
		logger.WithContext(ctx).Warn("Confirmation notification failed", "order_id", orderID, "error", err)
	}
}

// notifyCancelled is a no-op unless the notifier also implements
// CancellationNotifier.
func (e *ReservationEngine) notifyCancelled(ctx context.Context, orderID int64, reason string) {
	cn, ok := e.notifier.(CancellationNotifier)
	if !ok {
		return
	}
	if err := cn.NotifyCancellation(ctx, orderID, reason); err != nil {
		logger.WithContext(ctx).Warn("Cancellation notification failed", "order_id", orderID, "error", err)
	}
}

func normalizeItems(items []LineItem) ([]LineItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", apperrors.ErrInvalidRequest)
	}

	out := make([]LineItem, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity %d: %w", i, item.Quantity, apperrors.ErrInvalidRequest)
		}
		if item.TicketType == "" {
			item.TicketType = models.TicketTypeGeneral
		}
		if !item.TicketType.Valid() {
			return nil, fmt.Errorf("item %d: ticket type %q: %w", i, item.TicketType, apperrors.ErrInvalidRequest)
		}
		if item.SeatID != nil && item.Quantity != 1 {
			return nil, fmt.Errorf("item %d: a seat can only be sold once per item: %w", i, apperrors.ErrInvalidRequest)
		}
		out[i] = item
	}
	return out, nil
}

// lockOrder returns the distinct event ids in ascending order. Every
// transaction locks events in this order so multi-event holds cannot deadlock.
func lockOrder(items []LineItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.EventID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// classify wraps errors outside the reservation taxonomy as storage failures.
func classify(err error) error {
	if err == nil || apperrors.IsDomain(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrStorageFailure, err)
}
