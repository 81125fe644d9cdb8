// Package memstore is an in-memory implementation of the reservation
// storage interfaces. It emulates blocking row locks and transactional
// rollback; reads outside a lock may observe uncommitted writes.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/service"

	"github.com/shopspring/decimal"
)

type Store struct {
	locks lockTable

	mu       sync.Mutex
	nextID   int64
	events   map[int64]models.Event
	seats    map[int64]models.Seat
	orders   map[int64]models.Order
	items    map[int64][]models.OrderItem
	payments map[int64][]models.Payment
}

func New() *Store {
	return &Store{
		events:   make(map[int64]models.Event),
		seats:    make(map[int64]models.Seat),
		orders:   make(map[int64]models.Order),
		items:    make(map[int64][]models.OrderItem),
		payments: make(map[int64][]models.Payment),
	}
}

func (s *Store) Ledger() service.InventoryLedger { return s }
func (s *Store) Orders() service.OrderStore      { return s }
func (s *Store) Events() service.EventStore      { return eventStore{s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddEvent inserts an event directly, bypassing validation.
func (s *Store) AddEvent(capacity int, salesOpen bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.events[id] = models.Event{ID: id, Name: fmt.Sprintf("event-%d", id), Capacity: capacity, SalesOpen: salesOpen}
	return id
}

// AddSeat inserts a free seat for eventID.
func (s *Store) AddSeat(eventID int64, row string, col int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.seats[id] = models.Seat{ID: id, EventID: eventID, Label: fmt.Sprintf("%s%d", row, col), Row: row, Col: col}
	return id
}

// Seat returns a copy of the seat.
func (s *Store) Seat(id int64) (models.Seat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	return seat, ok
}

// Payments returns the recorded payment attempts of an order.
func (s *Store) Payments(orderID int64) []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.payments[orderID])
}

// Inventory ledger

func (s *Store) LockEvent(ctx context.Context, eventID int64) (models.EventSnapshot, error) {
	if txFrom(ctx) == nil {
		return models.EventSnapshot{}, fmt.Errorf("lock event: %w", errNoTx)
	}
	if err := s.lockRow(ctx, eventKey(eventID)); err != nil {
		return models.EventSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return models.EventSnapshot{}, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return models.EventSnapshot{ID: e.ID, Capacity: e.Capacity, SalesOpen: e.SalesOpen}, nil
}

func (s *Store) ReservedCount(ctx context.Context, eventID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for orderID, items := range s.items {
		status := s.orders[orderID].Status
		if status != models.OrderStatusHeld && status != models.OrderStatusConfirmed {
			continue
		}
		for _, item := range items {
			if item.EventID == eventID {
				count++
			}
		}
	}
	return count, nil
}

func (s *Store) TryReserveSeat(ctx context.Context, eventID, seatID int64) (bool, error) {
	if err := s.lockRow(ctx, seatKey(seatID)); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[seatID]
	if !ok || seat.EventID != eventID || seat.IsReserved {
		return false, nil
	}
	seat.IsReserved = true
	s.seats[seatID] = seat
	onRollback(ctx, func() {
		seat.IsReserved = false
		s.seats[seatID] = seat
	})
	return true, nil
}

func (s *Store) ReleaseSeat(ctx context.Context, seatID int64) error {
	if err := s.lockRow(ctx, seatKey(seatID)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[seatID]
	if !ok || !seat.IsReserved {
		return nil
	}
	seat.IsReserved = false
	s.seats[seatID] = seat
	onRollback(ctx, func() {
		seat.IsReserved = true
		s.seats[seatID] = seat
	})
	return nil
}

// Order store

func (s *Store) CreateDraft(ctx context.Context, userID int64, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	id := s.id()
	s.orders[id] = models.Order{
		ID:         id,
		UserID:     userID,
		Status:     models.OrderStatusDraft,
		TotalPrice: decimal.Zero,
		CreatedAt:  createdAt,
	}
	onRollback(ctx, func() {
		delete(s.orders, id)
		delete(s.items, id)
	})
	s.mu.Unlock()

	return id, s.lockRow(ctx, orderKey(id))
}

func (s *Store) AddItem(ctx context.Context, item models.OrderItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[item.OrderID]; !ok {
		return 0, fmt.Errorf("order %d: %w", item.OrderID, apperrors.ErrNotFound)
	}
	item.ID = s.id()
	if item.SeatID != nil {
		seatID := *item.SeatID
		item.SeatID = &seatID
	}
	s.items[item.OrderID] = append(s.items[item.OrderID], item)
	onRollback(ctx, func() {
		items := s.items[item.OrderID]
		s.items[item.OrderID] = slices.DeleteFunc(items, func(it models.OrderItem) bool { return it.ID == item.ID })
	})
	return item.ID, nil
}

func (s *Store) SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	return s.updateOrder(ctx, orderID, func(o *models.Order) { o.Status = status })
}

func (s *Store) SetExpiration(ctx context.Context, orderID int64, expiresAt *time.Time) error {
	return s.updateOrder(ctx, orderID, func(o *models.Order) {
		if expiresAt == nil {
			o.ExpiresAt = nil
			return
		}
		t := *expiresAt
		o.ExpiresAt = &t
	})
}

func (s *Store) RecomputeTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.updateOrder(ctx, orderID, func(o *models.Order) {
		total = decimal.Zero
		for _, item := range s.items[orderID] {
			total = total.Add(item.Price)
		}
		o.TotalPrice = total
	})
	return total, err
}

// updateOrder applies fn under the order row lock and records the previous
// value for rollback.
func (s *Store) updateOrder(ctx context.Context, orderID int64, fn func(o *models.Order)) error {
	if err := s.lockRow(ctx, orderKey(orderID)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, apperrors.ErrNotFound)
	}
	next := prev
	fn(&next)
	s.orders[orderID] = next
	onRollback(ctx, func() { s.orders[orderID] = prev })
	return nil
}

func (s *Store) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(orderID)
}

func (s *Store) GetForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	if txFrom(ctx) == nil {
		return nil, fmt.Errorf("lock order: %w", errNoTx)
	}
	if err := s.lockRow(ctx, orderKey(orderID)); err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// snapshot returns a deep copy. Callers hold s.mu.
func (s *Store) snapshot(orderID int64) (*models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, apperrors.ErrNotFound)
	}
	if o.ExpiresAt != nil {
		t := *o.ExpiresAt
		o.ExpiresAt = &t
	}
	o.Items = slices.Clone(s.items[orderID])
	return &o, nil
}

func (s *Store) ExpiredHeldOrders(ctx context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusHeld && o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
			expired = append(expired, o)
		}
	}
	slices.SortFunc(expired, func(a, b models.Order) int {
		if c := a.ExpiresAt.Compare(*b.ExpiresAt); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})

	ids := make([]int64, len(expired))
	for i, o := range expired {
		ids[i] = o.ID
	}
	return ids, nil
}

func (s *Store) RecordPayment(ctx context.Context, payment models.Payment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment.ID = s.id()
	s.payments[payment.OrderID] = append(s.payments[payment.OrderID], payment)
	onRollback(ctx, func() {
		ps := s.payments[payment.OrderID]
		s.payments[payment.OrderID] = slices.DeleteFunc(ps, func(p models.Payment) bool { return p.ID == payment.ID })
	})
	return payment.ID, nil
}
