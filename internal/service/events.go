package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"boxoffice/internal/clock"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/logger"
	"boxoffice/internal/models"
)

// MaxSeatRows is the number of row letters available (A..Z).
const MaxSeatRows = 26

// EventStore persists events and their seat maps.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	CreateSeats(ctx context.Context, eventID int64, rows, seatsPerRow int) error
	GetByID(ctx context.Context, eventID int64) (*models.Event, error)
	SetSalesOpen(ctx context.Context, eventID int64, open bool) error
	AvailableSeats(ctx context.Context, eventID int64) ([]models.Seat, error)
}

// Availability summarizes remaining capacity of an event.
type Availability struct {
	EventID   int64
	Capacity  int
	Reserved  int
	Available int
	SalesOpen bool
	CanBook   bool
}

type EventService struct {
	tx     Transactor
	events EventStore
	ledger InventoryLedger
	clock  clock.Clock
}

func NewEventService(tx Transactor, events EventStore, ledger InventoryLedger, clk clock.Clock) *EventService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &EventService{
		tx:     tx,
		events: events,
		ledger: ledger,
		clock:  clk,
	}
}

// Create stores a new event with sales closed and an optional seat grid.
func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive: %w", apperrors.ErrInvalidRequest)
	}
	if !req.StartsAt.After(s.clock.Now()) {
		return nil, fmt.Errorf("event must start in the future: %w", apperrors.ErrInvalidRequest)
	}
	if req.SeatRows < 0 || req.SeatsPerRow < 0 || req.SeatRows > MaxSeatRows {
		return nil, fmt.Errorf("invalid seat grid %dx%d: %w", req.SeatRows, req.SeatsPerRow, apperrors.ErrInvalidRequest)
	}
	if req.SeatRows*req.SeatsPerRow > req.Capacity {
		return nil, fmt.Errorf("seat grid exceeds capacity %d: %w", req.Capacity, apperrors.ErrInvalidRequest)
	}

	event := &models.Event{
		Name:      req.Name,
		StartsAt:  req.StartsAt.UTC(),
		Capacity:  req.Capacity,
		CreatedAt: s.clock.Now(),
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		if req.SeatRows > 0 && req.SeatsPerRow > 0 {
			if err := s.events.CreateSeats(ctx, event.ID, req.SeatRows, req.SeatsPerRow); err != nil {
				return fmt.Errorf("failed to create seats for event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	logger.WithContext(ctx).Info("Event created", "event_id", event.ID, "capacity", event.Capacity)
	return event, nil
}

// CheckAvailability reports whether quantity tickets could be held right now.
// The answer is advisory; CreateHold re-checks under the event lock.
func (s *EventService) CheckAvailability(ctx context.Context, eventID int64, quantity int) (*Availability, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, classify(fmt.Errorf("event %d: %w", eventID, err))
	}

	reserved, err := s.ledger.ReservedCount(ctx, eventID)
	if err != nil {
		return nil, classify(fmt.Errorf("reserved count for event %d: %w", eventID, err))
	}

	available := max(event.Capacity-reserved, 0)
	return &Availability{
		EventID:   eventID,
		Capacity:  event.Capacity,
		Reserved:  reserved,
		Available: available,
		SalesOpen: event.SalesOpen,
		CanBook:   event.SalesOpen && available >= quantity,
	}, nil
}

func (s *EventService) OpenSales(ctx context.Context, eventID int64) (*models.Event, error) {
	return s.setSales(ctx, eventID, true)
}

func (s *EventService) CloseSales(ctx context.Context, eventID int64) (*models.Event, error) {
	return s.setSales(ctx, eventID, false)
}

// setSales takes the event lock so the flag never flips under a running hold.
func (s *EventService) setSales(ctx context.Context, eventID int64, open bool) (*models.Event, error) {
	var event *models.Event
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.LockEvent(ctx, eventID); err != nil {
			return fmt.Errorf("event %d: %w", eventID, err)
		}
		if err := s.events.SetSalesOpen(ctx, eventID, open); err != nil {
			return fmt.Errorf("event %d: %w", eventID, err)
		}
		var err error
		event, err = s.events.GetByID(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	logger.WithContext(ctx).Info("Event sales updated", "event_id", eventID, "sales_open", open)
	return event, nil
}

// BestSeat picks the free seat closest to the stage: lowest row letter,
// then lowest column.
func (s *EventService) BestSeat(ctx context.Context, eventID int64) (*models.Seat, error) {
	seats, err := s.events.AvailableSeats(ctx, eventID)
	if err != nil {
		return nil, classify(fmt.Errorf("seats for event %d: %w", eventID, err))
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("no free seats for event %d: %w", eventID, apperrors.ErrNotFound)
	}

	best := slices.MinFunc(seats, func(a, b models.Seat) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	return &best, nil
}

// SeatLabel returns the label of the seat at row index r (0 = A) and column c.
func SeatLabel(r, c int) (row, label string) {
	row = string(rune('A' + r))
	return row, fmt.Sprintf("%s%d", row, c)
}
