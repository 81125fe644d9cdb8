package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

// eventStore exposes the event catalog methods of Store. They live on a
// separate type because their names collide with the order store.
type eventStore struct {
	s *Store
}

func (e eventStore) Create(ctx context.Context, event *models.Event) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.id()
	s.events[event.ID] = *event
	id := event.ID
	onRollback(ctx, func() { delete(s.events, id) })
	return nil
}

func (e eventStore) CreateSeats(ctx context.Context, eventID int64, rows, seatsPerRow int) error {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	for r := 0; r < rows; r++ {
		for c := 1; c <= seatsPerRow; c++ {
			row, label := service.SeatLabel(r, c)
			id := s.id()
			s.seats[id] = models.Seat{ID: id, EventID: eventID, Label: label, Row: row, Col: c}
			onRollback(ctx, func() { delete(s.seats, id) })
		}
	}
	return nil
}

func (e eventStore) GetByID(ctx context.Context, eventID int64) (*models.Event, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return &event, nil
}

func (e eventStore) SetSalesOpen(ctx context.Context, eventID int64, open bool) error {
	s := e.s
	if err := s.lockRow(ctx, eventKey(eventID)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	next := prev
	next.SalesOpen = open
	s.events[eventID] = next
	onRollback(ctx, func() { s.events[eventID] = prev })
	return nil
}

func (e eventStore) AvailableSeats(ctx context.Context, eventID int64) ([]models.Seat, error) {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var seats []models.Seat
	for _, seat := range s.seats {
		if seat.EventID == eventID && !seat.IsReserved {
			seats = append(seats, seat)
		}
	}
	slices.SortFunc(seats, func(a, b models.Seat) int {
		if c := strings.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return a.Col - b.Col
	})
	return seats, nil
}
