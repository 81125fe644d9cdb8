package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boxoffice/internal/database"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, starts_at, capacity, sales_open, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		event.Name,
		event.StartsAt,
		event.Capacity,
		event.SalesOpen,
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// CreateSeats inserts a rows x seatsPerRow grid labelled A1, A2, ... B1, ...
func (r *EventRepository) CreateSeats(ctx context.Context, eventID int64, rows, seatsPerRow int) error {
	query := `
		INSERT INTO seats (event_id, label, row_label, col)
		VALUES ($1, $2, $3, $4)`

	q := r.db.Conn(ctx)
	for row := 0; row < rows; row++ {
		for col := 1; col <= seatsPerRow; col++ {
			rowLabel, label := service.SeatLabel(row, col)
			if _, err := q.ExecContext(ctx, query, eventID, label, rowLabel, col); err != nil {
				return fmt.Errorf("insert seat %s: %w", label, err)
			}
		}
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, eventID int64) (*models.Event, error) {
	query := `
		SELECT id, name, starts_at, capacity, sales_open, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.Name,
		&event.StartsAt,
		&event.Capacity,
		&event.SalesOpen,
		&event.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select event %d: %w", eventID, err)
	}
	return event, nil
}

func (r *EventRepository) SetSalesOpen(ctx context.Context, eventID int64, open bool) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE events SET sales_open = $2 WHERE id = $1`, eventID, open)
	if err != nil {
		return fmt.Errorf("update event %d: %w", eventID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *EventRepository) AvailableSeats(ctx context.Context, eventID int64) ([]models.Seat, error) {
	return r.seats(ctx, `
		SELECT id, event_id, label, row_label, col, is_reserved
		FROM seats
		WHERE event_id = $1 AND is_reserved = FALSE
		ORDER BY row_label, col`, eventID)
}

// SeatByID returns a single seat, including its reservation flag.
func (r *EventRepository) SeatByID(ctx context.Context, seatID int64) (*models.Seat, error) {
	seats, err := r.seats(ctx, `
		SELECT id, event_id, label, row_label, col, is_reserved
		FROM seats
		WHERE id = $1`, seatID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("seat %d: %w", seatID, apperrors.ErrNotFound)
	}
	return &seats[0], nil
}

func (r *EventRepository) seats(ctx context.Context, query string, arg int64) ([]models.Seat, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select seats: %w", err)
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		if err := rows.Scan(
			&seat.ID,
			&seat.EventID,
			&seat.Label,
			&seat.Row,
			&seat.Col,
			&seat.IsReserved,
		); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}
