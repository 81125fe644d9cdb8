package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusHeld      OrderStatus = "HELD"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// CanTransitionTo reports whether moving from s to next follows
// DRAFT -> HELD -> {CONFIRMED | CANCELLED}. DRAFT may also be cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return next == OrderStatusHeld || next == OrderStatusCancelled
	case OrderStatusHeld:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusCancelled
}

// TicketType selects the base price of an order item.
type TicketType string

const (
	TicketTypeGeneral TicketType = "GENERAL"
	TicketTypeVIP     TicketType = "VIP"
)

func (t TicketType) Valid() bool {
	return t == TicketTypeGeneral || t == TicketTypeVIP
}

// PaymentStatus is the outcome recorded for a confirmation attempt.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Event represents a sellable event
type Event struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	Capacity  int       `json:"capacity" db:"capacity"`
	SalesOpen bool      `json:"sales_open" db:"sales_open"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EventSnapshot is the part of an event read under its row lock.
type EventSnapshot struct {
	ID        int64
	Capacity  int
	SalesOpen bool
}

// Seat represents a seat for an event
type Seat struct {
	ID         int64  `json:"id" db:"id"`
	EventID    int64  `json:"event_id" db:"event_id"`
	Label      string `json:"label" db:"label"`
	Row        string `json:"row" db:"row_label"`
	Col        int    `json:"col" db:"col"`
	IsReserved bool   `json:"is_reserved" db:"is_reserved"`
}

// Order represents a customer order
type Order struct {
	ID         int64           `json:"id" db:"id"`
	UserID     int64           `json:"user_id" db:"user_id"`
	Status     OrderStatus     `json:"status" db:"status"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	ExpiresAt  *time.Time      `json:"expires_at" db:"expires_at"`
	Items      []OrderItem     `json:"items"` // Not from DB, filled separately
}

// SeatIDs returns the seats referenced by the order's items.
func (o *Order) SeatIDs() []int64 {
	var ids []int64
	for _, item := range o.Items {
		if item.SeatID != nil {
			ids = append(ids, *item.SeatID)
		}
	}
	return ids
}

// OrderItem is a single ticket unit of an order
type OrderItem struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	EventID    int64           `json:"event_id" db:"event_id"`
	SeatID     *int64          `json:"seat_id" db:"seat_id"`
	TicketType TicketType      `json:"ticket_type" db:"ticket_type"`
	Price      decimal.Decimal `json:"price" db:"price"`
}

// Payment is an append-only record of a confirmation attempt
type Payment struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	Status     PaymentStatus   `json:"status" db:"status"`
	GatewayRef string          `json:"gateway_ref" db:"gateway_ref"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// PaymentResult is the answer of a payment authorizer.
type PaymentResult struct {
	Success   bool
	Reference string
	Error     string
}
