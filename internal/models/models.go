package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest - строка заказа
type OrderItemRequest struct {
	EventID    int64      `json:"event_id" binding:"required"`
	Quantity   int        `json:"quantity" binding:"required,min=1"`
	TicketType TicketType `json:"ticket_type,omitempty"`
	SeatID     *int64     `json:"seat_id,omitempty"`
}

// CreateOrderRequest - модель для создания заказа с удержанием
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ConfirmOrderRequest - модель для подтверждения заказа оплатой
type ConfirmOrderRequest struct {
	PaymentToken string `json:"payment_token" binding:"required"`
}

// OrderResponse - модель ответа с заказом
type OrderResponse struct {
	ID         int64               `json:"id"`
	Status     OrderStatus         `json:"status"`
	TotalPrice decimal.Decimal     `json:"total_price"`
	CreatedAt  time.Time           `json:"created_at"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`
	Items      []OrderItemResponse `json:"items"`
}

// OrderItemResponse - элемент заказа
type OrderItemResponse struct {
	ID         int64           `json:"id"`
	EventID    int64           `json:"event_id"`
	SeatID     *int64          `json:"seat_id,omitempty"`
	TicketType TicketType      `json:"ticket_type"`
	Price      decimal.Decimal `json:"price"`
}

// NewOrderResponse builds the API view of an order.
func NewOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:         o.ID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		ExpiresAt:  o.ExpiresAt,
		Items:      make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:         item.ID,
			EventID:    item.EventID,
			SeatID:     item.SeatID,
			TicketType: item.TicketType,
			Price:      item.Price,
		})
	}
	return resp
}

// CreateEventRequest - модель для создания события
type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required"`
	SeatRows    int       `json:"seat_rows,omitempty"`
	SeatsPerRow int       `json:"seats_per_row,omitempty"`
}

// CreateEventResponse - модель ответа при создании события
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// AvailabilityResponse - доступность билетов на событие
type AvailabilityResponse struct {
	EventID   int64 `json:"event_id"`
	Capacity  int   `json:"capacity"`
	Reserved  int   `json:"reserved"`
	Available int   `json:"available"`
	SalesOpen bool  `json:"sales_open"`
	CanBook   bool  `json:"can_book"`
}
