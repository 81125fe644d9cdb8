package models

import "time"

// NATS Event Types
const (
	EventOrderConfirmed = "order.confirmed"
	EventOrderCancelled = "order.cancelled"
)

// OrderConfirmedEvent represents a successful confirmation
type OrderConfirmedEvent struct {
	OrderID   int64     `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCancelledEvent represents an order returned to the pool
type OrderCancelledEvent struct {
	OrderID   int64     `json:"order_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
