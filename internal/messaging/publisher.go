package messaging

import (
	"context"
	"time"

	"boxoffice/internal/models"
)

// OrderEventPublisher emits order lifecycle events after commit.
type OrderEventPublisher struct {
	pub Publisher
	now func() time.Time
}

func NewOrderEventPublisher(pub Publisher) *OrderEventPublisher {
	return &OrderEventPublisher{pub: pub, now: time.Now}
}

func (p *OrderEventPublisher) NotifyConfirmation(ctx context.Context, orderID int64) error {
	return PublishJSON(p.pub, models.EventOrderConfirmed, models.OrderConfirmedEvent{
		OrderID:   orderID,
		Timestamp: p.now().UTC(),
	})
}

func (p *OrderEventPublisher) NotifyCancellation(ctx context.Context, orderID int64, reason string) error {
	return PublishJSON(p.pub, models.EventOrderCancelled, models.OrderCancelledEvent{
		OrderID:   orderID,
		Reason:    reason,
		Timestamp: p.now().UTC(),
	})
}
