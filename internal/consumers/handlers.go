package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"

	"github.com/nats-io/stan.go"
)

// OrderIndex is implemented by *search.OrderIndexer.
type OrderIndex interface {
	IndexOrder(ctx context.Context, orderID int64) error
}

// errDrop marks messages that can never succeed and are acked anyway.
var errDrop = errors.New("message dropped")

type Handlers struct {
	index   OrderIndex
	timeout time.Duration
}

func NewHandlers(index OrderIndex) *Handlers {
	return &Handlers{
		index:   index,
		timeout: 10 * time.Second,
	}
}

func (h *Handlers) HandleOrderConfirmed(m *stan.Msg) {
	h.ack(m, h.handleConfirmed(m.Data))
}

func (h *Handlers) HandleOrderCancelled(m *stan.Msg) {
	h.ack(m, h.handleCancelled(m.Data))
}

func (h *Handlers) handleConfirmed(data []byte) error {
	var event models.OrderConfirmedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal order confirmed event: %w: %w", errDrop, err)
	}

	slog.Info("Processing order confirmed event", "order_id", event.OrderID)
	return h.reindex(event.OrderID)
}

func (h *Handlers) handleCancelled(data []byte) error {
	var event models.OrderCancelledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal order cancelled event: %w: %w", errDrop, err)
	}

	slog.Info("Processing order cancelled event", "order_id", event.OrderID, "reason", event.Reason)
	return h.reindex(event.OrderID)
}

func (h *Handlers) reindex(orderID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	err := h.index.IndexOrder(ctx, orderID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("order %d: %w: %w", orderID, errDrop, err)
	}
	return err
}

// ack acknowledges handled and dropped messages. Anything else is left for
// redelivery after the ack wait.
func (h *Handlers) ack(m *stan.Msg, err error) {
	switch {
	case err == nil:
	case errors.Is(err, errDrop):
		slog.Warn("Dropping message", "subject", m.Subject, "sequence", m.Sequence, "error", err)
	default:
		slog.Error("Failed to handle message, awaiting redelivery", "subject", m.Subject, "sequence", m.Sequence, "error", err)
		return
	}

	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack message", "subject", m.Subject, "error", err)
	}
}
