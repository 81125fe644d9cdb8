package consumers

import (
	"context"
	"errors"
	"log/slog"

	"boxoffice/internal/models"

	"github.com/nats-io/stan.go"
)

// QueueGroup is shared by every worker replica so each event is indexed once.
const QueueGroup = "order-indexer"

// Subscriber is implemented by *messaging.NATSClient.
type Subscriber interface {
	SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error)
}

type ConsumerService struct {
	nats     Subscriber
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(nats Subscriber, index OrderIndex) *ConsumerService {
	return &ConsumerService{
		nats:     nats,
		handlers: NewHandlers(index),
	}
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	for subject, handler := range map[string]stan.MsgHandler{
		models.EventOrderConfirmed: cs.handlers.HandleOrderConfirmed,
		models.EventOrderCancelled: cs.handlers.HandleOrderCancelled,
	} {
		sub, err := cs.nats.SubscribeQueue(subject, QueueGroup, handler)
		if err != nil {
			return err
		}
		cs.subs = append(cs.subs, sub)
	}

	slog.Info("All consumers started successfully")
	return nil
}

// Shutdown closes the subscriptions but keeps their durable state, so a
// restarted worker resumes where this one stopped.
func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	var errs []error
	for _, sub := range cs.subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
			errs = append(errs, err)
		}
	}
	cs.subs = nil
	return errors.Join(errs...)
}
