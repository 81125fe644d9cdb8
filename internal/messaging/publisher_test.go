package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"boxoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject, data})
	return nil
}

func TestOrderEventPublisher(t *testing.T) {
	fake := &fakePublisher{}
	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	p := NewOrderEventPublisher(fake)
	p.now = func() time.Time { return at }

	require.NoError(t, p.NotifyConfirmation(context.Background(), 12))
	require.NoError(t, p.NotifyCancellation(context.Background(), 13, "expired"))
	require.Len(t, fake.msgs, 2)

	assert.Equal(t, models.EventOrderConfirmed, fake.msgs[0].subject)
	var confirmed models.OrderConfirmedEvent
	require.NoError(t, json.Unmarshal(fake.msgs[0].data, &confirmed))
	assert.Equal(t, int64(12), confirmed.OrderID)
	assert.True(t, at.Equal(confirmed.Timestamp))

	assert.Equal(t, models.EventOrderCancelled, fake.msgs[1].subject)
	var cancelled models.OrderCancelledEvent
	require.NoError(t, json.Unmarshal(fake.msgs[1].data, &cancelled))
	assert.Equal(t, int64(13), cancelled.OrderID)
	assert.Equal(t, "expired", cancelled.Reason)
}

func TestOrderEventPublisherError(t *testing.T) {
	p := NewOrderEventPublisher(&fakePublisher{err: errors.New("nats: connection closed")})

	err := p.NotifyConfirmation(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.EventOrderConfirmed)
}
