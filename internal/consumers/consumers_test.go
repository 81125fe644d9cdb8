package consumers

import (
	"context"
	"errors"
	"testing"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"

	"github.com/nats-io/stan.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) IndexOrder(ctx context.Context, orderID int64) error {
	return m.Called(orderID).Error(0)
}

type fakeSub struct {
	stan.Subscription
	closed bool
}

func (f *fakeSub) Close() error {
	f.closed = true
	return nil
}

type fakeNATS struct {
	subjects map[string]string
	subs     []*fakeSub
}

func (f *fakeNATS) SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error) {
	if f.subjects == nil {
		f.subjects = map[string]string{}
	}
	f.subjects[subject] = queue
	sub := &fakeSub{}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func TestStartAndShutdown(t *testing.T) {
	nats := &fakeNATS{}
	cs := NewConsumerService(nats, &mockIndex{})

	require.NoError(t, cs.Start())
	assert.Equal(t, map[string]string{
		models.EventOrderConfirmed: QueueGroup,
		models.EventOrderCancelled: QueueGroup,
	}, nats.subjects)

	require.NoError(t, cs.Shutdown(context.Background()))
	for _, sub := range nats.subs {
		assert.True(t, sub.closed)
	}
}

func TestHandleConfirmed(t *testing.T) {
	index := &mockIndex{}
	index.On("IndexOrder", int64(12)).Return(nil).Once()
	h := NewHandlers(index)

	require.NoError(t, h.handleConfirmed([]byte(`{"order_id":12,"timestamp":"2026-03-01T18:00:00Z"}`)))
	index.AssertExpectations(t)
}

func TestHandleCancelled(t *testing.T) {
	index := &mockIndex{}
	index.On("IndexOrder", int64(5)).Return(apperrors.ErrNotFound).Once()
	index.On("IndexOrder", int64(6)).Return(errors.New("es unavailable")).Once()
	h := NewHandlers(index)

	err := h.handleCancelled([]byte(`{"order_id":5,"reason":"expired"}`))
	assert.ErrorIs(t, err, errDrop)

	err = h.handleCancelled([]byte(`{"order_id":6,"reason":"user"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errDrop)

	index.AssertExpectations(t)
}

func TestMalformedMessagesAreDropped(t *testing.T) {
	h := NewHandlers(&mockIndex{})

	assert.ErrorIs(t, h.handleConfirmed([]byte(`not json`)), errDrop)
	assert.ErrorIs(t, h.handleCancelled([]byte(`{"order_id":"x"}`)), errDrop)
}
