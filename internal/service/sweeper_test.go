package service_test

import (
	"context"
	"testing"
	"time"

	"boxoffice/internal/models"
	"boxoffice/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweeperCancelsExpiredHolds(t *testing.T) {
	f := newFixture(t)
	eventID := f.store.AddEvent(10, true)
	seatID := f.store.AddSeat(eventID, "A", 1)

	old := f.hold(t, seat(eventID, seatID))
	older := f.hold(t, general(eventID, 2))
	f.clock.Advance(10 * time.Minute)
	fresh := f.hold(t, general(eventID, 1))
	paid := f.hold(t, general(eventID, 1))

	f.payments.On("Authorize", mock.Anything, mock.Anything, "tok").Return(approved("p"), nil).Once()
	f.notifier.On("NotifyConfirmation", mock.Anything, paid.ID).Return(nil).Once()
	_, err := f.engine.Confirm(context.Background(), paid.ID, "tok")
	require.NoError(t, err)

	f.clock.Advance(6 * time.Minute)

	n, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, models.OrderStatusCancelled, f.order(t, old.ID).Status)
	assert.Equal(t, models.OrderStatusCancelled, f.order(t, older.ID).Status)
	assert.Equal(t, models.OrderStatusHeld, f.order(t, fresh.ID).Status)
	assert.Equal(t, models.OrderStatusConfirmed, f.order(t, paid.ID).Status)
	assert.False(t, f.seatReserved(t, seatID))
	assert.Equal(t, 2, f.reserved(t, eventID))

	n, err = f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeperWithNothingExpired(t *testing.T) {
	f := newFixture(t)
	eventID := f.store.AddEvent(10, true)
	f.hold(t, general(eventID, 1))

	n, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// staleOrderStore reports orders as expired even after someone else resolved them.
type staleOrderStore struct {
	service.OrderStore
	ids []int64
}

func (s staleOrderStore) ExpiredHeldOrders(ctx context.Context, now time.Time) ([]int64, error) {
	return s.ids, nil
}

func TestSweeperSkipsOrdersResolvedByOthers(t *testing.T) {
	f := newFixture(t)
	eventID := f.store.AddEvent(10, true)

	paid := f.hold(t, general(eventID, 1))
	f.payments.On("Authorize", mock.Anything, mock.Anything, "tok").Return(approved("p"), nil).Once()
	f.notifier.On("NotifyConfirmation", mock.Anything, paid.ID).Return(nil).Once()
	_, err := f.engine.Confirm(context.Background(), paid.ID, "tok")
	require.NoError(t, err)

	cancelled := f.hold(t, general(eventID, 1))
	_, err = f.engine.Cancel(context.Background(), cancelled.ID)
	require.NoError(t, err)

	expired := f.hold(t, general(eventID, 1))

	sweeper := service.NewSweeper(f.engine, staleOrderStore{
		OrderStore: f.store,
		ids:        []int64{paid.ID, cancelled.ID, 98765, expired.ID},
	})

	n, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.OrderStatusConfirmed, f.order(t, paid.ID).Status)
	assert.Equal(t, models.OrderStatusCancelled, f.order(t, expired.ID).Status)
}
