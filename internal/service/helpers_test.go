package service_test

import (
	"context"
	"testing"
	"time"

	"boxoffice/internal/clock"
	"boxoffice/internal/memstore"
	"boxoffice/internal/models"
	"boxoffice/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(ctx context.Context, amount decimal.Decimal, token string) (models.PaymentResult, error) {
	args := m.Called(ctx, amount, token)
	return args.Get(0).(models.PaymentResult), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyConfirmation(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

type fixture struct {
	store    *memstore.Store
	clock    *clock.Manual
	payments *mockAuthorizer
	notifier *mockNotifier
	engine   *service.ReservationEngine
	sweeper  *service.Sweeper
}

func newFixture(t *testing.T, opts ...service.ReservationOption) *fixture {
	t.Helper()

	f := &fixture{
		store:    memstore.New(),
		clock:    clock.NewManual(baseTime),
		payments: &mockAuthorizer{},
		notifier: &mockNotifier{},
	}
	opts = append([]service.ReservationOption{
		service.WithClock(f.clock),
		service.WithNotifier(f.notifier),
	}, opts...)

	f.engine = service.NewReservationEngine(f.store, f.store, f.store, f.payments, opts...)
	f.sweeper = service.NewSweeper(f.engine, f.store)

	t.Cleanup(func() {
		f.payments.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})
	return f
}

func (f *fixture) hold(t *testing.T, items ...service.LineItem) *models.Order {
	t.Helper()
	order, err := f.engine.CreateHold(context.Background(), 7, items)
	require.NoError(t, err)
	return order
}

func (f *fixture) reserved(t *testing.T, eventID int64) int {
	t.Helper()
	n, err := f.store.ReservedCount(context.Background(), eventID)
	require.NoError(t, err)
	return n
}

func (f *fixture) order(t *testing.T, id int64) *models.Order {
	t.Helper()
	o, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) seatReserved(t *testing.T, id int64) bool {
	t.Helper()
	seat, ok := f.store.Seat(id)
	require.True(t, ok)
	return seat.IsReserved
}

func general(eventID int64, qty int) service.LineItem {
	return service.LineItem{EventID: eventID, Quantity: qty, TicketType: models.TicketTypeGeneral}
}

func seat(eventID, seatID int64) service.LineItem {
	return service.LineItem{EventID: eventID, Quantity: 1, SeatID: &seatID}
}

func amount(s string) any {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func approved(ref string) models.PaymentResult {
	return models.PaymentResult{Success: true, Reference: ref}
}
