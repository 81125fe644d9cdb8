package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/external"
	"boxoffice/internal/models"
	"boxoffice/internal/repository"
	"boxoffice/internal/service"
	"boxoffice/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerSeatCompareAndSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	ctx := context.Background()

	eventID := testutil.InsertEvent(t, db, 10, true)
	otherEvent := testutil.InsertEvent(t, db, 10, true)
	seatID := testutil.InsertSeat(t, db, eventID, "A", 1)

	ok, err := ledger.TryReserveSeat(ctx, otherEvent, seatID)
	require.NoError(t, err)
	assert.False(t, ok, "seat of another event")

	ok, err = ledger.TryReserveSeat(ctx, eventID, seatID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.TryReserveSeat(ctx, eventID, seatID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ledger.ReleaseSeat(ctx, seatID))
	require.NoError(t, ledger.ReleaseSeat(ctx, seatID))

	ok, err = ledger.TryReserveSeat(ctx, eventID, seatID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockEvent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	eventID := testutil.InsertEvent(t, db, 7, true)

	_, err := ledger.LockEvent(context.Background(), eventID)
	require.Error(t, err, "lock outside a transaction")

	err = db.WithTx(context.Background(), func(ctx context.Context) error {
		snap, err := ledger.LockEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, models.EventSnapshot{ID: eventID, Capacity: 7, SalesOpen: true}, snap)

		_, err = ledger.LockEvent(ctx, eventID+100)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestLockEventBlocksSecondTransaction(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := repository.NewLedgerRepository(db)
	eventID := testutil.InsertEvent(t, db, 1, true)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		db.WithTx(context.Background(), func(ctx context.Context) error {
			_, err := ledger.LockEvent(ctx, eventID)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := db.WithTx(ctx, func(ctx context.Context) error {
		_, err := ledger.LockEvent(ctx, eventID)
		return err
	})
	assert.Error(t, err, "second lock must wait for the first transaction")
	close(release)
	<-done
}

func TestWithTxRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	orders := repository.NewOrderRepository(db)
	boom := errors.New("boom")

	var orderID int64
	err := db.WithTx(context.Background(), func(ctx context.Context) error {
		var err error
		orderID, err = orders.CreateDraft(ctx, 1, time.Now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = orders.Get(context.Background(), orderID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	orders := repository.NewOrderRepository(db)
	ledger := repository.NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	eventID := testutil.InsertEvent(t, db, 10, true)
	seatID := testutil.InsertSeat(t, db, eventID, "B", 4)

	orderID, err := orders.CreateDraft(ctx, 9, now)
	require.NoError(t, err)

	_, err = orders.AddItem(ctx, models.OrderItem{OrderID: orderID, EventID: eventID, SeatID: &seatID,
		TicketType: models.TicketTypeVIP, Price: decimal.RequireFromString("110.00")})
	require.NoError(t, err)
	_, err = orders.AddItem(ctx, models.OrderItem{OrderID: orderID, EventID: eventID,
		TicketType: models.TicketTypeGeneral, Price: decimal.RequireFromString("55.00")})
	require.NoError(t, err)

	total, err := orders.RecomputeTotal(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("165.00")))

	count, err := ledger.ReservedCount(ctx, eventID)
	require.NoError(t, err)
	assert.Zero(t, count, "draft orders do not count")

	expires := now.Add(-time.Minute)
	require.NoError(t, orders.SetStatus(ctx, orderID, models.OrderStatusHeld))
	require.NoError(t, orders.SetExpiration(ctx, orderID, &expires))

	count, err = ledger.ReservedCount(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	order, err := orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusHeld, order.Status)
	assert.Equal(t, int64(9), order.UserID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, []int64{seatID}, order.SeatIDs())
	require.NotNil(t, order.ExpiresAt)
	assert.True(t, expires.Equal(*order.ExpiresAt))

	ids, err := orders.ExpiredHeldOrders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{orderID}, ids)

	_, err = orders.RecordPayment(ctx, models.Payment{OrderID: orderID, Status: models.PaymentStatusFailed,
		Amount: total, CreatedAt: now})
	require.NoError(t, err)
	payments, err := orders.Payments(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusFailed, payments[0].Status)

	assert.ErrorIs(t, orders.SetStatus(ctx, orderID+100, models.OrderStatusHeld), apperrors.ErrNotFound)
	_, err = orders.Get(ctx, orderID+100)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEventRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	events := repository.NewEventRepository(db)
	ctx := context.Background()

	event := &models.Event{Name: "Quartet", StartsAt: time.Now().Add(time.Hour).UTC(), Capacity: 4, CreatedAt: time.Now().UTC()}
	require.NoError(t, events.Create(ctx, event))
	require.NotZero(t, event.ID)
	require.NoError(t, events.CreateSeats(ctx, event.ID, 2, 2))

	seats, err := events.AvailableSeats(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, seats, 4)

	seat, err := events.SeatByID(ctx, seats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, seats[0].Label, seat.Label)

	require.NoError(t, events.SetSalesOpen(ctx, event.ID, true))
	got, err := events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, got.SalesOpen)

	assert.ErrorIs(t, events.SetSalesOpen(ctx, event.ID+100, true), apperrors.ErrNotFound)
}

func TestEngineNeverOverbooksOnPostgres(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, external.SandboxAuthorizer{})
	eventID := testutil.InsertEvent(t, db, 5, true)

	const buyers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := range buyers {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := services.Reservations.CreateHold(context.Background(), userID,
				[]service.LineItem{{EventID: eventID, Quantity: 1}})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	count, err := repos.Ledger().ReservedCount(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestEngineHoldConfirmCancelOnPostgres(t *testing.T) {
	db := testutil.NewTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, external.SandboxAuthorizer{})
	ctx := context.Background()

	eventID := testutil.InsertEvent(t, db, 10, true)
	seatID := testutil.InsertSeat(t, db, eventID, "A", 1)

	held, err := services.Reservations.CreateHold(ctx, 3, []service.LineItem{
		{EventID: eventID, Quantity: 1, SeatID: &seatID},
		{EventID: eventID, Quantity: 2, TicketType: models.TicketTypeVIP},
	})
	require.NoError(t, err)
	assert.True(t, held.TotalPrice.Equal(decimal.RequireFromString("275.00")))

	_, err = services.Reservations.CreateHold(ctx, 4, []service.LineItem{{EventID: eventID, Quantity: 1, SeatID: &seatID}})
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)

	cancelled, err := services.Reservations.Cancel(ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	again, err := services.Reservations.CreateHold(ctx, 4, []service.LineItem{{EventID: eventID, Quantity: 1, SeatID: &seatID}})
	require.NoError(t, err)

	confirmed, err := services.Reservations.Confirm(ctx, again.ID, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.ExpiresAt)
}
