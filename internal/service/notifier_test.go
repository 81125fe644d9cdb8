package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"boxoffice/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []int64
	cancelled map[int64]string
	err       error
}

func (r *recordingNotifier) NotifyConfirmation(ctx context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, orderID)
	return r.err
}

func (r *recordingNotifier) NotifyCancellation(ctx context.Context, orderID int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled == nil {
		r.cancelled = map[int64]string{}
	}
	r.cancelled[orderID] = reason
	return r.err
}

func TestNotifiersFanOut(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("broker down")}
	confirmOnly := &mockNotifier{}
	confirmOnly.On("NotifyConfirmation", context.Background(), int64(4)).Return(nil).Once()

	ns := service.Notifiers{failing, nil, ok, confirmOnly}

	err := ns.NotifyConfirmation(context.Background(), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, []int64{4}, ok.confirmed)
	assert.Equal(t, []int64{4}, failing.confirmed)
	confirmOnly.AssertExpectations(t)

	require.Error(t, ns.NotifyCancellation(context.Background(), 5, "user"))
	assert.Equal(t, "user", ok.cancelled[5])
}

func TestCancellationsAreNotified(t *testing.T) {
	rec := &recordingNotifier{}
	f := newFixture(t, service.WithNotifier(rec), service.WithHoldDuration(time.Minute))
	eventID := f.store.AddEvent(10, true)

	byUser := f.hold(t, general(eventID, 1))
	_, err := f.engine.Cancel(context.Background(), byUser.ID)
	require.NoError(t, err)

	swept := f.hold(t, general(eventID, 1))
	f.clock.Advance(2 * time.Minute)
	n, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, map[int64]string{byUser.ID: "user", swept.ID: "expired"}, rec.cancelled)
	assert.Empty(t, rec.confirmed)
}
