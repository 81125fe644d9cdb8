package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type countingSweep struct {
	runs atomic.Int32
	err  error
}

func (s *countingSweep) RunOnce(ctx context.Context) (int, error) {
	s.runs.Add(1)
	return 2, s.err
}

type mockLease struct {
	mock.Mock
}

func (m *mockLease) Acquire(ctx context.Context) (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *mockLease) Release(ctx context.Context) error {
	return m.Called().Error(0)
}

func TestTickWithoutLease(t *testing.T) {
	sweep := &countingSweep{}
	job := NewHoldExpirationJob(sweep, nil, time.Minute)

	job.Tick(context.Background())
	sweep.err = errors.New("db down")
	job.Tick(context.Background())

	assert.Equal(t, int32(2), sweep.runs.Load())
}

func TestTickHoldsLeaseAroundSweep(t *testing.T) {
	sweep := &countingSweep{}
	lease := &mockLease{}
	lease.On("Acquire").Return(true, nil).Once()
	lease.On("Release").Return(nil).Once()

	NewHoldExpirationJob(sweep, lease, time.Minute).Tick(context.Background())

	assert.Equal(t, int32(1), sweep.runs.Load())
	lease.AssertExpectations(t)
}

func TestTickSkipsWhenLeaseTaken(t *testing.T) {
	sweep := &countingSweep{}
	lease := &mockLease{}
	lease.On("Acquire").Return(false, nil).Once()

	NewHoldExpirationJob(sweep, lease, time.Minute).Tick(context.Background())

	assert.Zero(t, sweep.runs.Load())
	lease.AssertExpectations(t)
}

func TestTickSweepsWhenLeaseStoreFails(t *testing.T) {
	sweep := &countingSweep{}
	lease := &mockLease{}
	lease.On("Acquire").Return(false, errors.New("redis: connection refused")).Once()

	NewHoldExpirationJob(sweep, lease, time.Minute).Tick(context.Background())

	assert.Equal(t, int32(1), sweep.runs.Load())
	lease.AssertNotCalled(t, "Release")
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	sweep := &countingSweep{}
	job := NewHoldExpirationJob(sweep, nil, 10*time.Millisecond)

	job.Start(context.Background())
	assert.Eventually(t, func() bool { return sweep.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()

	runs := sweep.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, sweep.runs.Load())
}
