package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"boxoffice/internal/metrics"
)

// Sweep cancels every expired hold and reports how many were cancelled.
type Sweep interface {
	RunOnce(ctx context.Context) (int, error)
}

// Lease keeps replicas from sweeping at the same time. *cache.SweepLock
// implements it.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// HoldExpirationJob runs the sweeper on a fixed interval
type HoldExpirationJob struct {
	sweeper  Sweep
	lease    Lease
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewHoldExpirationJob creates a job; lease may be nil.
func NewHoldExpirationJob(sweeper Sweep, lease Lease, interval time.Duration) *HoldExpirationJob {
	return &HoldExpirationJob{
		sweeper:  sweeper,
		lease:    lease,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval. Ticks that
// arrive while a sweep is still running are skipped.
func (j *HoldExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting hold expiration job", "check_interval", j.interval, "lease", j.lease != nil)

	j.ticker = time.NewTicker(j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.Tick(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.Tick(ctx)
			case <-ctx.Done():
				return
			case <-j.done:
				slog.Info("Hold expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job and waits for a running sweep.
func (j *HoldExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
	j.wg.Wait()
}

// Tick performs a single sweep, taking the lease first when one is set.
func (j *HoldExpirationJob) Tick(ctx context.Context) {
	if j.lease != nil {
		ok, err := j.lease.Acquire(ctx)
		if err != nil {
			// Row locks keep concurrent sweeps correct, so sweep anyway.
			slog.Warn("Sweep lease unavailable", "error", err)
		} else if !ok {
			slog.Debug("Sweep lease held by another replica")
			metrics.ObserveSweepSkipped()
			return
		} else {
			defer func() {
				if err := j.lease.Release(context.WithoutCancel(ctx)); err != nil {
					slog.Warn("Failed to release sweep lease", "error", err)
				}
			}()
		}
	}

	start := time.Now()
	n, err := j.sweeper.RunOnce(ctx)
	if err != nil {
		slog.Error("Sweep failed", "cancelled", n, "error", err)
		return
	}
	if n > 0 {
		slog.Info("Expired holds cancelled", "count", n, "elapsed", time.Since(start).String())
	} else {
		slog.Debug("No expired holds found")
	}
}
