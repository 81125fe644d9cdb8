package service

import (
	"context"
	"errors"
	"fmt"

	"boxoffice/internal/clock"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/logger"
	"boxoffice/internal/metrics"
)

// Sweeper cancels HELD orders whose hold has run out.
type Sweeper struct {
	engine *ReservationEngine
	orders OrderStore
	clock  clock.Clock
}

func NewSweeper(engine *ReservationEngine, orders OrderStore) *Sweeper {
	return &Sweeper{
		engine: engine,
		orders: orders,
		clock:  engine.clock,
	}
}

// RunOnce cancels every hold expired at call time and returns how many
// orders it cancelled. Each cancellation runs in its own transaction. Orders
// confirmed or cancelled by someone else in the meantime are skipped.
func (s *Sweeper) RunOnce(ctx context.Context) (n int, err error) {
	defer func() { metrics.ObserveSweep(err) }()

	ids, err := s.orders.ExpiredHeldOrders(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: list expired holds: %w", apperrors.ErrStorageFailure, err)
	}

	log := logger.WithContext(ctx)
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		_, err := s.engine.cancel(ctx, id, metrics.SourceExpired)
		switch {
		case err == nil:
			n++
		case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrNotFound):
			log.Debug("Expired hold already resolved", "order_id", id, "error", err)
		default:
			log.Error("Failed to cancel expired hold", "order_id", id, "error", err)
			errs = append(errs, err)
		}
	}

	if n > 0 {
		log.Info("Expired holds released", "cancelled", n, "found", len(ids))
	}
	return n, errors.Join(errs...)
}
