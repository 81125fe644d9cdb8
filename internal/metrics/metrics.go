package metrics

import (
	"errors"
	"time"

	apperrors "boxoffice/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_holds_total",
			Help: "CreateHold outcomes",
		},
		[]string{"result"},
	)

	holdDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boxoffice_hold_duration_seconds",
			Help:    "CreateHold latency including event lock waits",
			Buckets: prometheus.DefBuckets,
		},
	)

	confirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_confirmations_total",
			Help: "Confirm outcomes",
		},
		[]string{"result"},
	)

	cancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_cancellations_total",
			Help: "Orders moved to CANCELLED",
		},
		[]string{"source"},
	)

	sweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_sweep_runs_total",
			Help: "Expiration sweep runs",
		},
		[]string{"result"},
	)
)

// Cancellation sources.
const (
	SourceUser    = "user"
	SourceExpired = "expired"
)

// Result returns a low-cardinality label for err.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperrors.ErrSalesClosed):
		return "sales_closed"
	case errors.Is(err, apperrors.ErrInsufficientCapacity):
		return "insufficient_capacity"
	case errors.Is(err, apperrors.ErrSeatUnavailable):
		return "seat_unavailable"
	case errors.Is(err, apperrors.ErrExpired):
		return "expired"
	case errors.Is(err, apperrors.ErrPaymentFailed):
		return "payment_failed"
	case errors.Is(err, apperrors.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "error"
	}
}

func ObserveHold(start time.Time, err error) {
	holdsTotal.WithLabelValues(Result(err)).Inc()
	holdDuration.Observe(time.Since(start).Seconds())
}

func ObserveConfirmation(err error) {
	confirmationsTotal.WithLabelValues(Result(err)).Inc()
}

func ObserveCancellation(source string) {
	cancellationsTotal.WithLabelValues(source).Inc()
}

func ObserveSweep(err error) {
	sweepRunsTotal.WithLabelValues(Result(err)).Inc()
}

// ObserveSweepSkipped counts ticks where another replica held the lease.
func ObserveSweepSkipped() {
	sweepRunsTotal.WithLabelValues("skipped").Inc()
}
