package errors

import "errors"

// Reservation failures. Callers match them with errors.Is; the engine wraps
// them with the ids involved.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("operation not allowed in current order status")
	ErrSalesClosed          = errors.New("sales are closed for event")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrSeatUnavailable      = errors.New("seat is unavailable")
	ErrExpired              = errors.New("hold has expired")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrStorageFailure       = errors.New("storage failure")
	ErrInvalidRequest       = errors.New("invalid request")
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// IsDomain reports whether err belongs to the reservation taxonomy and
// therefore should not be reclassified as a storage failure.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidState, ErrSalesClosed, ErrInsufficientCapacity,
		ErrSeatUnavailable, ErrExpired, ErrPaymentFailed, ErrStorageFailure, ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
