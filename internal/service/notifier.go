package service

import (
	"context"
	"errors"
	"fmt"
)

// Notifiers fans a confirmation out to every notifier in order.
type Notifiers []Notifier

func (ns Notifiers) NotifyConfirmation(ctx context.Context, orderID int64) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.NotifyConfirmation(ctx, orderID); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

func (ns Notifiers) NotifyCancellation(ctx context.Context, orderID int64, reason string) error {
	var errs []error
	for _, n := range ns {
		cn, ok := n.(CancellationNotifier)
		if !ok {
			continue
		}
		if err := cn.NotifyCancellation(ctx, orderID, reason); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", n, err))
		}
	}
	return errors.Join(errs...)
}
