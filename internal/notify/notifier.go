package notify

import (
	"context"
	"errors"
)

// Notifier delivers a short out-of-band message, used by the lifecycle
// engine when a task is resolved as "Cannot Complete".
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// MultiNotifier fans a message out to several notifiers. Every notifier is
// attempted even when an earlier one fails; the errors are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Send(ctx context.Context, title, body string) error {
	var errs error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, title, body); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// NoOpNotifier does nothing.
type NoOpNotifier struct{}

func (n *NoOpNotifier) Send(ctx context.Context, title, body string) error {
	return nil
}
