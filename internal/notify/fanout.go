package notify

import (
	"context"
	"errors"
	"fmt"
)

// Fanout tries the channels the recipient is registered on, push first,
// and stops at the first one that accepts the message.
type Fanout struct {
	push     Dispatcher
	telegram Dispatcher
}

// NewFanout accepts nil for a channel that is not configured.
func NewFanout(push, telegram Dispatcher) *Fanout {
	return &Fanout{push: push, telegram: telegram}
}

func (f *Fanout) Send(ctx context.Context, msg Message) error {
	var (
		errs      []error
		attempted bool
	)

	if f.push != nil && msg.Recipient.HasPush() {
		attempted = true
		if err := f.push.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		} else {
			return nil
		}
	}
	if f.telegram != nil && msg.Recipient.HasTelegram() {
		attempted = true
		if err := f.telegram.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		} else {
			return nil
		}
	}

	if !attempted {
		return fmt.Errorf("%w: %s has no reachable channel", ErrNoRecipient, msg.Recipient.Username)
	}
	return errors.Join(errs...)
}
