// Package processor simulates the card network round trip as a deferred
// completion that fires after a fixed delay.
package processor

import (
	"context"
	"time"

	dErrors "carebook/pkg/domain-errors"
)

const DefaultDelay = 2 * time.Second

type Processor struct {
	delay time.Duration
}

// New returns a processor completing after delay. A negative delay is
// treated as zero.
func New(delay time.Duration) *Processor {
	if delay < 0 {
		delay = 0
	}
	return &Processor{delay: delay}
}

// Pending is one in-flight authorization.
type Pending struct {
	done chan error
	stop func() bool
}

// Begin schedules completion after the delay without blocking. Cancelling
// ctx before the timer fires completes the authorization with a timeout
// error instead.
func (p *Processor) Begin(ctx context.Context) *Pending {
	done := make(chan error, 1)
	timer := time.AfterFunc(p.delay, func() {
		done <- nil
	})
	stop := context.AfterFunc(ctx, func() {
		if timer.Stop() {
			done <- dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "payment processing cancelled")
		}
	})
	return &Pending{done: done, stop: stop}
}

// Wait blocks until the authorization completes and releases the context
// registration.
func (p *Pending) Wait() error {
	err := <-p.done
	p.stop()
	return err
}
