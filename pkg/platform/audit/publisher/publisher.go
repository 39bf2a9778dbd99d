// Package publisher emits audit events either synchronously into a store or
// through a buffered channel drained by a background worker.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "carebook/pkg/domain"
	audit "carebook/pkg/platform/audit"
	"carebook/pkg/platform/audit/worker"
)

type Publisher struct {
	store  audit.Store
	sinks  []audit.Appender
	logger *slog.Logger

	bufferSize int
	inbox      chan audit.Event
	done       chan struct{}
	closeOnce  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking: events are queued on a channel of
// the given size and appended by a background worker.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.bufferSize = size
	}
}

// WithSinks fans every event out to additional appenders (e.g. Kafka).
func WithSinks(sinks ...audit.Appender) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sinks...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger, p.sinks...)
		go func() {
			defer close(p.done)
			if err := w.Run(context.Background()); err != nil && p.logger != nil {
				p.logger.Error("audit worker stopped", "error", err)
			}
		}()
	}
	return p
}

// Emit records an event. Category and timestamp are derived when unset. In
// async mode a full buffer drops the event with a warning rather than block
// the calling operation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			return err
		}
		for _, sink := range p.sinks {
			if err := sink.Append(ctx, event); err != nil && p.logger != nil {
				p.logger.WarnContext(ctx, "audit sink append failed", "action", event.Action, "error", err)
			}
		}
		return nil
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

func (p *Publisher) ListAll(ctx context.Context) ([]audit.Event, error) {
	return p.store.ListAll(ctx)
}

// Close drains queued events in async mode. Emit must not be called after
// Close.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.closeOnce.Do(func() {
		close(p.inbox)
		<-p.done
	})
}
