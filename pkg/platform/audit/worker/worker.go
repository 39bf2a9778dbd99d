package worker

import (
	"context"
	"log/slog"

	audit "carebook/pkg/platform/audit"
)

// Worker consumes audit events from a channel and appends them to a store
// and any fan-out sinks. Run returns when the inbox is closed and drained or
// the context is cancelled; append failures are logged and skipped.
type Worker struct {
	store  audit.Appender
	sinks  []audit.Appender
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Appender, inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Appender) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger, sinks: sinks}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.warn(ctx, "audit store append failed", event, err)
			}
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.warn(ctx, "audit sink append failed", event, err)
				}
			}
		}
	}
}

// warn reports a failed append. Failures never stop the worker; the next
// event gets its own attempt.
func (w *Worker) warn(ctx context.Context, msg string, event audit.Event, err error) {
	if w.logger == nil {
		return
	}
	w.logger.WarnContext(ctx, msg,
		"action", event.Action,
		"error", err,
	)
}
