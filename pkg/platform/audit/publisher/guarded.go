package publisher

import (
	"context"
	"log/slog"
	"sync/atomic"

	audit "carebook/pkg/platform/audit"
	"carebook/pkg/platform/circuit"
)

const defaultProbeEvery = 10

// GuardedSink puts a circuit breaker in front of a fan-out sink. While the
// circuit is open events skip the sink, and every probeEvery-th event is
// still tried so recovery is noticed.
type GuardedSink struct {
	sink       audit.Appender
	breaker    *circuit.Breaker
	logger     *slog.Logger
	probeEvery uint64
	skipped    atomic.Uint64
}

func Guard(sink audit.Appender, breaker *circuit.Breaker, logger *slog.Logger) *GuardedSink {
	return &GuardedSink{sink: sink, breaker: breaker, logger: logger, probeEvery: defaultProbeEvery}
}

func (g *GuardedSink) Append(ctx context.Context, event audit.Event) error {
	if g.breaker.IsOpen() && g.skipped.Add(1)%g.probeEvery != 0 {
		return nil
	}
	if err := g.sink.Append(ctx, event); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.ErrorContext(ctx, "audit sink unavailable, skipping until it recovers",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "audit sink recovered",
			"breaker", g.breaker.Name(),
			"skipped", g.skipped.Swap(0),
		)
	}
	return nil
}

// Skipped reports how many events bypassed the sink since it last recovered.
func (g *GuardedSink) Skipped() uint64 {
	return g.skipped.Load()
}
