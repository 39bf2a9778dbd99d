// Package requestcontext provides context accessors for values that UI
// collaborators set once per user action and services consume.
//
// Usage in services (read values):
//
//	actor := requestcontext.ActorID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "carebook/pkg/domain"
)

type (
	actorIDKey     struct{}
	operationIDKey struct{}
	actionTimeKey  struct{}
)

var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyOperationID = operationIDKey{}
	ContextKeyActionTime  = actionTimeKey{}
)

// ActorID retrieves the user acting on behalf of the current view.
// Returns the empty id when the action is anonymous (registration, seeding).
func ActorID(ctx context.Context) id.UserID {
	if actor, ok := ctx.Value(ContextKeyActorID).(id.UserID); ok {
		return actor
	}
	return ""
}

// WithActorID records the acting user.
func WithActorID(ctx context.Context, actor id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actor)
}

// OperationID retrieves the correlation id of the current user action.
func OperationID(ctx context.Context) string {
	if opID, ok := ctx.Value(ContextKeyOperationID).(string); ok {
		return opID
	}
	return ""
}

// WithOperationID injects a correlation id.
func WithOperationID(ctx context.Context, opID string) context.Context {
	return context.WithValue(ctx, ContextKeyOperationID, opID)
}

// Now retrieves the action-scoped time from context.
// Falls back to time.Now() if not set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyActionTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so every record written by
// one action carries the same timestamp. Tests use it to pin clocks.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyActionTime, t)
}
