package testutil

import (
	"context"
	"testing"
	"time"

	id "carebook/pkg/domain"
	"carebook/pkg/requestcontext"
)

// FixedTime is the clock pinned by ActionContext.
var FixedTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// ActionContext returns a context that looks like one user action: the actor
// is recorded and the clock is pinned so records written together share a
// timestamp.
func ActionContext(t *testing.T, actor id.UserID) context.Context {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), FixedTime)
	if actor != "" {
		ctx = requestcontext.WithActorID(ctx, actor)
	}
	return requestcontext.WithOperationID(ctx, t.Name())
}
