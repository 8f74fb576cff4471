package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextWithRouteID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRouteID(context.Background(), "orders")
	assert.Equal(t, "orders", RouteIDFromContext(ctx))
	assert.Empty(t, RouteIDFromContext(context.Background()))
}

func TestElapsedTime(t *testing.T) {
	t.Parallel()

	assert.Zero(t, ElapsedTime(context.Background()))

	start := time.Now().Add(-50 * time.Millisecond)
	ctx := ContextWithStartTime(context.Background(), start)

	assert.Equal(t, start, StartTimeFromContext(ctx))
	assert.GreaterOrEqual(t, ElapsedTime(ctx), 50*time.Millisecond)
}
