package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{ServiceName: "gwcore"})
	require.NoError(t, err)

	assert.False(t, tracer.Enabled())

	ctx, span := tracer.StartSpan(context.Background(), "routecache.refresh")
	assert.NotNil(t, ctx)
	span.End()

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_EnabledWithoutExporter(t *testing.T) {
	// Not parallel: installs the global tracer provider.
	tracer, err := NewTracer(TracerConfig{
		ServiceName:  "gwcore",
		Enabled:      true,
		SamplingRate: 1.0,
	})
	require.NoError(t, err)
	assert.True(t, tracer.Enabled())

	_, span := tracer.StartSpan(context.Background(), "gateway.request")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     float64
		expected string
	}{
		{name: "always", rate: 1.5, expected: sdktrace.AlwaysSample().Description()},
		{name: "never", rate: 0, expected: sdktrace.NeverSample().Description()},
		{name: "ratio", rate: 0.5, expected: sdktrace.TraceIDRatioBased(0.5).Description()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, createSampler(tt.rate).Description())
		})
	}
}
