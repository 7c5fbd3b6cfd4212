package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/ficore/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	require.NoError(t, tp.ForceFlush(context.Background()))
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.NotNil(t, tp.Tracer("test"))
}

func TestStartSpan_NoOpProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "credit.charge",
		WithAttribute("user_id", "u-1"),
	)
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	// No-op spans have an invalid trace id
	assert.Empty(t, GetTraceID(ctx))
}

func TestStartServiceSpan(t *testing.T) {
	_, span := StartServiceSpan(context.Background(), "credit", "refund")
	defer span.End()

	RecordError(span, errors.New("boom"))
	SetAttribute(span, SpanAttrAmount, int64(5))
	AddEvent(span, "balance_checked", SpanAttrUserID, "u-1")
}

func TestToAttribute(t *testing.T) {
	assert.Equal(t, attribute.String("k", "v"), toAttribute("k", "v"))
	assert.Equal(t, attribute.Int("k", 3), toAttribute("k", 3))
	assert.Equal(t, attribute.Int64("k", int64(3)), toAttribute("k", int64(3)))
	assert.Equal(t, attribute.Float64("k", 1.5), toAttribute("k", 1.5))
	assert.Equal(t, attribute.Bool("k", true), toAttribute("k", true))
	assert.Equal(t, attribute.String("k", "[1 2]"), toAttribute("k", []int{1, 2}))
}
