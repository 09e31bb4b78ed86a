package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/donaldgifford/marketplace/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.TelemetryConfig{}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestSetup_Enabled(t *testing.T) {
	cfg := &config.TelemetryConfig{
		Endpoint:       "127.0.0.1:1",
		Insecure:       true,
		ServiceName:    "marketplace-test",
		ExportInterval: time.Hour,
	}

	shutdown, err := Setup(context.Background(), cfg, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Nothing listens on the endpoint; only check shutdown returns.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
