package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerRejectsUnsupportedExporter(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{
		ServiceName: "test",
		Exporter:    "jaeger",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tracing exporter")
	assert.Nil(t, shutdown)
}

func TestInitTracerDefaultsToOTLP(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{
		ServiceName: "test",
		Exporter:    "",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	// The batcher has exported nothing; shutdown must still be clean.
	assert.NoError(t, shutdown(context.Background()))
}
