package telemetry

import (
	"context"
	"testing"

	"cardapio/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	app := config.AppConfig{Name: "cardapio-test"}

	for _, cfg := range []config.TracingConfig{
		{},
		{Enabled: true},
		{Endpoint: "http://localhost:4318"},
	} {
		shutdown, err := Setup(context.Background(), cfg, app)
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestSetup_Enabled(t *testing.T) {
	cfg := config.TracingConfig{Enabled: true, Endpoint: "http://127.0.0.1:4318", Insecure: true, SampleRatio: 1}
	shutdown, err := Setup(context.Background(), cfg, config.AppConfig{Name: "cardapio-test"})
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "probe")
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
