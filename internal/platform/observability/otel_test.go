package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")

	s := SettingsFromEnv("ignite-cart")
	assert.Equal(t, "ignite-cart", s.ServiceName)
	assert.Equal(t, "production", s.Environment)
	assert.Equal(t, slog.LevelWarn, s.LogLevel)
	assert.Equal(t, ExporterStdout, s.Exporter)
	assert.False(t, s.OTLPInsecure)
}

func TestInit_WithoutExporter(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()
	instruments, shutdown, err := Init(ctx, Settings{
		ServiceName: "ignite-cart",
		Environment: "test",
		Exporter:    ExporterNone,
		Output:      &out,
	})
	require.NoError(t, err)

	_, span := instruments.Tracer("test").Start(ctx, "op")
	span.End()
	counter, err := instruments.Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	instruments.Logger.Info("hello")
	assert.Contains(t, out.String(), `"service":"ignite-cart"`)
	require.NoError(t, shutdown(ctx))
}

func TestInstruments_NilSafe(t *testing.T) {
	var i *Instruments
	assert.NotNil(t, i.Tracer("x"))
	assert.NotNil(t, i.Meter("x"))
}
