package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Trace exporters selectable through Settings.Exporter.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// Instruments bundles the runtime-wide observability dependencies.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Settings drives Init. Zero values fall back to SettingsFromEnv defaults.
type Settings struct {
	ServiceName  string
	Environment  string
	LogLevel     slog.Level
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
	Output       io.Writer
}

// SettingsFromEnv reads ENVIRONMENT, LOG_LEVEL, OTEL_TRACES_EXPORTER and the
// OTLP endpoint variables.
func SettingsFromEnv(serviceName string) Settings {
	return Settings{
		ServiceName:  serviceName,
		Environment:  envOrDefault("ENVIRONMENT", "local"),
		LogLevel:     ParseLevel(os.Getenv("LOG_LEVEL")),
		Exporter:     envOrDefault("OTEL_TRACES_EXPORTER", ExporterOTLP),
		OTLPEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPInsecure: os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0",
		Output:       os.Stdout,
	}
}

// ParseLevel maps debug, warn and error to slog levels; anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init configures slog, tracing and meters for the process. The returned
// shutdown flushes pending spans and must run on exit.
func Init(ctx context.Context, settings Settings) (*Instruments, func(context.Context) error, error) {
	if settings.Output == nil {
		settings.Output = os.Stdout
	}
	if settings.Environment == "" {
		settings.Environment = "local"
	}
	logger := newLogger(settings)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", settings.ServiceName),
			attribute.String("deployment.environment", settings.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	spanExporter, err := newSpanExporter(ctx, settings, logger)
	if err != nil {
		return nil, nil, err
	}
	if spanExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(spanExporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewManualReader()),
	)
	otel.SetMeterProvider(meterProvider)

	instruments := &Instruments{
		Logger:         logger,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
	return instruments, shutdown, nil
}

// Tracer returns a named tracer from the configured provider.
func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

// Meter returns a named meter from the configured provider.
func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

// newLogger writes text locally and JSON everywhere else.
func newLogger(settings Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: settings.LogLevel, AddSource: settings.Environment != "local"}
	var handler slog.Handler
	if settings.Environment == "local" {
		handler = slog.NewTextHandler(settings.Output, opts)
	} else {
		handler = slog.NewJSONHandler(settings.Output, opts)
	}
	logger := slog.New(handler).With(slog.String("service", settings.ServiceName))
	slog.SetDefault(logger)
	return logger
}

func newSpanExporter(ctx context.Context, settings Settings, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	switch settings.Exporter {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(settings.Output))
	}
	opts := []otlptracehttp.Option{}
	if settings.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(settings.OTLPEndpoint))
	}
	if settings.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err == nil {
		return exporter, nil
	}
	logger.Warn("failed to initialize OTLP trace exporter, falling back to stdout", slog.String("error", err.Error()))
	return stdouttrace.New(stdouttrace.WithWriter(settings.Output))
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
