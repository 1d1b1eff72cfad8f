package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultCollectionInterval = 15 * time.Second

// ObservabilityConfig is the resolved telemetry setup for one process
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	Interval        time.Duration
	Prometheus      config.PrometheusConfig
	OTLP            config.OTLPConfig
	Switches        MetricSwitches
}

// ConfigFrom resolves the telemetry setup. A nil cfg yields console output
// with every metric group switched on.
func ConfigFrom(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "interviewcoach",
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Interval:       defaultCollectionInterval,
			Prometheus:     config.PrometheusConfig{Endpoint: "/metrics", Port: "9090"},
			Switches:       AllMetrics(),
		}
	}

	obs := cfg.Observability
	out := ObservabilityConfig{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  obs.ServiceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput || obs.Console.Enabled,
		PrettyPrint:     obs.Console.PrettyPrint,
		SampleRate:      obs.SampleRate,
		Interval:        obs.Metrics.CollectionInterval,
		Prometheus:      obs.Prometheus,
		OTLP:            obs.OTLP,
		Switches:        switchesFrom(obs.CustomMetrics),
	}
	if out.ServiceVersion == "" {
		out.ServiceVersion = version
	}
	if obs.Tracing.SampleRate > 0 {
		out.SampleRate = obs.Tracing.SampleRate
	}
	if !obs.Tracing.Enabled {
		out.SampleRate = 0
	}
	if !obs.Metrics.Enabled {
		out.Switches = MetricSwitches{}
	}
	if out.Interval <= 0 {
		out.Interval = defaultCollectionInterval
	}
	return out
}

// ObservabilityManager owns the tracer and meter providers and any metrics
// server started for them.
type ObservabilityManager struct {
	config         ObservabilityConfig
	logger         *errors.Logger
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager installs the global providers. A disabled config
// returns a manager whose recorders are no-ops.
func NewObservabilityManager(obsConfig ObservabilityConfig, logger *errors.Logger) (*ObservabilityManager, error) {
	if logger == nil {
		logger = errors.NewLogger(slog.LevelInfo)
	}
	om := &ObservabilityManager{
		config: obsConfig,
		logger: logger.With("component", "observability"),
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	res, err := om.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	if err := om.initTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := om.initMetrics(res); err != nil {
		_ = om.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return om, nil
}

func (om *ObservabilityManager) initTracing(res *resource.Resource) error {
	var (
		exporter trace.SpanExporter
		err      error
	)
	switch {
	case om.config.ConsoleOutput:
		var opts []stdouttrace.Option
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.config.OTLP.Enabled:
		exporter, err = otlptracehttp.New(context.Background(), om.otlpTraceOptions()...)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics(res *resource.Resource) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.config.Interval))))
	}

	if om.config.OTLP.Enabled {
		exporter, err := otlpmetrichttp.New(context.Background(), om.otlpMetricOptions()...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.config.Interval))))
	}

	if om.config.Prometheus.Enabled {
		reader, err := om.startPrometheus()
		if err != nil {
			return err
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	if len(opts) == 1 {
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewManualReader()))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(om.config.ServiceName), om.config.Switches)
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

// startPrometheus serves a private registry on its own port so the scrape
// endpoint stays off the API listener.
func (om *ObservabilityManager) startPrometheus() (sdkmetric.Reader, error) {
	registry := prom.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := om.config.Prometheus.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	addr := ":" + om.config.Prometheus.Port
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for Prometheus on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			om.logger.LogError(err, "Prometheus metrics server stopped")
		}
	}()
	om.shutdownFuncs = append(om.shutdownFuncs, server.Shutdown)

	om.logger.Info("Prometheus metrics server started",
		"address", listener.Addr().String(),
		"endpoint", endpoint)
	return exporter, nil
}

func (om *ObservabilityManager) otlpTraceOptions() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(om.config.OTLP.Endpoint)}
	if om.config.OTLP.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(om.config.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(om.config.OTLP.Headers))
	}
	return opts
}

func (om *ObservabilityManager) otlpMetricOptions() []otlpmetrichttp.Option {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(om.config.OTLP.Endpoint)}
	if om.config.OTLP.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(om.config.OTLP.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(om.config.OTLP.Headers))
	}
	return opts
}

func (om *ObservabilityManager) createResource() (*resource.Resource, error) {
	instance := om.config.ServiceInstance
	if instance == "" {
		instance = uuid.NewString()
	}
	// Schemaless: the merged resource keeps the SDK default's schema URL.
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", instance),
		),
	)
}

// GetMetrics returns the instruments. Before initialization every recorder
// on the result is a no-op.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware wraps a handler with request spans and HTTP metrics
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled || om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes exporters and stops the metrics server, newest first
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(om.shutdownFuncs) - 1; i >= 0; i-- {
		if err := om.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	om.shutdownFuncs = nil
	return stderrors.Join(errs...)
}
