package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shrutimovaliya24/softcool/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// AppMetrics holds all application metrics
type AppMetrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Store Metrics
	StoreOpsTotal     metric.Int64Counter
	StoreOpDuration   metric.Float64Histogram
	StoreKeysPurged   metric.Int64Counter
	VerifiedEmailsAdd metric.Int64Counter

	// Business Metrics
	OrdersCreated    metric.Int64Counter
	OrdersCancelled  metric.Int64Counter
	RevenueTotal     metric.Float64Counter
	CartItemsCount   metric.Int64Gauge
	FavoritesToggled metric.Int64Counter
	ProductsViewed   metric.Int64Counter

	// Auth Metrics
	LoginsTotal    metric.Int64Counter
	AuthDenied     metric.Int64Counter
	OAuthCallbacks metric.Int64Counter

	// Service name for adding to all metrics
	serviceName string
}

// InitMetrics configures the OTLP meter provider and builds the instruments on it
func InitMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	// Explicit attributes take precedence over OTEL_RESOURCE_ATTRIBUTES
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}

	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}

	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPHeaders != "" {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(parseHeaders(cfg.OTELExporterOTLPHeaders)))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(10*time.Second),
	)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	logger.Info("Metrics exporter configured",
		zap.String("endpoint", cfg.OTELExporterOTLPEndpoint),
		zap.Bool("insecure", cfg.OTELExporterOTLPInsecure),
		zap.String("service_name", cfg.OTELServiceName),
		zap.Duration("interval", 10*time.Second))

	appMetrics, err := New(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}
	return appMetrics, meterProvider, nil
}

// NewNoop returns metrics backed by a no-op meter. Used when export is
// disabled and in tests.
func NewNoop() *AppMetrics {
	m, err := New(noop.NewMeterProvider().Meter("noop"), "noop")
	if err != nil {
		// noop instruments never fail to build
		panic(err)
	}
	return m
}

// New creates every instrument on the given meter
func New(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

	m := &AppMetrics{serviceName: serviceName}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http.server.request.count", "Total number of HTTP requests"},
		{&m.HTTPRequestsErrors, "http.server.request.error.count", "Total number of HTTP error requests"},
		{&m.StoreOpsTotal, "store.operations.count", "Total number of key-value store operations"},
		{&m.StoreKeysPurged, "store_keys_purged_total", "Store entries purged because they could not be decoded"},
		{&m.VerifiedEmailsAdd, "verified_emails_added_total", "Emails recorded as verified by the OAuth callback"},
		{&m.OrdersCreated, "orders_created_total", "Total number of orders created"},
		{&m.OrdersCancelled, "orders_cancelled_total", "Total number of orders cancelled"},
		{&m.FavoritesToggled, "favorites_toggled_total", "Total number of favorite toggles"},
		{&m.ProductsViewed, "products_viewed_total", "Total number of product views"},
		{&m.LoginsTotal, "logins_total", "Successful logins by method"},
		{&m.AuthDenied, "auth_denied_total", "Cart or favorite mutations refused for lack of identity"},
		{&m.OAuthCallbacks, "oauth_callbacks_total", "OAuth callback outcomes"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	m.StoreOpDuration, err = meter.Float64Histogram(
		"store.operations.duration",
		metric.WithDescription("Key-value store operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store duration histogram: %w", err)
	}

	m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total revenue of placed orders"),
		metric.WithUnit("INR"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	m.CartItemsCount, err = meter.Int64Gauge(
		"cart_items_count",
		metric.WithDescription("Current number of units in a device cart"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart items gauge: %w", err)
	}

	return m, nil
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// Add increments counter by n with the service name attached
func (m *AppMetrics) Add(ctx context.Context, counter metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	counter.Add(ctx, n, metric.WithAttributes(m.WithServiceName(attrs)...))
}

// RecordStoreOp records store operation metrics for one backend call
func (m *AppMetrics) RecordStoreOp(ctx context.Context, system, operation, key string, start time.Time, success bool) {
	duration := time.Since(start).Milliseconds()

	status := "success"
	if !success {
		status = "error"
	}

	attrs := []attribute.KeyValue{
		attribute.String("store.system", system),
		attribute.String("store.operation", operation),
		attribute.String("store.key", key),
		attribute.String("status", status),
	}

	m.StoreOpsTotal.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
	m.StoreOpDuration.Record(ctx, float64(duration), metric.WithAttributes(m.WithServiceName(attrs)...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	pairs := strings.Split(headerStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
