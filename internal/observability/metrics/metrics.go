package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes checkout-level instruments.
type Metrics struct {
	checkoutOrders        metric.Int64Counter
	authorizations        metric.Int64Counter
	orderNumberCollisions metric.Int64Counter
	subscriptionChanges   metric.Int64Counter
	processorEvents       metric.Int64Counter
	splitShortfalls       metric.Int64Counter
	rateLimited           metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New creates the checkout instruments on the service meter.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "carecheckout"
	}
	b := counterBuilder{meter: provider.Meter(name)}

	m := &Metrics{
		checkoutOrders:        b.counter("checkout_orders_total", "Checkout attempts by kind and outcome."),
		authorizations:        b.counter("checkout_authorizations_total", "Processor authorization requests."),
		orderNumberCollisions: b.counter("checkout_order_number_collisions_total", "Order numbers regenerated after a unique violation."),
		subscriptionChanges:   b.counter("subscription_transitions_total", "Subscription status changes."),
		processorEvents:       b.counter("processor_events_total", "Webhook events accepted from the processor."),
		splitShortfalls:       b.counter("checkout_split_shortfalls_total", "Splits whose fixed fees exceeded the order total."),
		rateLimited:           b.counter("checkout_rate_limited_total", "Checkout requests rejected by the token bucket."),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// counterBuilder keeps the first instrument error so New can check once.
type counterBuilder struct {
	meter metric.Meter
	err   error
}

func (b *counterBuilder) counter(name, description string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return c
}

// RecordCheckout counts checkout attempts by kind and outcome.
func (m *Metrics) RecordCheckout(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.checkoutOrders.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuthorization counts processor authorization requests.
func (m *Metrics) RecordAuthorization(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.authorizations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordOrderNumberCollision(ctx context.Context) {
	if m == nil {
		return
	}
	m.orderNumberCollisions.Add(ctx, 1)
}

// RecordSubscriptionTransition counts subscription state changes.
func (m *Metrics) RecordSubscriptionTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.subscriptionChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordProcessorEvent counts webhook events received from the processor.
func (m *Metrics) RecordProcessorEvent(ctx context.Context, provider, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	)
	m.processorEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSplitShortfall counts splits where fixed fees exceeded the order total.
func (m *Metrics) RecordSplitShortfall(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("tenant_tier", strings.TrimSpace(tier)))
	m.splitShortfalls.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimited counts requests rejected by the checkout token bucket.
func (m *Metrics) RecordRateLimited(ctx context.Context, route string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("route", strings.TrimSpace(route)))
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":        {},
	"outcome":     {},
	"provider":    {},
	"event_type":  {},
	"from_status": {},
	"to_status":   {},
	"tenant_tier": {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
