package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/carecheckout/internal/observability/logger"
	"github.com/smallbiznis/carecheckout/internal/observability/metrics"
	"github.com/smallbiznis/carecheckout/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
	),
	// Forces the tracer provider to be built so spans are exported.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
