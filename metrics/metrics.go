package metrics

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	registry          *promclient.Registry
	provider          *metric.MeterProvider
	meter             api.Meter
	apiTimeMetric     api.Float64Histogram
	inferenceDuration api.Float64Histogram
}

// SetupMetrics bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call Shutdown for proper cleanup.
func SetupMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter("github.com/go-skynet/inpaintd")

	apiTimeMetric, err := meter.Float64Histogram("api_call", api.WithDescription("api calls"), api.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	inferenceDuration, err := meter.Float64Histogram("inference_duration_seconds",
		api.WithDescription("time spent in the inpainting pipeline"), api.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry:          registry,
		provider:          provider,
		meter:             meter,
		apiTimeMetric:     apiTimeMetric,
		inferenceDuration: inferenceDuration,
	}, nil
}

func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func APIMiddleware(metrics *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "/metrics" {
				return next(c)
			}
			method := c.Request().Method

			start := time.Now()
			err := next(c)
			elapsed := float64(time.Since(start)) / float64(time.Second)
			metrics.ObserveAPICall(method, path, elapsed)
			return err
		}
	}
}

func (m *Metrics) ObserveAPICall(method string, path string, duration float64) {
	opts := api.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
	m.apiTimeMetric.Record(context.Background(), duration, opts)
}

// ObserveInference records one pipeline run. outcome is "ok", "message" or
// "error".
func (m *Metrics) ObserveInference(scheduler, outcome string, duration time.Duration) {
	opts := api.WithAttributes(
		attribute.String("scheduler", scheduler),
		attribute.String("outcome", outcome),
	)
	m.inferenceDuration.Record(context.Background(), duration.Seconds(), opts)
}
