package telemetry

import (
	"fmt"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// NewPrometheusMeterProvider builds an OpenTelemetry MeterProvider that
// exposes its instruments through the Prometheus client_golang default
// registry, so the same /metrics endpoint (internal/metrics) serves
// both the hand-rolled counters and any OTel-instrumented components.
func NewPrometheusMeterProvider() (*metric.MeterProvider, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("build prometheus exporter: %w", err)
	}
	return metric.NewMeterProvider(metric.WithReader(exporter)), nil
}
