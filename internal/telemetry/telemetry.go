// Package telemetry installs the OpenTelemetry providers used for gate,
// tool and AppServer instrumentation.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects exporters. Supported metrics exporters: prometheus, none.
// Supported trace exporters: stdout, none.
type Config struct {
	MetricsExporter string
	TracesExporter  string
}

// Providers holds what Setup installed.
type Providers struct {
	// MetricsHandler serves the prometheus scrape endpoint. Nil unless the
	// prometheus exporter is selected.
	MetricsHandler http.Handler

	shutdown []func(context.Context) error
}

// Shutdown flushes and stops every installed provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

// Setup installs global meter and tracer providers for cfg. With both
// exporters set to none the otel globals stay no-op.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	p := &Providers{}

	switch cfg.MetricsExporter {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exp, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
		otel.SetMeterProvider(mp)
		p.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		p.shutdown = append(p.shutdown, mp.Shutdown)
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", cfg.MetricsExporter)
	}

	switch cfg.TracesExporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		p.shutdown = append(p.shutdown, tp.Shutdown)
	case "none", "":
	default:
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("unknown trace exporter: %q", cfg.TracesExporter)
	}

	return p, nil
}
