package tools

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// callMetrics records tool executions.
type callMetrics struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// newCallMetrics creates the instruments on meter. Instruments that cannot
// be created are replaced by no-op ones.
func newCallMetrics(meter metric.Meter) *callMetrics {
	m := &callMetrics{}
	var err error
	if m.total, err = meter.Int64Counter(
		"tool.exec.total",
		metric.WithDescription("Total number of tool executions"),
		metric.WithUnit("{call}"),
	); err != nil {
		m.total = noop.Int64Counter{}
	}
	if m.errors, err = meter.Int64Counter(
		"tool.exec.errors",
		metric.WithDescription("Total number of tool execution errors"),
		metric.WithUnit("{error}"),
	); err != nil {
		m.errors = noop.Int64Counter{}
	}
	if m.duration, err = meter.Float64Histogram(
		"tool.exec.duration_ms",
		metric.WithDescription("Tool execution duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		m.duration = noop.Float64Histogram{}
	}
	return m
}

func (m *callMetrics) record(ctx context.Context, tool string, d time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("tool.name", tool))
	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(d.Microseconds())/1000, opt)
}
