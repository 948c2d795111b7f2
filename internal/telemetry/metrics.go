package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics holds the instruments recorded once per bot run.
type RunMetrics struct {
	runTotal      metric.Int64Counter
	runDuration   metric.Float64Histogram
	notifications metric.Int64Counter
}

// NewRunMetrics creates the run instruments on meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	runTotal, err := meter.Int64Counter(
		"sunsetbot.run.total",
		metric.WithDescription("Total number of bot runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"sunsetbot.run.duration",
		metric.WithDescription("Duration of bot runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter(
		"sunsetbot.notification.total",
		metric.WithDescription("Total number of notifications attempted"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runTotal:      runTotal,
		runDuration:   runDuration,
		notifications: notifications,
	}, nil
}

// RecordRun records one finished run.
func (m *RunMetrics) RecordRun(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("run.outcome", outcome))
	m.runTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordNotification records one notification attempt.
func (m *RunMetrics) RecordNotification(ctx context.Context, delivered bool) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(attribute.Bool("delivered", delivered)))
}
