package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/sunsetbot/sunsetbot/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "sunsetbot",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)

	// Noop provider should have nil TracerProvider and MeterProvider
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	metrics, err := provider.RunMetrics()
	require.NoError(t, err)
	metrics.RecordRun(ctx, "notified", time.Second)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	err := provider.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestTracer_ReturnsGlobalTracer(t *testing.T) {
	tracer := telemetry.Tracer("test-tracer")
	assert.NotNil(t, tracer)
}

func TestMeter_ReturnsGlobalMeter(t *testing.T) {
	meter := telemetry.Meter("test-meter")
	assert.NotNil(t, meter)
}

func TestRunMetrics_Record(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(ctx) }()

	metrics, err := telemetry.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	metrics.RecordRun(ctx, "notified", 1500*time.Millisecond)
	metrics.RecordRun(ctx, "notified", 500*time.Millisecond)
	metrics.RecordRun(ctx, "failed", 100*time.Millisecond)
	metrics.RecordNotification(ctx, true)
	metrics.RecordNotification(ctx, false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	runs, ok := byName["sunsetbot.run.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range runs.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("run.outcome"))
		counts[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"notified": 2, "failed": 1}, counts)

	duration, ok := byName["sunsetbot.run.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, duration.DataPoints, 2)

	notifications, ok := byName["sunsetbot.notification.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, notifications.DataPoints, 2)
}

func TestRunMetrics_NilIsNoop(t *testing.T) {
	var metrics *telemetry.RunMetrics
	assert.NotPanics(t, func() {
		metrics.RecordRun(context.Background(), "failed", time.Second)
		metrics.RecordNotification(context.Background(), false)
	})
}

func TestConfig_Sampler(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"unset keeps everything", 0, "ParentBased{root:AlwaysOnSampler"},
		{"one keeps everything", 1, "ParentBased{root:AlwaysOnSampler"},
		{"ratio", 0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := telemetry.Config{SampleRatio: tt.ratio}.Sampler()
			assert.Contains(t, sampler.Description(), tt.want)
		})
	}
}
