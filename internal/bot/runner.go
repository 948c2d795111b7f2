// Package bot runs the sunset notification pipeline: load the tracked
// location, fetch its sunset forecast, format it and notify.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sunsetbot/sunsetbot/internal/geo"
	"github.com/sunsetbot/sunsetbot/internal/notify"
	"github.com/sunsetbot/sunsetbot/internal/sunset"
	"github.com/sunsetbot/sunsetbot/internal/telemetry"
)

const tracerName = "github.com/sunsetbot/sunsetbot/internal/bot"

// ErrPanic wraps a panic recovered during a run.
var ErrPanic = errors.New("run panicked")

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeNotified     Outcome = "notified"
	OutcomeNoPrediction Outcome = "no_prediction"
	OutcomeNoQuality    Outcome = "no_quality"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeFailed       Outcome = "failed"
)

// CoordinateSource provides the tracked location.
type CoordinateSource interface {
	Fetch(ctx context.Context) (geo.Coordinates, error)
}

// ForecastFetcher fetches the sunset forecast for a location and date. The
// boolean is false when the service has no usable forecast.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, lat, lon float64, date time.Time) (*sunset.Forecast, bool, error)
}

// DisplayBuilder turns a forecast into display strings.
type DisplayBuilder interface {
	BuildDisplayParams(ctx context.Context, f *sunset.Forecast, c geo.Coordinates) sunset.DisplayParams
}

// Config holds the runner's collaborators.
type Config struct {
	Coordinates CoordinateSource
	Forecasts   ForecastFetcher
	Formatter   DisplayBuilder

	// Notifier delivers messages. Failures are logged and never fail a run.
	Notifier notify.Notifier

	// NotifyQualities are the labels that produce a forecast message.
	// Default: every known label.
	NotifyQualities []sunset.Quality

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time

	// Tracer for run spans. Default: the global tracer.
	Tracer trace.Tracer

	// Metrics records run outcomes. Optional.
	Metrics *telemetry.RunMetrics

	Logger zerolog.Logger
}

// Result describes one finished run.
type Result struct {
	RunID     string
	Outcome   Outcome
	Quality   sunset.Quality
	Message   string
	Delivered bool
	Duration  time.Duration
	Err       error
}

// Runner executes pipeline runs one at a time.
type Runner struct {
	coordinates CoordinateSource
	forecasts   ForecastFetcher
	formatter   DisplayBuilder
	notifier    *notify.BestEffort
	qualities   map[sunset.Quality]bool
	clock       func() time.Time
	tracer      trace.Tracer
	metrics     *telemetry.RunMetrics
	logger      zerolog.Logger

	mu sync.Mutex
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	notifyQualities := cfg.NotifyQualities
	if len(notifyQualities) == 0 {
		notifyQualities = sunset.KnownQualities
	}
	qualities := make(map[sunset.Quality]bool, len(notifyQualities))
	for _, q := range notifyQualities {
		qualities[q] = true
	}

	return &Runner{
		coordinates: cfg.Coordinates,
		forecasts:   cfg.Forecasts,
		formatter:   cfg.Formatter,
		notifier:    notify.NewBestEffort(cfg.Notifier, cfg.Logger),
		qualities:   qualities,
		clock:       clock,
		tracer:      tracer,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// Run executes one pipeline run. Every run except a skipped one ends in
// exactly one notification attempt; errors and panics are reported through
// the notifier and returned in Result.Err. Concurrent calls are serialised.
func (r *Runner) Run(ctx context.Context) (res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.clock()
	res.RunID = uuid.NewString()
	logger := r.logger.With().Str("run_id", res.RunID).Logger()

	ctx, span := r.tracer.Start(ctx, "sunsetbot.run",
		trace.WithAttributes(attribute.String("run.id", res.RunID)),
	)
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("run panicked")
			res = r.fail(ctx, logger, res, fmt.Errorf("%w: %v", ErrPanic, p))
		}

		res.Duration = r.clock().Sub(start)
		span.SetAttributes(
			attribute.String("run.outcome", string(res.Outcome)),
			attribute.Bool("run.delivered", res.Delivered),
		)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		r.metrics.RecordRun(ctx, string(res.Outcome), res.Duration)

		logger.Info().
			Str("outcome", string(res.Outcome)).
			Bool("delivered", res.Delivered).
			Dur("duration", res.Duration).
			Msg("run finished")
	}()

	outcome, quality, message, err := r.execute(ctx, logger, start)
	if err != nil {
		return r.fail(ctx, logger, res, err)
	}

	res.Outcome = outcome
	res.Quality = quality
	res.Message = message
	if message != "" {
		res.Delivered = r.send(ctx, message)
	}
	return res
}

func (r *Runner) execute(ctx context.Context, logger zerolog.Logger, now time.Time) (Outcome, sunset.Quality, string, error) {
	coords, err := r.coordinates.Fetch(ctx)
	if err != nil {
		return "", "", "", fmt.Errorf("fetching coordinates: %w", err)
	}
	logger.Debug().Stringer("coordinates", coords).Msg("location loaded")

	forecast, ok, err := r.fetchForecast(ctx, coords, now.UTC())
	if err != nil {
		return "", "", "", fmt.Errorf("fetching forecast: %w", err)
	}
	if !ok {
		logger.Info().Msg("no sunset prediction available")
		return OutcomeNoPrediction, "", NoPredictionMessage, nil
	}

	quality, known := sunset.ParseQuality(forecast.QualityText)
	if !known {
		logger.Info().Str("quality_text", forecast.QualityText).Msg("forecast has no usable quality label")
		return OutcomeNoQuality, "", NoQualityMessage, nil
	}

	if !r.qualities[quality] {
		logger.Info().Str("quality", string(quality)).Msg("quality below notification threshold")
		return OutcomeSkipped, quality, "", nil
	}

	params := r.buildDisplayParams(ctx, forecast, coords)
	if !params.Zone.Resolved {
		logger.Warn().Msg("timezone not resolved, using UTC")
	}

	return OutcomeNotified, quality, FormatForecastMessage(quality, params), nil
}

func (r *Runner) fetchForecast(ctx context.Context, coords geo.Coordinates, date time.Time) (*sunset.Forecast, bool, error) {
	ctx, span := r.tracer.Start(ctx, "sunsetbot.fetch_forecast",
		trace.WithAttributes(attribute.String("forecast.date", date.Format("2006-01-02"))),
	)
	defer span.End()

	forecast, ok, err := r.forecasts.FetchForecast(ctx, coords.Lat, coords.Lon, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("forecast.available", ok))
	return forecast, ok, err
}

func (r *Runner) buildDisplayParams(ctx context.Context, f *sunset.Forecast, coords geo.Coordinates) sunset.DisplayParams {
	ctx, span := r.tracer.Start(ctx, "sunsetbot.format")
	defer span.End()

	params := r.formatter.BuildDisplayParams(ctx, f, coords)
	span.SetAttributes(
		attribute.String("timezone", params.Zone.Name()),
		attribute.Bool("timezone.resolved", params.Zone.Resolved),
		attribute.Bool("location.resolved", params.Place.Resolved),
	)
	return params
}

func (r *Runner) fail(ctx context.Context, logger zerolog.Logger, res Result, err error) Result {
	logger.Error().Err(err).Msg("run failed")

	res.Outcome = OutcomeFailed
	res.Err = err
	res.Message = ErrorMessage(err)
	res.Delivered = r.send(ctx, res.Message)
	return res
}

func (r *Runner) send(ctx context.Context, message string) bool {
	ctx, span := r.tracer.Start(ctx, "sunsetbot.notify")
	defer span.End()

	delivered := r.notifier.Deliver(ctx, message)
	span.SetAttributes(attribute.Bool("notification.delivered", delivered))
	r.metrics.RecordNotification(ctx, delivered)
	return delivered
}
