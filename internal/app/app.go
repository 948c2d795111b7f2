// Package app wires the bot's components from configuration. Both the CLI
// and the worker build their runner here.
package app

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/sunsetbot/sunsetbot/internal/bot"
	"github.com/sunsetbot/sunsetbot/internal/config"
	"github.com/sunsetbot/sunsetbot/internal/geo"
	"github.com/sunsetbot/sunsetbot/internal/geocoding"
	"github.com/sunsetbot/sunsetbot/internal/geocoding/nominatim"
	"github.com/sunsetbot/sunsetbot/internal/localtime"
	"github.com/sunsetbot/sunsetbot/internal/notify"
	"github.com/sunsetbot/sunsetbot/internal/notify/telegram"
	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
	"github.com/sunsetbot/sunsetbot/internal/sunset"
	"github.com/sunsetbot/sunsetbot/internal/sunset/sunsethue"
	"github.com/sunsetbot/sunsetbot/internal/telemetry"
)

// Options adjust how the components are built.
type Options struct {
	// DryRun logs messages instead of sending them to Telegram.
	DryRun bool

	// Zones overrides the timezone resolver. Default: localtime.Resolver.
	Zones sunset.ZoneResolver

	// Clock overrides the runner's clock. Default: time.Now.
	Clock func() time.Time

	// Tracer and Metrics are passed to the runner. Optional.
	Tracer  trace.Tracer
	Metrics *telemetry.RunMetrics

	Logger zerolog.Logger
}

// App holds the wired runner and the registry of its upstream clients.
type App struct {
	Runner   *bot.Runner
	Registry *resilience.Registry
}

// New builds every upstream client and the runner from cfg.
func New(cfg *config.Config, opts Options) *App {
	log := opts.Logger
	registry := resilience.NewRegistry()

	upstream := func(base resilience.ClientConfig) *resilience.Client {
		base.Timeout = cfg.HTTPTimeout
		base.Registry = registry
		base.Logger = log
		return resilience.NewClient(base)
	}

	coordinates := geo.NewSource(geo.SourceConfig{
		URL:        cfg.CoordinatesURL,
		HTTPClient: upstream(resilience.DefaultClientConfig("coordinates")),
		Logger:     log.With().Str("component", "coordinates").Logger(),
	})

	forecasts := sunsethue.NewClient(sunsethue.ClientConfig{
		APIKey:     cfg.SunsethueAPIKey,
		BaseURL:    cfg.SunsethueBaseURL,
		HTTPClient: upstream(resilience.DefaultClientConfig(sunsethue.ProviderName)),
		Logger:     log.With().Str("component", sunsethue.ProviderName).Logger(),
	})

	nominatimHTTP := nominatim.DefaultHTTPClientConfig()
	nominatimHTTP.UserAgent = cfg.NominatimUserAgent
	reverser := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    cfg.NominatimBaseURL,
		UserAgent:  cfg.NominatimUserAgent,
		HTTPClient: upstream(nominatimHTTP),
		Logger:     log.With().Str("component", nominatim.ProviderName).Logger(),
	})

	zones := opts.Zones
	if zones == nil {
		zones = localtime.Resolver{}
	}
	formatter := sunset.NewFormatter(zones, geocoding.NewNamer(reverser, log))

	var notifier notify.Notifier
	if opts.DryRun {
		notifier = notify.LogNotifier{Logger: log}
	} else {
		notifier = telegram.NewClient(telegram.ClientConfig{
			Token:      cfg.TelegramBotToken,
			ChatID:     cfg.TelegramChatID,
			BaseURL:    cfg.TelegramBaseURL,
			HTTPClient: upstream(resilience.DefaultClientConfig(telegram.ProviderName)),
			Logger:     log.With().Str("component", telegram.ProviderName).Logger(),
		})
	}

	runner := bot.NewRunner(bot.Config{
		Coordinates:     coordinates,
		Forecasts:       forecasts,
		Formatter:       formatter,
		Notifier:        notifier,
		NotifyQualities: cfg.NotifyQualities,
		Clock:           opts.Clock,
		Tracer:          opts.Tracer,
		Metrics:         opts.Metrics,
		Logger:          log,
	})

	return &App{Runner: runner, Registry: registry}
}
