package bot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sunsetbot/sunsetbot/internal/bot"
	"github.com/sunsetbot/sunsetbot/internal/geo"
	"github.com/sunsetbot/sunsetbot/internal/geocoding"
	"github.com/sunsetbot/sunsetbot/internal/geocoding/nominatim"
	"github.com/sunsetbot/sunsetbot/internal/localtime"
	"github.com/sunsetbot/sunsetbot/internal/notify"
	"github.com/sunsetbot/sunsetbot/internal/notify/telegram"
	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
	"github.com/sunsetbot/sunsetbot/internal/sunset"
	"github.com/sunsetbot/sunsetbot/internal/sunset/sunsethue"
)

const greatForecast = `{
	"data": {
		"model_data": true,
		"quality_text": "great",
		"quality": 0.87,
		"cloud_cover": 0.2,
		"direction": 200,
		"time": "2024-06-21T19:45:00Z",
		"magics": {
			"golden_hour": ["2024-06-21T18:30:00Z", "2024-06-21T19:15:00Z"],
			"blue_hour": [null, null]
		}
	}
}`

var runTime = time.Date(2024, 6, 21, 6, 0, 0, 0, time.UTC)

// upstreams fakes every HTTP dependency of a run.
type upstreams struct {
	coordinates *httptest.Server
	forecast    *httptest.Server
	nominatim   *httptest.Server
	telegram    *httptest.Server

	forecastBody   string
	forecastStatus int

	mu       sync.Mutex
	messages []string
}

func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{forecastBody: greatForecast, forecastStatus: http.StatusOK}

	u.coordinates = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("63.43,10.40\n"))
	}))
	u.forecast = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-06-21", r.URL.Query().Get("date"))
		w.WriteHeader(u.forecastStatus)
		_, _ = w.Write([]byte(u.forecastBody))
	}))
	u.nominatim = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"city":"Trondheim","country":"Norway"}}`))
	}))
	u.telegram = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		u.mu.Lock()
		u.messages = append(u.messages, r.PostForm.Get("text"))
		u.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))

	t.Cleanup(func() {
		u.coordinates.Close()
		u.forecast.Close()
		u.nominatim.Close()
		u.telegram.Close()
	})
	return u
}

func (u *upstreams) sent() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.messages...)
}

func (u *upstreams) runner(qualities ...sunset.Quality) *bot.Runner {
	httpClient := func(name string) *resilience.Client {
		return resilience.NewClient(resilience.DefaultClientConfig(name))
	}

	namer := geocoding.NewNamer(nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    u.nominatim.URL,
		HTTPClient: httpClient("nominatim"),
	}), zerolog.Nop())

	plus2 := localtime.Zone{Location: time.FixedZone("UTC+2", 2*60*60), Resolved: true}

	return bot.NewRunner(bot.Config{
		Coordinates: geo.NewSource(geo.SourceConfig{URL: u.coordinates.URL, HTTPClient: httpClient("coordinates")}),
		Forecasts: sunsethue.NewClient(sunsethue.ClientConfig{
			APIKey:     "****",
			BaseURL:    u.forecast.URL,
			HTTPClient: httpClient("sunsethue"),
		}),
		Formatter: sunset.NewFormatter(localtime.Fixed{Zone: plus2}, namer),
		Notifier: telegram.NewClient(telegram.ClientConfig{
			Token:      "123:abc",
			ChatID:     "42",
			BaseURL:    u.telegram.URL,
			HTTPClient: httpClient("telegram"),
		}),
		NotifyQualities: qualities,
		Clock:           func() time.Time { return runTime },
		Logger:          zerolog.Nop(),
	})
}

func TestRunner_Run_EndToEnd(t *testing.T) {
	u := newUpstreams(t)

	res := u.runner().Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, bot.OutcomeNotified, res.Outcome)
	assert.Equal(t, sunset.QualityGreat, res.Quality)
	assert.True(t, res.Delivered)
	assert.NotEmpty(t, res.RunID)

	sent := u.sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, res.Message, msg)
	assert.Contains(t, msg, "Sunset forecast for Trondheim, Norway")
	assert.Contains(t, msg, "*GREAT*")
	assert.Contains(t, msg, "87%")
	assert.Contains(t, msg, "🕒 Sunset: 21:45")
	assert.Contains(t, msg, "☁️ Cloud cover: 20%")
	assert.Contains(t, msg, "🧭 Direction: S (200º)")
	assert.Contains(t, msg, "✨ Golden hour: 20:30 - 21:15")
	assert.Contains(t, msg, "🔵 Blue hour: No Info")
}

func TestRunner_Run_NoPrediction(t *testing.T) {
	u := newUpstreams(t)
	u.forecastBody = `{"data":{"model_data":false}}`

	res := u.runner().Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, bot.OutcomeNoPrediction, res.Outcome)
	assert.Equal(t, []string{bot.NoPredictionMessage}, u.sent())
}

func TestRunner_Run_NoQuality(t *testing.T) {
	for _, label := range []string{"", "spectacular"} {
		t.Run(label, func(t *testing.T) {
			u := newUpstreams(t)
			u.forecastBody = `{"data":{"model_data":true,"quality_text":"` + label + `"}}`

			res := u.runner().Run(context.Background())

			require.NoError(t, res.Err)
			assert.Equal(t, bot.OutcomeNoQuality, res.Outcome)
			assert.Equal(t, []string{bot.NoQualityMessage}, u.sent())
		})
	}
}

func TestRunner_Run_QualityIsCaseInsensitive(t *testing.T) {
	u := newUpstreams(t)
	u.forecastBody = `{"data":{"model_data":true,"quality_text":"Good","quality":0.5}}`

	res := u.runner().Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, bot.OutcomeNotified, res.Outcome)
	require.Len(t, u.sent(), 1)
	assert.Contains(t, u.sent()[0], "*GOOD* (50%)")
}

func TestRunner_Run_SkipsUnconfiguredQuality(t *testing.T) {
	u := newUpstreams(t)
	u.forecastBody = `{"data":{"model_data":true,"quality_text":"poor","quality":0.1}}`

	res := u.runner(sunset.QualityGood, sunset.QualityGreat).Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, bot.OutcomeSkipped, res.Outcome)
	assert.Equal(t, sunset.QualityPoor, res.Quality)
	assert.Empty(t, res.Message)
	assert.False(t, res.Delivered)
	assert.Empty(t, u.sent())
}

func TestRunner_Run_FetchFailure(t *testing.T) {
	u := newUpstreams(t)
	u.forecastStatus = http.StatusInternalServerError
	u.forecastBody = ``

	res := u.runner().Run(context.Background())

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, sunset.ErrFetchFailed)
	assert.Equal(t, bot.OutcomeFailed, res.Outcome)

	sent := u.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "⚠️ Sunset bot error:")
	assert.Contains(t, sent[0], "500")
}

func TestRunner_Run_CoordinatesFailure(t *testing.T) {
	u := newUpstreams(t)
	u.coordinates.Close()

	res := u.runner().Run(context.Background())

	require.Error(t, res.Err)
	assert.Equal(t, bot.OutcomeFailed, res.Outcome)
	require.Len(t, u.sent(), 1)
	assert.Contains(t, u.sent()[0], "fetching coordinates")
}

func TestRunner_Run_ErrorNoticeEscapesMarkdown(t *testing.T) {
	var sent []string
	runner := bot.NewRunner(bot.Config{
		Coordinates: stubSource{err: errors.New(`Get "http://example.com/my_location.txt": refused`)},
		Forecasts:   stubForecasts{},
		Notifier: notify.NotifierFunc(func(_ context.Context, text string) error {
			sent = append(sent, text)
			return nil
		}),
		Logger: zerolog.Nop(),
	})

	res := runner.Run(context.Background())

	assert.Equal(t, bot.OutcomeFailed, res.Outcome)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], `my\_location.txt`)
	assert.NotContains(t, sent[0], "my_location")
}

func TestRunner_Run_NotifierFailureIsSwallowed(t *testing.T) {
	var calls atomic.Int32
	runner := bot.NewRunner(bot.Config{
		Coordinates: stubSource{coords: geo.Coordinates{Lat: 63.43, Lon: 10.40}},
		Forecasts:   stubForecasts{},
		Notifier: notify.NotifierFunc(func(context.Context, string) error {
			calls.Add(1)
			return errors.New("telegram down")
		}),
		Logger: zerolog.Nop(),
	})

	res := runner.Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, bot.OutcomeNoPrediction, res.Outcome)
	assert.False(t, res.Delivered)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunner_Run_RecoversPanic(t *testing.T) {
	var sent []string
	runner := bot.NewRunner(bot.Config{
		Coordinates: stubSource{coords: geo.Coordinates{Lat: 63.43, Lon: 10.40}},
		Forecasts:   stubForecasts{panicWith: "nil map"},
		Notifier: notify.NotifierFunc(func(_ context.Context, text string) error {
			sent = append(sent, text)
			return nil
		}),
		Logger: zerolog.Nop(),
	})

	res := runner.Run(context.Background())

	assert.ErrorIs(t, res.Err, bot.ErrPanic)
	assert.Equal(t, bot.OutcomeFailed, res.Outcome)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "nil map")
}

func TestRunner_Run_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	runner := bot.NewRunner(bot.Config{
		Coordinates: stubSource{coords: geo.Coordinates{Lat: 63.43, Lon: 10.40}},
		Forecasts:   stubForecasts{},
		Notifier:    notify.NotifierFunc(func(context.Context, string) error { return nil }),
		Tracer:      tp.Tracer("test"),
		Logger:      zerolog.Nop(),
	})

	res := runner.Run(context.Background())
	require.NoError(t, res.Err)

	names := map[string]bool{}
	for _, s := range sr.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["sunsetbot.run"])
	assert.True(t, names["sunsetbot.fetch_forecast"])
	assert.True(t, names["sunsetbot.notify"])
}

func TestRunner_Run_Serialised(t *testing.T) {
	var active, maxActive atomic.Int32
	forecasts := stubForecasts{hook: func() {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
	}}

	runner := bot.NewRunner(bot.Config{
		Coordinates: stubSource{coords: geo.Coordinates{Lat: 63.43, Lon: 10.40}},
		Forecasts:   forecasts,
		Notifier:    notify.NotifierFunc(func(context.Context, string) error { return nil }),
		Logger:      zerolog.Nop(),
	})

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = runner.Run(context.Background()).RunID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, len(ids))
}

type stubSource struct {
	coords geo.Coordinates
	err    error
}

func (s stubSource) Fetch(context.Context) (geo.Coordinates, error) {
	return s.coords, s.err
}

type stubForecasts struct {
	panicWith string
	hook      func()
}

func (s stubForecasts) FetchForecast(context.Context, float64, float64, time.Time) (*sunset.Forecast, bool, error) {
	if s.panicWith != "" {
		panic(s.panicWith)
	}
	if s.hook != nil {
		s.hook()
	}
	return nil, false, nil
}
