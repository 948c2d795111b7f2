// Package sunsethue is a client for the Sunsethue sunset-quality forecast API.
package sunsethue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
	"github.com/sunsetbot/sunsetbot/internal/sunset"
)

const (
	// ProviderName identifies this forecast provider.
	ProviderName = "sunsethue"

	// DefaultBaseURL is the Sunsethue API base URL.
	DefaultBaseURL = "https://api.sunsethue.com"

	// dateLayout is the date query format, YYYY-MM-DD.
	dateLayout = "2006-01-02"
)

// ClientConfig holds configuration for the Sunsethue client.
type ClientConfig struct {
	// APIKey is the Sunsethue API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the Sunsethue API).
	BaseURL string

	// HTTPClient is the upstream client (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Sunsethue API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Sunsethue client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchForecast fetches the sunset forecast for lat/lon on the UTC calendar
// date of date.
//
// A non-success status is returned as an error wrapping sunset.ErrFetchFailed.
// A successful response whose model_data flag is false or missing yields
// (nil, false, nil): there is no usable forecast, which is not a failure.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64, date time.Time) (*sunset.Forecast, bool, error) {
	day := date.UTC()

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("date", day.Format(dateLayout))
	params.Set("type", string(sunset.EventSunset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/event?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("%w: unexpected status code: %d %s", sunset.ErrFetchFailed, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var body eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}

	if body.Data == nil || !body.modelData() {
		c.logger.Info().
			Str("date", day.Format(dateLayout)).
			Msg("forecast has no model data")
		return nil, false, nil
	}

	return c.toForecast(body.Data, day), true, nil
}

// toForecast converts the Sunsethue payload to the domain model.
func (c *Client) toForecast(d *eventData, day time.Time) *sunset.Forecast {
	eventType := sunset.EventType(d.Type)
	if eventType == "" {
		eventType = sunset.EventSunset
	}

	return &sunset.Forecast{
		Date:        time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Type:        eventType,
		QualityText: d.QualityText,
		Quality:     d.Quality,
		CloudCover:  d.CloudCover,
		Direction:   d.Direction,
		Time:        d.Time,
		Magics: sunset.Magics{
			GoldenHour: sunset.Window(d.Magics.GoldenHour),
			BlueHour:   sunset.Window(d.Magics.BlueHour),
		},
		ModelData: true,
	}
}

// Sunsethue API response structures.

type eventResponse struct {
	ModelData *bool      `json:"model_data"`
	Data      *eventData `json:"data"`
}

// modelData reads the flag from the data object, falling back to the envelope.
func (r *eventResponse) modelData() bool {
	if r.Data != nil && r.Data.ModelData != nil {
		return *r.Data.ModelData
	}
	if r.ModelData != nil {
		return *r.ModelData
	}
	return false
}

type eventData struct {
	Type        string   `json:"type"`
	ModelData   *bool    `json:"model_data"`
	QualityText string   `json:"quality_text"`
	Quality     *float64 `json:"quality"`
	CloudCover  *float64 `json:"cloud_cover"`
	Direction   *float64 `json:"direction"`
	Time        *string  `json:"time"`
	Magics      struct {
		GoldenHour []*string `json:"golden_hour"`
		BlueHour   []*string `json:"blue_hour"`
	} `json:"magics"`
}
