// Package nominatim is a reverse-geocoding client for the OpenStreetMap
// Nominatim service.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sunsetbot/sunsetbot/internal/geocoding"
	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the bot, as the Nominatim usage policy requires.
	DefaultUserAgent = "SunsetBot/1.0"

	// zoom 10 resolves to city level.
	reverseZoom = "10"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public service).
	BaseURL string

	// UserAgent is the client identifier header (optional).
	UserAgent string

	// HTTPClient is the upstream client (optional).
	// If nil, uses a client limited to one request per second.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim reverse-geocoding client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// DefaultHTTPClientConfig returns the upstream settings Nominatim's usage
// policy asks for: at most one request per second.
func DefaultHTTPClientConfig() resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(ProviderName)
	cfg.RateLimit = rate.Limit(1)
	cfg.UserAgent = DefaultUserAgent
	return cfg
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(DefaultHTTPClientConfig())
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Reverse looks up the address at lat/lon.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*geocoding.Address, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("zoom", reverseZoom)
	params.Set("addressdetails", "1")

	reqURL := c.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s", geocoding.ErrNoAddress, body.Error)
	}

	c.logger.Debug().
		Str("display_name", body.DisplayName).
		Msg("reverse geocoded location")

	return &geocoding.Address{
		City:         body.Address.City,
		Town:         body.Address.Town,
		Village:      body.Address.Village,
		Municipality: body.Address.Municipality,
		Country:      body.Address.Country,
	}, nil
}

// Nominatim API response structures.

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		Country      string `json:"country"`
	} `json:"address"`
}
