package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
)

// maxDocumentSize bounds the coordinates document read.
const maxDocumentSize = 1 << 10

// SourceConfig holds configuration for the coordinates source.
type SourceConfig struct {
	// URL of the plain-text "lat,lon" document (required).
	URL string

	// HTTPClient is the upstream client (optional).
	HTTPClient *resilience.Client

	// Logger for source operations.
	Logger zerolog.Logger
}

// Source fetches the tracked location once per run.
type Source struct {
	url        string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewSource creates a coordinates source.
func NewSource(cfg SourceConfig) *Source {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("coordinates"))
	}

	return &Source{
		url:        cfg.URL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Fetch downloads and parses the coordinates document. Any failure is an
// error: a run cannot proceed without a location.
func (s *Source) Fetch(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return Coordinates{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return Coordinates{}, fmt.Errorf("reading coordinates document: %w", err)
	}

	coords, err := ParseCoordinates(string(body))
	if err != nil {
		return Coordinates{}, err
	}

	s.logger.Debug().
		Float64("lat", coords.Lat).
		Float64("lon", coords.Lon).
		Msg("coordinates loaded")

	return coords, nil
}
