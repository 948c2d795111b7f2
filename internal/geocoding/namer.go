package geocoding

import (
	"context"

	"github.com/rs/zerolog"
)

// Namer resolves coordinates to a place name and never fails.
type Namer struct {
	reverser Reverser
	logger   zerolog.Logger
}

// NewNamer creates a namer backed by reverser.
func NewNamer(reverser Reverser, logger zerolog.Logger) *Namer {
	return &Namer{
		reverser: reverser,
		logger:   logger,
	}
}

// Name returns the place name for lat/lon. Lookup and decoding errors are
// logged and turned into the UnknownLocation fallback.
func (n *Namer) Name(ctx context.Context, lat, lon float64) PlaceName {
	addr, err := n.reverser.Reverse(ctx, lat, lon)
	if err != nil {
		n.logger.Warn().
			Err(err).
			Str("provider", n.reverser.Name()).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("reverse geocoding failed, using fallback name")
		return PlaceName{Label: UnknownLocation}
	}

	label, ok := ComposeName(*addr)
	return PlaceName{Label: label, Resolved: ok}
}
