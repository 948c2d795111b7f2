// Package geo holds the tracked location and loads it from the coordinates
// document.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate errors.
var (
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrMalformedCoordinates = errors.New("malformed coordinates document")
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Validate checks lat ∈ [-90, 90] and lon ∈ [-180, 180].
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) ||
		c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: %.6f,%.6f", ErrInvalidCoordinates, c.Lat, c.Lon)
	}
	return nil
}

// String renders the pair the way the coordinates document stores it.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// ParseCoordinates parses "lat,lon". Surrounding whitespace is ignored.
func ParseCoordinates(doc string) (Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(doc), ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("%w: expected \"lat,lon\", got %q", ErrMalformedCoordinates, doc)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: latitude: %v", ErrMalformedCoordinates, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: longitude: %v", ErrMalformedCoordinates, err)
	}

	c := Coordinates{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}
