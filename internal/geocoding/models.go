// Package geocoding turns the tracked coordinates into a human-readable
// "City, Country" label.
package geocoding

import (
	"context"
	"errors"
)

// UnknownLocation is the label used when no name could be resolved.
const UnknownLocation = "Unknown location"

// ErrNoAddress is returned by reversers when the upstream has no address
// for the point.
var ErrNoAddress = errors.New("no address for location")

// Address holds the address fields the namer reads from a reverse lookup.
type Address struct {
	City         string
	Town         string
	Village      string
	Municipality string
	Country      string
}

// Locality returns the first non-empty of city, town, village, municipality.
func (a Address) Locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.Municipality} {
		if v != "" {
			return v
		}
	}
	return ""
}

// PlaceName is the outcome of naming a location. Resolved is false when
// Label is the UnknownLocation fallback.
type PlaceName struct {
	Label    string
	Resolved bool
}

// String returns the label.
func (p PlaceName) String() string {
	return p.Label
}

// ComposeName builds "{locality}, {country}", or whichever one is present.
// The boolean is false when neither is known.
func ComposeName(addr Address) (string, bool) {
	locality := addr.Locality()
	switch {
	case locality != "" && addr.Country != "":
		return locality + ", " + addr.Country, true
	case locality != "":
		return locality, true
	case addr.Country != "":
		return addr.Country, true
	default:
		return UnknownLocation, false
	}
}

// Reverser performs a reverse-geocoding lookup.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)

	// Name returns the provider name for logging.
	Name() string
}
