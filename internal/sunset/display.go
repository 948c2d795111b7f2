package sunset

import (
	"context"
	"fmt"

	"github.com/sunsetbot/sunsetbot/internal/geo"
	"github.com/sunsetbot/sunsetbot/internal/geocoding"
	"github.com/sunsetbot/sunsetbot/internal/localtime"
)

// Placeholder strings used in display parameters.
const (
	NotAvailable = "N/A"
	UnknownTime  = "Unknown"
)

// DisplayParams are the display-ready strings of one forecast. Build them
// with Formatter.BuildDisplayParams and treat them as read-only.
type DisplayParams struct {
	SunsetTime      string
	CloudCover      string
	Quality         *float64
	Direction       string
	GoldenHourStart string
	GoldenHourEnd   string
	BlueHourStart   string
	BlueHourEnd     string
	Location        string

	// Zone and Place record whether the lookups succeeded or fell back.
	Zone  localtime.Zone
	Place geocoding.PlaceName
}

// QualityPercent renders the quality fraction as "87%", or "N/A".
func (p DisplayParams) QualityPercent() string {
	return Percent(p.Quality)
}

// GoldenHourAvailable reports whether both golden hour times are known.
func (p DisplayParams) GoldenHourAvailable() bool {
	return p.GoldenHourStart != NotAvailable && p.GoldenHourEnd != NotAvailable
}

// BlueHourAvailable reports whether both blue hour times are known.
func (p DisplayParams) BlueHourAvailable() bool {
	return p.BlueHourStart != NotAvailable && p.BlueHourEnd != NotAvailable
}

// Percent renders a 0–1 fraction as a whole-number percentage.
func Percent(fraction *float64) string {
	if fraction == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.0f%%", *fraction*100)
}

// FormatWindow formats both ends of w in z. A window missing either end
// yields "N/A" for both.
func FormatWindow(w Window, z localtime.Zone) (start, end string) {
	if !w.Valid() {
		return NotAvailable, NotAvailable
	}
	return localtime.FormatIn(*w[0], z), localtime.FormatIn(*w[1], z)
}

// ZoneResolver maps coordinates to the zone used for display times.
type ZoneResolver interface {
	Resolve(lat, lon float64) localtime.Zone
}

// PlaceNamer maps coordinates to a place name.
type PlaceNamer interface {
	Name(ctx context.Context, lat, lon float64) geocoding.PlaceName
}

// Formatter builds DisplayParams.
type Formatter struct {
	zones ZoneResolver
	namer PlaceNamer
}

// NewFormatter creates a formatter. A nil zones resolver uses the timezone
// boundary dataset.
func NewFormatter(zones ZoneResolver, namer PlaceNamer) *Formatter {
	if zones == nil {
		zones = localtime.Resolver{}
	}
	return &Formatter{zones: zones, namer: namer}
}

// BuildDisplayParams turns f into display strings for the location at c.
// The zone is resolved once and used for every timestamp. f must not be nil.
func (fm *Formatter) BuildDisplayParams(ctx context.Context, f *Forecast, c geo.Coordinates) DisplayParams {
	zone := fm.zones.Resolve(c.Lat, c.Lon)

	sunsetTime := UnknownTime
	if f.Time != nil && *f.Time != "" {
		sunsetTime = localtime.FormatIn(*f.Time, zone)
	}

	var quality *float64
	if f.Quality != nil {
		q := *f.Quality
		quality = &q
	}

	goldenStart, goldenEnd := FormatWindow(f.Magics.GoldenHour, zone)
	blueStart, blueEnd := FormatWindow(f.Magics.BlueHour, zone)

	place := fm.namer.Name(ctx, c.Lat, c.Lon)

	return DisplayParams{
		SunsetTime:      sunsetTime,
		CloudCover:      Percent(f.CloudCover),
		Quality:         quality,
		Direction:       FormatDirection(f.Direction),
		GoldenHourStart: goldenStart,
		GoldenHourEnd:   goldenEnd,
		BlueHourStart:   blueStart,
		BlueHourEnd:     blueEnd,
		Location:        place.Label,
		Zone:            zone,
		Place:           place,
	}
}
