// Package localtime resolves the timezone of the tracked location and renders
// forecast timestamps as local wall-clock times.
package localtime

import (
	"time"
	_ "time/tzdata" // zone database for minimal container images

	"github.com/bradfitz/latlong"
)

// Zone is the timezone used to localise every timestamp of one message.
// Resolved is false when the lookup fell back to UTC.
type Zone struct {
	Location *time.Location
	Resolved bool
}

// Name returns the IANA name of the zone.
func (z Zone) Name() string {
	return z.loc().String()
}

func (z Zone) loc() *time.Location {
	if z.Location == nil {
		return time.UTC
	}
	return z.Location
}

// UTC is the fallback zone.
func UTC() Zone {
	return Zone{Location: time.UTC}
}

// Resolve looks up the zone covering lat/lon in the timezone boundary
// dataset. Unknown waters, invalid coordinates and unloadable zone names all
// yield UTC with Resolved=false; the fallback is never an error.
func Resolve(lat, lon float64) Zone {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return UTC()
	}

	name := latlong.LookupZoneName(lat, lon)
	if name == "" {
		return UTC()
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return UTC()
	}

	return Zone{Location: loc, Resolved: true}
}

// Resolver resolves zones with Resolve. It satisfies the formatter's
// ZoneResolver dependency.
type Resolver struct{}

// Resolve implements the zone lookup.
func (Resolver) Resolve(lat, lon float64) Zone {
	return Resolve(lat, lon)
}

// Fixed always returns the same zone. Tests and deployments that pin the
// reporting zone use it instead of the dataset lookup.
type Fixed struct {
	Zone Zone
}

// Resolve returns the pinned zone.
func (f Fixed) Resolve(_, _ float64) Zone {
	return f.Zone
}
