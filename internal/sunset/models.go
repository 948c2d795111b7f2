// Package sunset models a sunset-quality forecast and turns it into the
// display strings of a notification.
package sunset

import (
	"errors"
	"strings"
	"time"
)

// Forecast errors.
var (
	// ErrFetchFailed is wrapped by forecast clients when the upstream answers
	// with a non-success status. It is the one pipeline failure that aborts a run.
	ErrFetchFailed = errors.New("forecast fetch failed")
)

// EventType is the kind of solar event a forecast describes.
type EventType string

const (
	EventSunset  EventType = "sunset"
	EventSunrise EventType = "sunrise"
)

// Quality is the forecast's category label, lower case.
type Quality string

const (
	QualityPoor      Quality = "poor"
	QualityFair      Quality = "fair"
	QualityGood      Quality = "good"
	QualityGreat     Quality = "great"
	QualityExcellent Quality = "excellent"
)

// KnownQualities lists every label the forecast service emits, worst first.
var KnownQualities = []Quality{QualityPoor, QualityFair, QualityGood, QualityGreat, QualityExcellent}

// ParseQuality normalises a label. The boolean is false for empty or
// unrecognised labels.
func ParseQuality(label string) (Quality, bool) {
	q := Quality(strings.ToLower(strings.TrimSpace(label)))
	for _, known := range KnownQualities {
		if q == known {
			return q, true
		}
	}
	return q, false
}

// Upper returns the label as shown in messages, e.g. "GREAT".
func (q Quality) Upper() string {
	return strings.ToUpper(string(q))
}

// Window is a [start, end] pair of optional ISO-8601 timestamps.
type Window []*string

// Valid reports whether the window has at least two elements and both the
// start and end are present.
func (w Window) Valid() bool {
	return len(w) >= 2 && w[0] != nil && w[1] != nil
}

// Magics holds the golden and blue hour windows around the event.
type Magics struct {
	GoldenHour Window
	BlueHour   Window
}

// Forecast is the forecast for one date, location and event type. Optional
// upstream fields are pointers; nil means absent.
type Forecast struct {
	Date        time.Time
	Type        EventType
	QualityText string
	Quality     *float64 // 0–1
	CloudCover  *float64 // 0–1
	Direction   *float64 // compass degrees
	Time        *string  // ISO-8601 event time
	Magics      Magics
	ModelData   bool
}
