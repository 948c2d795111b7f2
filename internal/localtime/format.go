package localtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InvalidTime is rendered when a timestamp cannot be parsed.
const InvalidTime = "Invalid time"

// ErrInvalidTimestamp is returned by Parse for unrecognised input.
var ErrInvalidTimestamp = errors.New("invalid ISO-8601 timestamp")

// Layouts tried in order. Values without an offset are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse reads an ISO-8601 timestamp. A trailing "Z" means +00:00.
func Parse(ts string) (time.Time, error) {
	s := strings.TrimSpace(ts)
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
}

// Clock parses ts and renders it as zero-padded 24h "HH:MM" in loc.
func Clock(ts string, loc *time.Location) (string, error) {
	t, err := Parse(ts)
	if err != nil {
		return "", err
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04"), nil
}

// Format is Clock with the error replaced by "Invalid time". Formatting
// failures never abort a run.
func Format(ts string, loc *time.Location) string {
	s, err := Clock(ts, loc)
	if err != nil {
		return InvalidTime
	}
	return s
}

// FormatIn formats ts in the zone z.
func FormatIn(ts string, z Zone) string {
	return Format(ts, z.loc())
}
