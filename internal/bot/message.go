package bot

import (
	"fmt"
	"strings"

	"github.com/sunsetbot/sunsetbot/internal/sunset"
)

// Notices sent when a run has nothing to report.
const (
	NoPredictionMessage = "🌫 No sunset prediction available for today."
	NoQualityMessage    = "🌫 Sunset forecast has no quality data today."
)

// noInfo replaces a window line whose start or end is unknown.
const noInfo = "No Info"

// markdownEscaper escapes the characters Telegram's legacy Markdown parse
// mode treats as entity markers.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// EscapeMarkdown makes s safe to embed as plain text in a Markdown message.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ErrorMessage is the notice sent when a run fails.
func ErrorMessage(err error) string {
	return "⚠️ Sunset bot error: " + EscapeMarkdown(err.Error())
}

// FormatForecastMessage renders the Markdown notification for a forecast
// with quality label q.
func FormatForecastMessage(q sunset.Quality, p sunset.DisplayParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🌅 *Sunset forecast for %s*\n\n", EscapeMarkdown(p.Location))
	fmt.Fprintf(&b, "Quality: *%s* (%s)\n", q.Upper(), p.QualityPercent())
	fmt.Fprintf(&b, "🕒 Sunset: %s\n", p.SunsetTime)
	fmt.Fprintf(&b, "☁️ Cloud cover: %s\n", p.CloudCover)
	fmt.Fprintf(&b, "🧭 Direction: %s\n", p.Direction)
	fmt.Fprintf(&b, "✨ Golden hour: %s\n", windowLine(p.GoldenHourAvailable(), p.GoldenHourStart, p.GoldenHourEnd))
	fmt.Fprintf(&b, "🔵 Blue hour: %s", windowLine(p.BlueHourAvailable(), p.BlueHourStart, p.BlueHourEnd))

	return b.String()
}

func windowLine(available bool, start, end string) string {
	if !available {
		return noInfo
	}
	return start + " - " + end
}
