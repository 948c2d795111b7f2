package bot_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunsetbot/sunsetbot/internal/bot"
	"github.com/sunsetbot/sunsetbot/internal/sunset"
)

func TestFormatForecastMessage(t *testing.T) {
	q := 0.87
	params := sunset.DisplayParams{
		SunsetTime:      "21:45",
		CloudCover:      "20%",
		Quality:         &q,
		Direction:       "SW (200º)",
		GoldenHourStart: "20:30",
		GoldenHourEnd:   "21:15",
		BlueHourStart:   sunset.NotAvailable,
		BlueHourEnd:     sunset.NotAvailable,
		Location:        "Trondheim, Norway",
	}

	want := "🌅 *Sunset forecast for Trondheim, Norway*\n\n" +
		"Quality: *GREAT* (87%)\n" +
		"🕒 Sunset: 21:45\n" +
		"☁️ Cloud cover: 20%\n" +
		"🧭 Direction: SW (200º)\n" +
		"✨ Golden hour: 20:30 - 21:15\n" +
		"🔵 Blue hour: No Info"

	assert.Equal(t, want, bot.FormatForecastMessage(sunset.QualityGreat, params))
}

func TestFormatForecastMessage_MissingValues(t *testing.T) {
	params := sunset.DisplayParams{
		SunsetTime:      sunset.UnknownTime,
		CloudCover:      sunset.NotAvailable,
		Direction:       sunset.NotAvailable,
		GoldenHourStart: "20:30",
		GoldenHourEnd:   sunset.NotAvailable,
		BlueHourStart:   sunset.NotAvailable,
		BlueHourEnd:     sunset.NotAvailable,
		Location:        "Unknown location",
	}

	msg := bot.FormatForecastMessage(sunset.QualityPoor, params)

	assert.Contains(t, msg, "Quality: *POOR* (N/A)")
	assert.Contains(t, msg, "🕒 Sunset: Unknown")
	assert.Contains(t, msg, "✨ Golden hour: No Info")
	assert.Contains(t, msg, "🔵 Blue hour: No Info")
	assert.Contains(t, msg, "Unknown location")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "⚠️ Sunset bot error: boom", bot.ErrorMessage(errors.New("boom")))
}

func TestErrorMessage_EscapesMarkdown(t *testing.T) {
	err := errors.New(`fetching coordinates: Get "http://example.com/my_location.txt": *refused* [x] ` + "`y`")

	assert.Equal(t,
		`⚠️ Sunset bot error: fetching coordinates: Get "http://example.com/my\_location.txt": \*refused\* \[x] \`+"`y\\`",
		bot.ErrorMessage(err))
}

func TestFormatForecastMessage_EscapesLocation(t *testing.T) {
	params := sunset.DisplayParams{
		SunsetTime: sunset.UnknownTime,
		CloudCover: sunset.NotAvailable,
		Direction:  sunset.NotAvailable,
		Location:   "Saint_Malo, France",
	}

	msg := bot.FormatForecastMessage(sunset.QualityGood, params)

	assert.Contains(t, msg, `🌅 *Sunset forecast for Saint\_Malo, France*`)
}
