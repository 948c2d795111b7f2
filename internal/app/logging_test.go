package app_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunsetbot/sunsetbot/internal/app"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLogger(&buf, app.LogConfig{Service: "sunsetbot", Version: "1.2.3", Level: zerolog.InfoLevel})

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "sunsetbot", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLogger(&buf, app.LogConfig{Service: "sunsetbot", Level: zerolog.DebugLevel, Pretty: true})

	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}
