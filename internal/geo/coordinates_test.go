package geo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunsetbot/sunsetbot/internal/geo"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    geo.Coordinates
		wantErr error
	}{
		{"plain", "63.4305,10.3950", geo.Coordinates{Lat: 63.4305, Lon: 10.3950}, nil},
		{"whitespace and newline", "  63.43 , 10.40\n", geo.Coordinates{Lat: 63.43, Lon: 10.40}, nil},
		{"negative", "-33.86,151.21", geo.Coordinates{Lat: -33.86, Lon: 151.21}, nil},
		{"boundary", "90,-180", geo.Coordinates{Lat: 90, Lon: -180}, nil},
		{"empty", "", geo.Coordinates{}, geo.ErrMalformedCoordinates},
		{"single value", "63.43", geo.Coordinates{}, geo.ErrMalformedCoordinates},
		{"three values", "1,2,3", geo.Coordinates{}, geo.ErrMalformedCoordinates},
		{"not a number", "north,10", geo.Coordinates{}, geo.ErrMalformedCoordinates},
		{"latitude out of range", "91,10", geo.Coordinates{}, geo.ErrInvalidCoordinates},
		{"longitude out of range", "10,180.5", geo.Coordinates{}, geo.ErrInvalidCoordinates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geo.ParseCoordinates(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinates_String(t *testing.T) {
	assert.Equal(t, "63.4305,10.395", geo.Coordinates{Lat: 63.4305, Lon: 10.395}.String())
}

func TestSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/location.txt", r.URL.Path)
		_, _ = w.Write([]byte("63.4305,10.3950\n"))
	}))
	defer server.Close()

	source := geo.NewSource(geo.SourceConfig{URL: server.URL + "/location.txt"})

	coords, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 63.4305, coords.Lat)
	assert.Equal(t, 10.3950, coords.Lon)
}

func TestSource_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := geo.NewSource(geo.SourceConfig{URL: server.URL})

	_, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSource_Fetch_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>moved</html>"))
	}))
	defer server.Close()

	source := geo.NewSource(geo.SourceConfig{URL: server.URL})

	_, err := source.Fetch(context.Background())
	assert.ErrorIs(t, err, geo.ErrMalformedCoordinates)
}
