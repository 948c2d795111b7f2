package nominatim_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunsetbot/sunsetbot/internal/geocoding"
	"github.com/sunsetbot/sunsetbot/internal/geocoding/nominatim"
	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
)

func newTestClient(baseURL string) *nominatim.Client {
	return nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})
}

func TestClient_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Contains(t, r.URL.Query().Get("lat"), "63.43")
		assert.Contains(t, r.URL.Query().Get("lon"), "10.39")
		assert.Equal(t, "10", r.URL.Query().Get("zoom"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, nominatim.DefaultUserAgent, r.Header.Get("User-Agent"))

		response := map[string]interface{}{
			"display_name": "Trondheim, Trøndelag, Norway",
			"address": map[string]string{
				"city":    "Trondheim",
				"county":  "Trøndelag",
				"country": "Norway",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	addr, err := newTestClient(server.URL).Reverse(context.Background(), 63.4305, 10.3950)
	require.NoError(t, err)
	assert.Equal(t, "Trondheim", addr.City)
	assert.Equal(t, "Norway", addr.Country)
}

func TestClient_Reverse_CustomUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SunsetBot/2.0 (ops@example.com)", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"address":{}}`))
	}))
	defer server.Close()

	client := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:    server.URL,
		UserAgent:  "SunsetBot/2.0 (ops@example.com)",
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
		Logger:     zerolog.Nop(),
	})

	addr, err := client.Reverse(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, geocoding.Address{}, *addr)
}

func TestClient_Reverse_UnableToGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Reverse(context.Background(), 0, -30)
	assert.ErrorIs(t, err, geocoding.ErrNoAddress)
}

func TestClient_Reverse_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Reverse(context.Background(), 63.43, 10.40)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Reverse_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Reverse(context.Background(), 63.43, 10.40)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestNamer_WithNominatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"town":"Røros","country":"Norway"}}`))
	}))
	defer server.Close()

	namer := geocoding.NewNamer(newTestClient(server.URL), zerolog.Nop())
	assert.Equal(t, "Røros, Norway", namer.Name(context.Background(), 62.57, 11.38).Label)
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "nominatim", nominatim.NewClient(nominatim.ClientConfig{}).Name())
}
