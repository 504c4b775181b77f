package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/discovery"
)

func TestSearch_MapsRecords(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"latitude":  r.URL.Query().Get("latitude"),
			"radius_km": r.URL.Query().Get("radius_km"),
			"status":    r.URL.Query().Get("status"),
			"api_key":   r.Header.Get("X-API-Key"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "st-1",
				"name": "Aire de Beaune",
				"latitude": 47.02,
				"longitude": 4.83,
				"price_per_kwh": 0.59,
				"rating": 4.2,
				"operational": true,
				"amenities": ["restaurant"],
				"connections": [
					{"type": "CCS", "power_kw": 150},
					{"type": "Type2", "power_kw": 22}
				]
			}
		]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	require.NoError(t, err)

	stations, err := c.Search(context.Background(), discovery.Query{
		Latitude:        47.0,
		Longitude:       4.8,
		RadiusKm:        15,
		MaxResults:      50,
		OperationalOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, stations, 1)

	st := stations[0]
	assert.Equal(t, "st-1", st.ID)
	assert.Equal(t, 150.0, st.PowerKW, "max power across connections")
	assert.Equal(t, []string{"CCS", "Type2"}, st.Connectors)
	assert.Equal(t, 0.59, st.PricePerKWh)
	assert.True(t, st.Operational)

	assert.Equal(t, "47.000000", gotQuery["latitude"])
	assert.Equal(t, "15.0", gotQuery["radius_km"])
	assert.Equal(t, "operational", gotQuery["status"])
	assert.Equal(t, "secret", gotQuery["api_key"])
}

func TestSearch_TooManyRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), discovery.Query{Latitude: 47, Longitude: 4.8, RadiusKm: 15})
	require.Error(t, err)
	assert.True(t, errors.Is(err, discovery.ErrRateLimited))
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), discovery.Query{Latitude: 47, Longitude: 4.8, RadiusKm: 15})
	require.Error(t, err)
	assert.False(t, errors.Is(err, discovery.ErrRateLimited))
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
