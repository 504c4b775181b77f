// Package registry implements the HTTP client for the external charging
// station registry. Responses are mapped to the core station model; a
// too-many-requests answer surfaces as discovery.ErrRateLimited so the
// discovery layer can apply its backoff schedule.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kilianp07/evroute/auth"
	"github.com/kilianp07/evroute/core/discovery"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
)

// Config defines the registry endpoint settings. APIKey and OAuth are
// mutually exclusive; OAuth wins when both are set.
type Config struct {
	BaseURL        string     `json:"base_url"`
	APIKey         string     `json:"api_key"`
	OAuth          *auth.Conf `json:"oauth"`
	TimeoutSeconds float64    `json:"timeout_seconds"`
}

// SetDefaults applies the client timeout default.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

// Client queries the station registry over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	cred *auth.ClientCred
	log  logger.Logger
}

// New creates a registry client.
func New(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds * float64(time.Second))},
		log:  log,
	}
	if cfg.OAuth != nil {
		c.cred = auth.NewClientCred(*cfg.OAuth)
	}
	return c, nil
}

// stationRecord mirrors the registry wire format: station records with
// nested connection sub-objects.
type stationRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	PricePerKWh float64  `json:"price_per_kwh"`
	Rating      float64  `json:"rating"`
	Operational bool     `json:"operational"`
	Amenities   []string `json:"amenities"`
	Connections []struct {
		Type    string  `json:"type"`
		PowerKW float64 `json:"power_kw"`
	} `json:"connections"`
}

// Search implements discovery.Registry.
func (c *Client) Search(ctx context.Context, q discovery.Query) ([]model.Station, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	params.Set("radius_km", strconv.FormatFloat(q.RadiusKm, 'f', 1, 64))
	params.Set("max_results", strconv.Itoa(q.MaxResults))
	if q.OperationalOnly {
		params.Set("status", "operational")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/stations?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	switch {
	case c.cred != nil:
		if err := c.cred.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	case c.cfg.APIKey != "":
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, discovery.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var records []stationRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	stations := make([]model.Station, 0, len(records))
	for _, r := range records {
		stations = append(stations, toStation(r))
	}
	return stations, nil
}

func toStation(r stationRecord) model.Station {
	st := model.Station{
		ID:          r.ID,
		Name:        r.Name,
		Coord:       model.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		PricePerKWh: r.PricePerKWh,
		Rating:      r.Rating,
		Amenities:   r.Amenities,
		Operational: r.Operational,
	}
	for _, conn := range r.Connections {
		st.Connectors = append(st.Connectors, conn.Type)
		if conn.PowerKW > st.PowerKW {
			st.PowerKW = conn.PowerKW
		}
	}
	return st
}
