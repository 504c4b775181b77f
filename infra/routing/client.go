// Package routing implements the route provider client. The provider is an
// OSRM-compatible HTTP service; when it fails, a degraded straight-line route
// is returned instead of an error so planning can still proceed.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/evroute/core/geo"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
)

// Config defines the route provider settings.
type Config struct {
	BaseURL        string  `json:"base_url"`
	Profile        string  `json:"profile"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

// SetDefaults applies the provider defaults.
func (c *Config) SetDefaults() {
	if c.Profile == "" {
		c.Profile = "driving"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

// Client fetches routes between two coordinates.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// New creates a routing client.
func New(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds * float64(time.Second))},
		log:  log,
	}, nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Summary string `json:"summary"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route returns the driving route between origin and destination. On any
// provider failure it logs the cause and returns the straight-line fallback.
func (c *Client) Route(ctx context.Context, origin, destination model.Coordinate) (model.Route, error) {
	route, err := c.fetch(ctx, origin, destination)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("route provider failed, using straight-line fallback: %v", err)
		}
		return Fallback(origin, destination), nil
	}
	return route, nil
}

func (c *Client) fetch(ctx context.Context, origin, destination model.Coordinate) (model.Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.cfg.BaseURL, c.cfg.Profile,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Route{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.Route{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.Route{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return model.Route{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return model.Route{}, fmt.Errorf("no route found: %s", decoded.Code)
	}

	best := decoded.Routes[0]
	points := make([]model.Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		points = append(points, model.Coordinate{Latitude: pair[1], Longitude: pair[0]})
	}
	if len(points) < 2 {
		return model.Route{}, fmt.Errorf("route geometry has %d points", len(points))
	}

	summary := ""
	if len(best.Legs) > 0 {
		summary = best.Legs[0].Summary
	}
	return model.Route{
		Points:          points,
		TotalDistanceM:  best.Distance,
		DurationSeconds: best.Duration,
		Summary:         summary,
	}, nil
}

// Fallback builds the degraded two-point straight-line route.
func Fallback(origin, destination model.Coordinate) model.Route {
	distKm := geo.DistanceKm(origin, destination)
	return model.Route{
		Points:         []model.Coordinate{origin, destination},
		TotalDistanceM: distKm * 1000,
		Warnings:       []string{"straight-line fallback route: distance is approximate"},
	}
}
