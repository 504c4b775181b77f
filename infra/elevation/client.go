// Package elevation implements the batch elevation provider client. Lookups
// are chunked to the provider's per-call point limit; one elevation value is
// returned per input coordinate.
package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
)

// Config defines the elevation endpoint settings.
type Config struct {
	BaseURL        string  `json:"base_url"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	// BatchSize is the provider's per-call point limit.
	BatchSize int `json:"batch_size"`
}

// SetDefaults applies the documented limits.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
	if c.BatchSize == 0 {
		c.BatchSize = 512
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1: %d", c.BatchSize)
	}
	return nil
}

// Client fetches elevations in fixed-size batches.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// New creates an elevation client.
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

type lookupRequest struct {
	Locations []model.Coordinate `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Elevations returns one elevation value per input point, in order.
func (c *Client) Elevations(ctx context.Context, points []model.Coordinate) ([]float64, error) {
	out := make([]float64, 0, len(points))
	for start := 0; start < len(points); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(points) {
			end = len(points)
		}
		batch, err := c.lookup(ctx, points[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) lookup(ctx context.Context, points []model.Coordinate) ([]float64, error) {
	body, err := json.Marshal(lookupRequest{Locations: points})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, b)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Results) != len(points) {
		return nil, fmt.Errorf("expected %d elevations, got %d", len(points), len(decoded.Results))
	}
	elevations := make([]float64, len(decoded.Results))
	for i, r := range decoded.Results {
		elevations[i] = r.Elevation
	}
	return elevations, nil
}
