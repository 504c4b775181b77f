package discovery

import (
	"fmt"
	"time"
)

// Config defines discovery tuning: clustering, adaptive radius, the global
// rate gate, retry schedule, cache TTL and result shaping.
type Config struct {
	// GridPrecision is the number of decimals lat/lng are truncated to when
	// bucketing route points into search clusters.
	GridPrecision int `json:"grid_precision"`
	// MaxSearchPoints caps the number of clustered search points.
	MaxSearchPoints int `json:"max_search_points"`
	// FallbackThreshold triggers the emergency simplification (start, 40%
	// mark, end) when clustering still yields more points than this.
	FallbackThreshold int `json:"fallback_threshold"`
	// RadiusStepsKm are the adaptive search radii tried in order until a
	// query returns at least one station.
	RadiusStepsKm []float64 `json:"radius_steps_km"`
	// MinRequestInterval is the process-wide gap between registry calls.
	MinRequestIntervalSeconds float64 `json:"min_request_interval_seconds"`
	// Retry schedule for rate-limited responses.
	RetryBaseSeconds float64 `json:"retry_base_seconds"`
	RetryMaxSeconds  float64 `json:"retry_max_seconds"`
	RetryMaxAttempts int     `json:"retry_max_attempts"`
	// CacheTTLMinutes bounds how long a registry response is reused.
	CacheTTLMinutes int `json:"cache_ttl_minutes"`
	// CacheKeyPrecision is the number of decimals coordinates are rounded to
	// in cache keys.
	CacheKeyPrecision int `json:"cache_key_precision"`
	// CorridorKm drops stations farther than this from the route.
	CorridorKm float64 `json:"corridor_km"`
	// MaxStations bounds the payload returned to the planner; beyond it the
	// faster power tiers are preferred.
	MaxStations int `json:"max_stations"`
	// FindTimeoutSeconds bounds one discovery call; outstanding search
	// points are abandoned and partial results returned.
	FindTimeoutSeconds float64 `json:"find_timeout_seconds"`
	// MaxResultsPerQuery is passed to the registry per call.
	MaxResultsPerQuery int `json:"max_results_per_query"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.GridPrecision == 0 {
		c.GridPrecision = 1
	}
	if c.MaxSearchPoints == 0 {
		c.MaxSearchPoints = 5
	}
	if c.FallbackThreshold == 0 {
		c.FallbackThreshold = 3
	}
	if len(c.RadiusStepsKm) == 0 {
		c.RadiusStepsKm = []float64{15, 25, 35}
	}
	if c.MinRequestIntervalSeconds == 0 {
		c.MinRequestIntervalSeconds = 2
	}
	if c.RetryBaseSeconds == 0 {
		c.RetryBaseSeconds = 5
	}
	if c.RetryMaxSeconds == 0 {
		c.RetryMaxSeconds = 30
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = 3
	}
	if c.CacheTTLMinutes == 0 {
		c.CacheTTLMinutes = 360
	}
	if c.CacheKeyPrecision == 0 {
		c.CacheKeyPrecision = 2
	}
	if c.CorridorKm == 0 {
		c.CorridorKm = 10
	}
	if c.MaxStations == 0 {
		c.MaxStations = 15
	}
	if c.FindTimeoutSeconds == 0 {
		c.FindTimeoutSeconds = 60
	}
	if c.MaxResultsPerQuery == 0 {
		c.MaxResultsPerQuery = 50
	}
}

// Validate checks the schedule and shaping parameters.
func (c Config) Validate() error {
	if c.MaxSearchPoints < 1 {
		return fmt.Errorf("max_search_points must be at least 1: %d", c.MaxSearchPoints)
	}
	for _, r := range c.RadiusStepsKm {
		if r <= 0 {
			return fmt.Errorf("radius steps must be positive: %v", c.RadiusStepsKm)
		}
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry_max_attempts must be at least 1: %d", c.RetryMaxAttempts)
	}
	if c.CorridorKm <= 0 {
		return fmt.Errorf("corridor_km must be positive: %v", c.CorridorKm)
	}
	return nil
}

func (c Config) cacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c Config) findTimeout() time.Duration {
	return time.Duration(c.FindTimeoutSeconds * float64(time.Second))
}

func (c Config) retryBase() time.Duration {
	return time.Duration(c.RetryBaseSeconds * float64(time.Second))
}

func (c Config) retryMax() time.Duration {
	return time.Duration(c.RetryMaxSeconds * float64(time.Second))
}
