package planner

import "fmt"

// Config is the single configuration surface for all SOC safety margins and
// charging parameters. The planner refuses scattered overrides: every module
// reads these values from here.
type Config struct {
	// MinSOCPercent is the floor the planner never lets SOC cross while
	// driving continues.
	MinSOCPercent float64 `json:"min_soc_percent"`
	// MaxSOCPercent caps every charge target.
	MaxSOCPercent float64 `json:"max_soc_percent"`
	// StartSOCPercent is used when the caller does not supply a start SOC.
	StartSOCPercent float64 `json:"start_soc_percent"`
	// ArrivalFloorPercent is the minimum SOC required at the destination.
	ArrivalFloorPercent float64 `json:"arrival_floor_percent"`
	// SafetyBufferPercent is added on top of the computed charge requirement.
	SafetyBufferPercent float64 `json:"safety_buffer_percent"`
	// ChargeEfficiency discounts station power for conversion losses.
	ChargeEfficiency float64 `json:"charge_efficiency"`
	// MaxStopsPerSegment bounds stop insertions on a single segment so the
	// re-evaluation loop always terminates.
	MaxStopsPerSegment int `json:"max_stops_per_segment"`
}

// SetDefaults applies the documented default margins.
func (c *Config) SetDefaults() {
	if c.MinSOCPercent == 0 {
		c.MinSOCPercent = 20
	}
	if c.MaxSOCPercent == 0 {
		c.MaxSOCPercent = 80
	}
	if c.StartSOCPercent == 0 {
		c.StartSOCPercent = 85
	}
	if c.ArrivalFloorPercent == 0 {
		c.ArrivalFloorPercent = 15
	}
	if c.SafetyBufferPercent == 0 {
		c.SafetyBufferPercent = 5
	}
	if c.ChargeEfficiency == 0 {
		c.ChargeEfficiency = 0.85
	}
	if c.MaxStopsPerSegment == 0 {
		c.MaxStopsPerSegment = 2
	}
}

// Validate checks the margin ordering.
func (c Config) Validate() error {
	if c.MinSOCPercent < 0 || c.MinSOCPercent > 100 {
		return fmt.Errorf("min_soc_percent out of range: %v", c.MinSOCPercent)
	}
	if c.MaxSOCPercent <= c.MinSOCPercent || c.MaxSOCPercent > 100 {
		return fmt.Errorf("max_soc_percent must be in (min_soc, 100]: %v", c.MaxSOCPercent)
	}
	if c.ArrivalFloorPercent < 0 || c.ArrivalFloorPercent > c.MaxSOCPercent {
		return fmt.Errorf("arrival_floor_percent out of range: %v", c.ArrivalFloorPercent)
	}
	if c.ChargeEfficiency <= 0 || c.ChargeEfficiency > 1 {
		return fmt.Errorf("charge_efficiency must be in (0,1]: %v", c.ChargeEfficiency)
	}
	if c.MaxStopsPerSegment < 1 {
		return fmt.Errorf("max_stops_per_segment must be at least 1: %d", c.MaxStopsPerSegment)
	}
	return nil
}
