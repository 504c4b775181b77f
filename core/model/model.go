package model

import (
	"encoding/json"
	"fmt"
)

// ConnectorType identifies the physical charging interface of a vehicle.
type ConnectorType int

const (
	ConnectorType2 ConnectorType = iota
	ConnectorCCS
	ConnectorCHAdeMO
)

// String returns the common name of the connector standard.
func (c ConnectorType) String() string {
	switch c {
	case ConnectorType2:
		return "Type2"
	case ConnectorCCS:
		return "CCS"
	case ConnectorCHAdeMO:
		return "CHAdeMO"
	default:
		return fmt.Sprintf("ConnectorType(%d)", int(c))
	}
}

// ParseConnectorType converts a connector name into its enum value.
func ParseConnectorType(s string) (ConnectorType, error) {
	switch s {
	case "Type2", "type2":
		return ConnectorType2, nil
	case "CCS", "ccs":
		return ConnectorCCS, nil
	case "CHAdeMO", "chademo":
		return ConnectorCHAdeMO, nil
	}
	return 0, fmt.Errorf("unknown connector type %q", s)
}

// MarshalJSON encodes the connector as its common name.
func (c ConnectorType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the common name of the connector standard.
func (c *ConnectorType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseConnectorType(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// VehicleProfile describes the battery and charging characteristics of a
// vehicle. Profiles are passed by value into a planning run and never
// mutated by the core.
type VehicleProfile struct {
	Name                 string        `json:"name"`
	BatteryCapacityKWh   float64       `json:"battery_capacity_kwh"`
	ConsumptionKWhPer100 float64       `json:"consumption_kwh_per_100km"`
	Connector            ConnectorType `json:"connector"`
	MaxChargeKW          float64       `json:"max_charge_kw"`    // 0 means no vehicle-side limit
	RegenEfficiency      float64       `json:"regen_efficiency"` // fraction of descent energy recovered, (0,1]
}

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Route is an ordered polyline plus the total driving distance reported by
// the route provider. The point sequence is never mutated by the core.
type Route struct {
	Points          []Coordinate
	TotalDistanceM  float64
	DurationSeconds float64
	Summary         string
	Warnings        []string
}

// TotalDistanceKm returns the route length in kilometers.
func (r Route) TotalDistanceKm() float64 { return r.TotalDistanceM / 1000 }

// RouteSegment is a derived slice of the route between two consecutive
// polyline points. Segments are produced on demand and not persisted.
type RouteSegment struct {
	Index           int
	DistanceKm      float64
	ElevationDeltaM float64
}

// Station is read-only reference data describing a charging station as
// reported by the external registry.
type Station struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Coord       Coordinate `json:"coord"`
	PowerKW     float64    `json:"power_kw"` // max power across all connectors
	Connectors  []string   `json:"connectors"`
	PricePerKWh float64    `json:"price_per_kwh"` // 0 means unknown
	Rating      float64    `json:"rating"`        // 0..5, 0 means unrated
	Amenities   []string   `json:"amenities,omitempty"`
	Operational bool       `json:"operational"`
}

// ChargingStop records a single planned charge. Stops are append-only: once
// created by the planner they are never mutated.
type ChargingStop struct {
	StationID           string  `json:"station_id"`
	StationName         string  `json:"station_name"`
	DistanceFromStartKm float64 `json:"distance_from_start_km"`
	SOCBeforePercent    float64 `json:"soc_before_percent"`
	SOCAfterPercent     float64 `json:"soc_after_percent"`
	EnergyAddedKWh      float64 `json:"energy_added_kwh"`
	ChargeTimeMin       float64 `json:"charge_time_min"`
	StationPowerKW      float64 `json:"station_power_kw"`
}

// FailureReason classifies why a plan could not be completed.
type FailureReason string

const (
	FailureNone             FailureReason = ""
	FailureNoStationInRange FailureReason = "no_station_in_range"
	FailureBatteryDepleted  FailureReason = "battery_depleted"
)

// PlanResult is the outcome of one planning call. It is built incrementally
// by the planner and returned as an immutable value; infeasibility is data
// here, not an error.
type PlanResult struct {
	Stops               []ChargingStop `json:"stops"`
	FinalSOCPercent     float64        `json:"final_soc_percent"`
	CanReachDestination bool           `json:"can_reach_destination"`
	TotalChargeTimeMin  float64        `json:"total_charge_time_min"`
	TotalEnergyKWh      float64        `json:"total_energy_kwh"`
	Warnings            []string       `json:"warnings,omitempty"`
	FailureReason       FailureReason  `json:"failure_reason,omitempty"`
}

// TripConstraints carries the caller preferences the scorer evaluates a
// station against.
type TripConstraints struct {
	Connector         ConnectorType
	MaxPricePerKWh    float64 // 0 disables the price ceiling
	RequiredAmenities []string
}
