// Package scenarios runs YAML-defined trips against the real planner. Each
// .yaml file in this directory describes one vehicle, one route and the
// expected planning outcome.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/core/geo"
	"github.com/kilianp07/evroute/core/model"
)

type VehicleDef struct {
	Name                 string  `yaml:"name"`
	BatteryKWh           float64 `yaml:"battery_kwh"`
	ConsumptionKWhPer100 float64 `yaml:"consumption_kwh_per_100km"`
	Connector            string  `yaml:"connector,omitempty"`
	MaxChargeKW          float64 `yaml:"max_charge_kw,omitempty"`
	RegenEfficiency      float64 `yaml:"regen_efficiency,omitempty"`
}

func (v VehicleDef) ToModel() model.VehicleProfile {
	return model.VehicleProfile{
		Name:                 v.Name,
		BatteryCapacityKWh:   v.BatteryKWh,
		ConsumptionKWhPer100: v.ConsumptionKWhPer100,
		Connector:            parseConnector(v.Connector),
		MaxChargeKW:          v.MaxChargeKW,
		RegenEfficiency:      v.RegenEfficiency,
	}
}

type PointDef struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type StationDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Lat         float64  `yaml:"lat"`
	Lng         float64  `yaml:"lng"`
	PowerKW     float64  `yaml:"power_kw"`
	Connectors  []string `yaml:"connectors,omitempty"`
	PricePerKWh float64  `yaml:"price_per_kwh,omitempty"`
	Operational bool     `yaml:"operational"`
}

func (s StationDef) ToModel() model.Station {
	return model.Station{
		ID:          s.ID,
		Name:        s.Name,
		Coord:       model.Coordinate{Latitude: s.Lat, Longitude: s.Lng},
		PowerKW:     s.PowerKW,
		Connectors:  s.Connectors,
		PricePerKWh: s.PricePerKWh,
		Operational: s.Operational,
	}
}

type Expected struct {
	Feasible      bool    `yaml:"feasible"`
	Stops         int     `yaml:"stops"`
	MinFinalSOC   float64 `yaml:"min_final_soc,omitempty"`
	FailureReason string  `yaml:"failure_reason,omitempty"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Vehicle     VehicleDef   `yaml:"vehicle"`
	Points      []PointDef   `yaml:"points"`
	DistanceKm  float64      `yaml:"distance_km,omitempty"`
	StartSOC    float64      `yaml:"start_soc"`
	Stations    []StationDef `yaml:"stations,omitempty"`
	Expected    Expected     `yaml:"expected"`
}

// Route builds the route polyline. distance_km overrides the haversine total
// so scenarios can state round-number trip lengths.
func (sc *Scenario) Route() model.Route {
	points := make([]model.Coordinate, len(sc.Points))
	for i, p := range sc.Points {
		points[i] = model.Coordinate{Latitude: p.Lat, Longitude: p.Lng}
	}
	distanceKm := sc.DistanceKm
	if distanceKm <= 0 {
		distanceKm = geo.PolylineDistanceKm(points)
	}
	return model.Route{Points: points, TotalDistanceM: distanceKm * 1000}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parseConnector(s string) model.ConnectorType {
	c, err := model.ParseConnectorType(s)
	if err != nil {
		return model.ConnectorCCS
	}
	return c
}
