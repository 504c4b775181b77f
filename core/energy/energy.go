// Package energy converts route geometry into battery energy. The model is a
// consumption-rate simulation: flat-road energy from the vehicle's rated
// consumption, a fixed surcharge per meter climbed and a regen-scaled credit
// per meter descended.
package energy

import (
	"github.com/kilianp07/evroute/core/geo"
	"github.com/kilianp07/evroute/core/model"
)

// Model holds the tunable coefficients of the energy simulation.
type Model struct {
	// ClimbKWhPer100m is the extra energy consumed per 100 m of ascent.
	ClimbKWhPer100m float64
	// DescentKWhPer100m is the potential-energy proxy recoverable per 100 m
	// of descent before regen losses are applied.
	DescentKWhPer100m float64
}

// NewModel returns a model with the default empirical coefficients.
func NewModel() Model {
	return Model{
		ClimbKWhPer100m:   0.5,
		DescentKWhPer100m: 0.5,
	}
}

// SegmentEnergy returns the energy in kWh consumed over a segment. Descents
// may yield a negative total (net gain); a segment with zero elevation delta
// never does. regenEff is clamped to (0,1] so recovered energy always stays
// below the pure potential-energy value.
func (m Model) SegmentEnergy(distanceKm, elevationDeltaM, consumptionKWhPer100 float64, regenEff float64) float64 {
	if distanceKm < 0 {
		distanceKm = 0
	}
	e := consumptionKWhPer100 / 100 * distanceKm
	switch {
	case elevationDeltaM > 0:
		e += elevationDeltaM / 100 * m.ClimbKWhPer100m
	case elevationDeltaM < 0:
		if regenEff <= 0 || regenEff > 1 {
			regenEff = 1
		}
		e -= -elevationDeltaM / 100 * m.DescentKWhPer100m * regenEff
	}
	return e
}

// EnergyToSOC converts an amount of energy into SOC percent for the given
// battery capacity, clamped to [0,100].
func EnergyToSOC(energyKWh, capacityKWh float64) float64 {
	if capacityKWh <= 0 {
		return 0
	}
	return clamp(energyKWh/capacityKWh*100, 0, 100)
}

// SOCToEnergy converts SOC percent into energy for the given battery
// capacity, clamped to [0, capacity].
func SOCToEnergy(percent, capacityKWh float64) float64 {
	if capacityKWh <= 0 {
		return 0
	}
	return clamp(percent/100*capacityKWh, 0, capacityKWh)
}

// SOCDelta returns the signed SOC change caused by consuming energyKWh. It is
// deliberately unclamped: callers track crossing the floor themselves.
func SOCDelta(energyKWh, capacityKWh float64) float64 {
	if capacityKWh <= 0 {
		return 0
	}
	return energyKWh / capacityKWh * 100
}

// BuildSegments derives per-segment distance and elevation deltas from a
// polyline and optional per-point elevation samples. A nil or short elevation
// slice falls back to flat terrain for the missing points.
func BuildSegments(points []model.Coordinate, elevations []float64) []model.RouteSegment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]model.RouteSegment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		delta := 0.0
		if i+1 < len(elevations) {
			delta = elevations[i+1] - elevations[i]
		}
		segs = append(segs, model.RouteSegment{
			Index:           i,
			DistanceKm:      geo.DistanceKm(points[i], points[i+1]),
			ElevationDeltaM: delta,
		})
	}
	return segs
}

// ScaleSegments rescales segment distances in place so their sum matches the
// provider-reported driving distance, reconciling polyline geometry with the
// actual road length. A non-positive total leaves the segments untouched.
func ScaleSegments(segments []model.RouteSegment, totalKm float64) []model.RouteSegment {
	sum := 0.0
	for _, s := range segments {
		sum += s.DistanceKm
	}
	if sum <= 0 || totalKm <= 0 {
		return segments
	}
	scale := totalKm / sum
	for i := range segments {
		segments[i].DistanceKm *= scale
	}
	return segments
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
