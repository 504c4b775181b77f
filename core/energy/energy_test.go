package energy

import (
	"math"
	"testing"

	"github.com/kilianp07/evroute/core/model"
)

func TestSegmentEnergy_Flat(t *testing.T) {
	m := NewModel()
	got := m.SegmentEnergy(100, 0, 17, 0.6)
	if math.Abs(got-17) > 1e-9 {
		t.Fatalf("expected 17 kWh over 100 km at 17 kWh/100km, got %f", got)
	}
}

func TestSegmentEnergy_ClimbSurcharge(t *testing.T) {
	m := NewModel()
	flat := m.SegmentEnergy(50, 0, 17, 0.6)
	climb := m.SegmentEnergy(50, 300, 17, 0.6)
	if math.Abs((climb-flat)-300.0/100*m.ClimbKWhPer100m) > 1e-9 {
		t.Fatalf("climb surcharge mismatch: flat=%f climb=%f", flat, climb)
	}
}

func TestSegmentEnergy_DescentCredit(t *testing.T) {
	m := NewModel()
	flat := m.SegmentEnergy(50, 0, 17, 0.6)
	descent := m.SegmentEnergy(50, -300, 17, 0.6)
	credit := 300.0 / 100 * m.DescentKWhPer100m * 0.6
	if math.Abs((flat-descent)-credit) > 1e-9 {
		t.Fatalf("descent credit mismatch: flat=%f descent=%f", flat, descent)
	}
	if descent >= flat {
		t.Fatal("descent must consume less than flat")
	}
}

func TestSegmentEnergy_SteepDescentCanYieldNetGain(t *testing.T) {
	m := NewModel()
	got := m.SegmentEnergy(1, -500, 17, 1.0)
	if got >= 0 {
		t.Fatalf("expected net energy gain, got %f", got)
	}
}

func TestSegmentEnergy_RegenClampedToFullRecovery(t *testing.T) {
	m := NewModel()
	over := m.SegmentEnergy(50, -300, 17, 1.5)
	full := m.SegmentEnergy(50, -300, 17, 1.0)
	if math.Abs(over-full) > 1e-9 {
		t.Fatalf("regen above 1 should clamp to 1: %f vs %f", over, full)
	}
}

func TestSegmentEnergy_ZeroDeltaNeverNegative(t *testing.T) {
	m := NewModel()
	if got := m.SegmentEnergy(10, 0, 17, 0.6); got < 0 {
		t.Fatalf("flat segment yielded negative energy: %f", got)
	}
}

func TestEnergyToSOC(t *testing.T) {
	if got := EnergyToSOC(30, 60); got != 50 {
		t.Fatalf("expected 50%%, got %f", got)
	}
	if got := EnergyToSOC(120, 60); got != 100 {
		t.Fatalf("expected clamp to 100%%, got %f", got)
	}
	if got := EnergyToSOC(10, 0); got != 0 {
		t.Fatalf("zero capacity should yield 0, got %f", got)
	}
}

func TestSOCToEnergy(t *testing.T) {
	if got := SOCToEnergy(50, 60); got != 30 {
		t.Fatalf("expected 30 kWh, got %f", got)
	}
	if got := SOCToEnergy(150, 60); got != 60 {
		t.Fatalf("expected clamp to capacity, got %f", got)
	}
}

func TestSOCDelta_Unclamped(t *testing.T) {
	if got := SOCDelta(90, 60); got != 150 {
		t.Fatalf("expected unclamped 150, got %f", got)
	}
}

func TestBuildSegments(t *testing.T) {
	points := []model.Coordinate{
		{Latitude: 48.8566, Longitude: 2.3522},
		{Latitude: 47.0, Longitude: 3.5},
		{Latitude: 45.7640, Longitude: 4.8357},
	}
	segs := BuildSegments(points, []float64{100, 400, 250})
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].ElevationDeltaM != 300 || segs[1].ElevationDeltaM != -150 {
		t.Fatalf("unexpected elevation deltas: %+v", segs)
	}
	if segs[0].DistanceKm <= 0 {
		t.Fatal("segment distance must be positive")
	}
}

func TestBuildSegments_FlatWithoutElevations(t *testing.T) {
	points := []model.Coordinate{
		{Latitude: 48.8566, Longitude: 2.3522},
		{Latitude: 45.7640, Longitude: 4.8357},
	}
	segs := BuildSegments(points, nil)
	if len(segs) != 1 || segs[0].ElevationDeltaM != 0 {
		t.Fatalf("expected one flat segment, got %+v", segs)
	}
}

func TestBuildSegments_TooFewPoints(t *testing.T) {
	if segs := BuildSegments([]model.Coordinate{{Latitude: 1, Longitude: 1}}, nil); segs != nil {
		t.Fatalf("expected nil, got %+v", segs)
	}
}

func TestScaleSegments(t *testing.T) {
	segs := []model.RouteSegment{
		{Index: 0, DistanceKm: 30},
		{Index: 1, DistanceKm: 70},
	}
	scaled := ScaleSegments(segs, 120)
	if math.Abs(scaled[0].DistanceKm-36) > 1e-9 || math.Abs(scaled[1].DistanceKm-84) > 1e-9 {
		t.Fatalf("expected proportional 36/84 split, got %+v", scaled)
	}
	sum := scaled[0].DistanceKm + scaled[1].DistanceKm
	if math.Abs(sum-120) > 1e-9 {
		t.Fatalf("expected sum 120, got %f", sum)
	}
}

func TestScaleSegments_NonPositiveTotalUnchanged(t *testing.T) {
	segs := []model.RouteSegment{{Index: 0, DistanceKm: 30}}
	if scaled := ScaleSegments(segs, 0); scaled[0].DistanceKm != 30 {
		t.Fatalf("expected untouched segments, got %+v", scaled)
	}
}
