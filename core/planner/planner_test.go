package planner

import (
	"math"
	"reflect"
	"testing"

	"github.com/kilianp07/evroute/core/model"
)

func testVehicle() model.VehicleProfile {
	return model.VehicleProfile{
		Name:                 "test-ev",
		BatteryCapacityKWh:   60,
		ConsumptionKWhPer100: 17,
		Connector:            model.ConnectorCCS,
		MaxChargeKW:          100,
		RegenEfficiency:      0.6,
	}
}

func testRoute(distanceKm float64, points int) model.Route {
	if points < 2 {
		points = 2
	}
	route := model.Route{TotalDistanceM: distanceKm * 1000}
	for i := 0; i < points; i++ {
		route.Points = append(route.Points, model.Coordinate{
			Latitude:  48.0 - float64(i)*0.01,
			Longitude: 2.0 + float64(i)*0.01,
		})
	}
	return route
}

func flatSegments(distances ...float64) []model.RouteSegment {
	segs := make([]model.RouteSegment, len(distances))
	for i, d := range distances {
		segs[i] = model.RouteSegment{Index: i, DistanceKm: d}
	}
	return segs
}

func fastStation(id string) model.Station {
	return model.Station{
		ID:          id,
		Name:        "station " + id,
		Coord:       model.Coordinate{Latitude: 48.0, Longitude: 2.0},
		PowerKW:     150,
		Connectors:  []string{"CCS"},
		Rating:      4,
		Operational: true,
	}
}

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	p, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	return p
}

func TestPlan_ShortTripNeedsNoStop(t *testing.T) {
	// 100 km flat at 17.8 kWh/100km on a 50 kWh battery from 85%:
	// 17.8 kWh is 35.6 SOC points, leaving 49.4%.
	p := newTestPlanner(t)
	vehicle := testVehicle()
	vehicle.BatteryCapacityKWh = 50
	vehicle.ConsumptionKWhPer100 = 17.8

	res, err := p.PlanSegments(vehicle, testRoute(100, 3), nil, flatSegments(50, 50), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(res.Stops) != 0 {
		t.Fatalf("expected no stops, got %d", len(res.Stops))
	}
	if !res.CanReachDestination {
		t.Fatal("trip should be feasible")
	}
	if math.Abs(res.FinalSOCPercent-49.4) > 0.1 {
		t.Fatalf("expected final SOC 49.4%%, got %.2f%%", res.FinalSOCPercent)
	}
	if res.FailureReason != model.FailureNone {
		t.Fatalf("unexpected failure reason %q", res.FailureReason)
	}
}

func TestPlan_LongTripWithoutStationsFails(t *testing.T) {
	p := newTestPlanner(t)

	res, err := p.PlanSegments(testVehicle(), testRoute(600, 7), nil,
		flatSegments(100, 100, 100, 100, 100, 100), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.CanReachDestination {
		t.Fatal("600 km without stations must not be feasible")
	}
	if len(res.Stops) != 0 {
		t.Fatalf("expected no stops, got %d", len(res.Stops))
	}
	if res.FailureReason != model.FailureNoStationInRange && res.FailureReason != model.FailureBatteryDepleted {
		t.Fatalf("expected a no-station or depleted failure, got %q", res.FailureReason)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning describing the failure")
	}
}

func TestPlan_SingleStationForcesOneStop(t *testing.T) {
	p := newTestPlanner(t)
	stations := []model.Station{fastStation("mid")}

	res, err := p.PlanSegments(testVehicle(), testRoute(300, 7), stations,
		flatSegments(50, 50, 50, 50, 50, 50), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(res.Stops) != 1 {
		t.Fatalf("expected exactly one stop, got %d", len(res.Stops))
	}
	stop := res.Stops[0]
	if stop.SOCAfterPercent > 80 {
		t.Fatalf("charge ceiling exceeded: %.2f%%", stop.SOCAfterPercent)
	}
	if stop.SOCAfterPercent <= stop.SOCBeforePercent {
		t.Fatal("charging must raise the SOC")
	}
	if stop.ChargeTimeMin <= 0 || stop.EnergyAddedKWh <= 0 {
		t.Fatalf("stop should have positive charge time and energy: %+v", stop)
	}
	if !res.CanReachDestination {
		t.Fatalf("trip should be feasible after the stop: %+v", res)
	}
	// The stop fires before the floor would be crossed.
	if res.FinalSOCPercent < p.cfg.ArrivalFloorPercent {
		t.Fatalf("arrival SOC %.2f%% below floor", res.FinalSOCPercent)
	}
}

func TestPlan_Monotonicity(t *testing.T) {
	p := newTestPlanner(t)
	stations := []model.Station{fastStation("a"), fastStation("b"), fastStation("c")}

	res, err := p.PlanSegments(testVehicle(), testRoute(500, 11), stations,
		flatSegments(50, 50, 50, 50, 50, 50, 50, 50, 50, 50), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, stop := range res.Stops {
		if stop.SOCAfterPercent < stop.SOCBeforePercent {
			t.Fatalf("stop lowered SOC: %+v", stop)
		}
		if stop.SOCAfterPercent > p.cfg.MaxSOCPercent {
			t.Fatalf("stop exceeded ceiling: %+v", stop)
		}
	}
}

func TestPlan_NoStationReuse(t *testing.T) {
	p := newTestPlanner(t)
	stations := []model.Station{fastStation("a"), fastStation("b"), fastStation("c"), fastStation("d")}

	res, err := p.PlanSegments(testVehicle(), testRoute(700, 15), stations,
		flatSegments(50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	seen := map[string]bool{}
	for _, stop := range res.Stops {
		if seen[stop.StationID] {
			t.Fatalf("station %s used twice", stop.StationID)
		}
		seen[stop.StationID] = true
	}
	if len(res.Stops) < 2 {
		t.Fatalf("expected a multi-stop trip, got %d stops", len(res.Stops))
	}
}

func TestPlan_Deterministic(t *testing.T) {
	p := newTestPlanner(t)
	stations := []model.Station{fastStation("a"), fastStation("b")}
	segments := flatSegments(50, 50, 50, 50, 50, 50)
	route := testRoute(300, 7)

	first, err := p.PlanSegments(testVehicle(), route, stations, segments, 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	second, err := p.PlanSegments(testVehicle(), route, stations, segments, 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ:\n%+v\n%+v", first, second)
	}
}

func TestPlan_EnergyConservation(t *testing.T) {
	p := newTestPlanner(t)
	vehicle := testVehicle()
	stations := []model.Station{fastStation("a"), fastStation("b")}
	segments := flatSegments(50, 50, 50, 50, 50, 50)

	res, err := p.PlanSegments(vehicle, testRoute(300, 7), stations, segments, 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	charged := 0.0
	for _, stop := range res.Stops {
		charged += stop.EnergyAddedKWh
	}
	// consumed - charged must equal the net battery drain.
	drain := (85 - res.FinalSOCPercent) / 100 * vehicle.BatteryCapacityKWh
	if math.Abs((res.TotalEnergyKWh-charged)-drain) > 1e-6 {
		t.Fatalf("energy not conserved: consumed=%.4f charged=%.4f drain=%.4f",
			res.TotalEnergyKWh, charged, drain)
	}
}

func TestPlanSegments_RegenClampConservesEnergy(t *testing.T) {
	// A steep descent from a nearly full battery tops the SOC out at 100;
	// only the energy the battery can still absorb may count toward the
	// total, the rest of the regen credit is lost.
	p := newTestPlanner(t)
	vehicle := testVehicle()
	segments := []model.RouteSegment{
		{Index: 0, DistanceKm: 1, ElevationDeltaM: -2000},
		{Index: 1, DistanceKm: 50},
	}

	res, err := p.PlanSegments(vehicle, testRoute(51, 3), nil, segments, 95)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(res.Stops) != 0 {
		t.Fatalf("expected no stops, got %d", len(res.Stops))
	}
	// 50 km flat from a full battery: 8.5 kWh is 14.17 SOC points.
	if math.Abs(res.FinalSOCPercent-85.8333) > 0.01 {
		t.Fatalf("expected final SOC ~85.83, got %.4f", res.FinalSOCPercent)
	}
	drain := (95 - res.FinalSOCPercent) / 100 * vehicle.BatteryCapacityKWh
	if math.Abs(res.TotalEnergyKWh-drain) > 1e-6 {
		t.Fatalf("energy not conserved: consumed=%.4f drain=%.4f",
			res.TotalEnergyKWh, drain)
	}
}

func TestPlanSegments_OversizedSegmentDrivesOnBelowFloor(t *testing.T) {
	// One segment costs more SOC than a full charge window covers, so a stop
	// at the ceiling cannot help. The planner keeps driving with a warning
	// instead of reporting a missing station.
	p := newTestPlanner(t)
	vehicle := testVehicle()
	vehicle.BatteryCapacityKWh = 100
	vehicle.ConsumptionKWhPer100 = 20
	stations := []model.Station{fastStation("a")}
	segments := flatSegments(25, 340, 25)

	res, err := p.PlanSegments(vehicle, testRoute(390, 4), stations, segments, 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.FailureReason == model.FailureNoStationInRange {
		t.Fatal("stations were available, NoStationInRange is wrong")
	}
	if res.FailureReason != model.FailureNone {
		t.Fatalf("unexpected failure reason %q", res.FailureReason)
	}
	if len(res.Stops) != 0 {
		t.Fatalf("a charge at the ceiling cannot help, got %d stops", len(res.Stops))
	}
	if res.CanReachDestination {
		t.Fatal("arrival below the floor cannot be feasible")
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a below-floor warning")
	}
	if math.Abs(res.FinalSOCPercent-7) > 0.01 {
		t.Fatalf("expected final SOC ~7, got %.4f", res.FinalSOCPercent)
	}
}

func TestPlan_BatteryDepletedMidSegment(t *testing.T) {
	p := newTestPlanner(t)
	// A single 500 km segment cannot be survived even from the ceiling.
	res, err := p.PlanSegments(testVehicle(), testRoute(500, 2), []model.Station{fastStation("a")},
		flatSegments(500), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.FailureReason != model.FailureBatteryDepleted {
		t.Fatalf("expected battery depletion, got %q", res.FailureReason)
	}
	if res.FinalSOCPercent != 0 {
		t.Fatalf("expected SOC 0 at depletion, got %.2f", res.FinalSOCPercent)
	}
	if res.CanReachDestination {
		t.Fatal("depleted trip cannot be feasible")
	}
}

func TestPlan_TerminatesUnderInsertionBound(t *testing.T) {
	p := newTestPlanner(t)
	// Many stations and many draining segments: the per-segment insertion
	// bound keeps the walk finite whatever the selection does.
	stations := make([]model.Station, 0, 20)
	for i := 0; i < 20; i++ {
		stations = append(stations, fastStation(string(rune('a'+i))))
	}
	segs := make([]float64, 30)
	for i := range segs {
		segs[i] = 60
	}
	if _, err := p.PlanSegments(testVehicle(), testRoute(1800, 31), stations, flatSegments(segs...), 85); err != nil {
		t.Fatalf("plan: %v", err)
	}
}

func TestPlanFrom_StartSOCOverride(t *testing.T) {
	p := newTestPlanner(t)
	res, err := p.PlanFrom(testVehicle(), testRoute(10, 2), nil, 40)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.FinalSOCPercent >= 40 {
		t.Fatalf("driving should drain SOC below the 40%% start, got %.2f", res.FinalSOCPercent)
	}
}

func TestValidateInputs(t *testing.T) {
	route := testRoute(100, 2)
	cases := []struct {
		name    string
		mutate  func(*model.VehicleProfile, *model.Route, *float64)
		field   string
		wantErr bool
	}{
		{"valid", func(*model.VehicleProfile, *model.Route, *float64) {}, "", false},
		{"zero capacity", func(v *model.VehicleProfile, _ *model.Route, _ *float64) { v.BatteryCapacityKWh = 0 }, "vehicle.battery_capacity_kwh", true},
		{"negative consumption", func(v *model.VehicleProfile, _ *model.Route, _ *float64) { v.ConsumptionKWhPer100 = -1 }, "vehicle.consumption_kwh_per_100km", true},
		{"single point", func(_ *model.VehicleProfile, r *model.Route, _ *float64) { r.Points = r.Points[:1] }, "route.points", true},
		{"zero distance", func(_ *model.VehicleProfile, r *model.Route, _ *float64) { r.TotalDistanceM = 0 }, "route.total_distance_m", true},
		{"soc too high", func(_ *model.VehicleProfile, _ *model.Route, s *float64) { *s = 120 }, "start_soc", true},
		{"soc zero", func(_ *model.VehicleProfile, _ *model.Route, s *float64) { *s = 0 }, "start_soc", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vehicle := testVehicle()
			r := route
			r.Points = append([]model.Coordinate(nil), route.Points...)
			soc := 85.0
			tc.mutate(&vehicle, &r, &soc)

			err := ValidateInputs(vehicle, r, soc)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestPlan_SkipsDeadAndUsedStations(t *testing.T) {
	p := newTestPlanner(t)
	dead := fastStation("dead")
	dead.PowerKW = 0
	live := fastStation("live")

	res, err := p.PlanSegments(testVehicle(), testRoute(300, 7), []model.Station{dead, live},
		flatSegments(50, 50, 50, 50, 50, 50), 85)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, stop := range res.Stops {
		if stop.StationID == "dead" {
			t.Fatal("zero-power station must never be selected")
		}
	}
	if len(res.Stops) == 0 {
		t.Fatal("expected at least one stop")
	}
}
