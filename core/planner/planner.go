// Package planner walks a route segment by segment, tracks the battery state
// of charge and inserts charging stops before the SOC floor would be crossed.
// The walk is an explicit state machine: driving, inserting_stop, reached,
// failed. Inserting a stop returns to driving on the same segment index, and
// a per-segment insertion bound guarantees termination.
package planner

import (
	"context"
	"fmt"
	"math"

	"github.com/looplab/fsm"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/evroute/core/energy"
	"github.com/kilianp07/evroute/core/geo"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/scoring"
)

const (
	stateDriving       = "driving"
	stateInsertingStop = "inserting_stop"
	stateReached       = "reached"
	stateFailed        = "failed"

	eventTriggerStop  = "trigger_stop"
	eventStopInserted = "stop_inserted"
	eventStopSkipped  = "stop_skipped"
	eventArrive       = "arrive"
	eventFail         = "fail"
)

// stopStatus reports why selectStop did or did not produce a stop.
type stopStatus int

const (
	stopSelected stopStatus = iota
	// stopNoCandidates means no unused working station remains.
	stopNoCandidates
	// stopNotUseful means stations remain but a charge here cannot raise
	// the SOC above its current level.
	stopNotUseful
)

// Planner simulates a trip and produces a PlanResult. It is pure and
// synchronous: no I/O, no wall clock, no randomness.
type Planner struct {
	cfg    Config
	model  energy.Model
	scorer scoring.Scorer
	log    logger.Logger
}

// New returns a planner with defaults applied to the given configuration.
func New(cfg Config, log logger.Logger) (*Planner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Planner{cfg: cfg, model: energy.NewModel(), scorer: scoring.NewScorer(), log: log}, nil
}

// WithScorer returns a copy of the planner using the given scoring weights.
// Used by the alternative planner to run the same simulation under different
// optimization strategies.
func (p *Planner) WithScorer(s scoring.Scorer) *Planner {
	cp := *p
	cp.scorer = s
	return &cp
}

// Plan runs the simulation from the configured start SOC.
func (p *Planner) Plan(vehicle model.VehicleProfile, route model.Route, stations []model.Station) (model.PlanResult, error) {
	return p.PlanFrom(vehicle, route, stations, p.cfg.StartSOCPercent)
}

// PlanFrom runs the simulation from an explicit start SOC. Segments are
// derived from the polyline assuming flat terrain; use PlanSegments when
// elevation samples are available.
func (p *Planner) PlanFrom(vehicle model.VehicleProfile, route model.Route, stations []model.Station, startSOC float64) (model.PlanResult, error) {
	if err := ValidateInputs(vehicle, route, startSOC); err != nil {
		return model.PlanResult{}, err
	}
	return p.PlanSegments(vehicle, route, stations, p.buildSegments(route), startSOC)
}

// PlanSegments runs the simulation over caller-supplied segments, typically
// built with elevation data. Inputs are validated before anything runs.
func (p *Planner) PlanSegments(vehicle model.VehicleProfile, route model.Route, stations []model.Station, segments []model.RouteSegment, startSOC float64) (model.PlanResult, error) {
	if err := ValidateInputs(vehicle, route, startSOC); err != nil {
		return model.PlanResult{}, err
	}

	machine := newPlanFSM()
	ctx := context.Background()

	res := model.PlanResult{CanReachDestination: false}
	soc := startSOC
	travelledKm := 0.0
	used := make(map[string]bool)
	constraints := model.TripConstraints{Connector: vehicle.Connector}

	segEnergies := make([]float64, len(segments))
	for i, seg := range segments {
		segEnergies[i] = p.model.SegmentEnergy(seg.DistanceKm, seg.ElevationDeltaM, vehicle.ConsumptionKWhPer100, vehicle.RegenEfficiency)
	}

	i := 0
	insertions := 0
	var applied []float64

	for machine.Current() == stateDriving {
		if i >= len(segments) {
			_ = machine.Event(ctx, eventArrive)
			break
		}
		seg := segments[i]
		drop := energy.SOCDelta(segEnergies[i], vehicle.BatteryCapacityKWh)
		next := clampSOC(soc - drop)
		remainingAfterKm := remainingDistanceKm(segments, i+1)

		if soc-drop < p.cfg.MinSOCPercent && remainingAfterKm > 0 && insertions < p.cfg.MaxStopsPerSegment {
			// Do not apply the segment yet: charge first, then re-evaluate
			// the same index.
			_ = machine.Event(ctx, eventTriggerStop)
			stop, status := p.selectStop(vehicle, route, stations, segments, i, soc, travelledKm, used, constraints)
			if status == stopNoCandidates {
				res.FailureReason = model.FailureNoStationInRange
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"no reachable station at %.1f km with SOC %.1f%%", travelledKm, soc))
				_ = machine.Event(ctx, eventFail)
				break
			}
			if status == stopSelected {
				res.Stops = append(res.Stops, stop)
				used[stop.StationID] = true
				soc = stop.SOCAfterPercent
				insertions++
				_ = machine.Event(ctx, eventStopInserted)
				continue
			}
			// Charging cannot raise the SOC any further here; drive the
			// segment below the floor instead of failing while candidate
			// stations remain.
			_ = machine.Event(ctx, eventStopSkipped)
		}

		if soc-drop <= 0 {
			res.FailureReason = model.FailureBatteryDepleted
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"battery depleted on segment %d after %.1f km", seg.Index, travelledKm))
			// Only the energy actually drawn counts toward the total.
			applied = append(applied, energy.SOCToEnergy(soc, vehicle.BatteryCapacityKWh))
			soc = 0
			_ = machine.Event(ctx, eventFail)
			break
		}

		if next < p.cfg.MinSOCPercent && remainingAfterKm > 0 {
			// No useful charge is possible or the insertion bound ran out:
			// drive on below the floor rather than loop forever, but say so.
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"SOC %.1f%% below floor %.1f%% on segment %d", next, p.cfg.MinSOCPercent, seg.Index))
		}

		if soc-drop > 100 {
			// A descent tops the battery out: only the energy it can still
			// absorb counts toward the total.
			applied = append(applied, -energy.SOCToEnergy(100-soc, vehicle.BatteryCapacityKWh))
		} else {
			applied = append(applied, segEnergies[i])
		}
		soc = next
		travelledKm += seg.DistanceKm
		i++
		insertions = 0
	}

	res.FinalSOCPercent = soc
	res.TotalEnergyKWh = floats.Sum(applied)
	for _, s := range res.Stops {
		res.TotalChargeTimeMin += s.ChargeTimeMin
	}

	if machine.Current() == stateReached {
		if soc >= p.cfg.ArrivalFloorPercent {
			res.CanReachDestination = true
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"arrival SOC %.1f%% below floor %.1f%%", soc, p.cfg.ArrivalFloorPercent))
		}
	}

	if p.log != nil {
		p.log.Debugw("plan computed", map[string]any{
			"stops":     len(res.Stops),
			"final_soc": res.FinalSOCPercent,
			"feasible":  res.CanReachDestination,
			"failure":   string(res.FailureReason),
		})
	}
	return res, nil
}

// selectStop ranks the unused stations from the current position and builds
// the charging stop at the best one.
func (p *Planner) selectStop(vehicle model.VehicleProfile, route model.Route, stations []model.Station, segments []model.RouteSegment, i int, soc, travelledKm float64, used map[string]bool, constraints model.TripConstraints) (model.ChargingStop, stopStatus) {
	var candidates []model.Station
	for _, st := range stations {
		if used[st.ID] || st.PowerKW <= 0 {
			continue
		}
		candidates = append(candidates, st)
	}
	if len(candidates) == 0 {
		return model.ChargingStop{}, stopNoCandidates
	}

	pos := positionAt(route, i)
	ranked := p.scorer.Rank(candidates, constraints, pos, geo.DistanceKm)
	best := ranked[0].Station

	target := p.chargeTarget(vehicle, segments, i, soc)
	if target <= soc {
		return model.ChargingStop{}, stopNotUseful
	}

	added := energy.SOCToEnergy(target-soc, vehicle.BatteryCapacityKWh)
	stop := model.ChargingStop{
		StationID:           best.ID,
		StationName:         best.Name,
		DistanceFromStartKm: travelledKm,
		SOCBeforePercent:    soc,
		SOCAfterPercent:     target,
		EnergyAddedKWh:      added,
		ChargeTimeMin:       p.chargeTimeMinutes(soc, target, vehicle, best),
		StationPowerKW:      best.PowerKW,
	}
	if p.log != nil {
		p.log.Debugw("stop inserted", map[string]any{
			"station":  best.ID,
			"score":    ranked[0].Value,
			"soc_from": stop.SOCBeforePercent,
			"soc_to":   stop.SOCAfterPercent,
		})
	}
	return stop, stopSelected
}

// chargeTarget returns the SOC to charge to: enough for the remaining route
// plus the arrival floor and safety buffer, capped at the ceiling.
func (p *Planner) chargeTarget(vehicle model.VehicleProfile, segments []model.RouteSegment, i int, soc float64) float64 {
	required := 0.0
	for _, seg := range segments[i:] {
		required += p.model.SegmentEnergy(seg.DistanceKm, seg.ElevationDeltaM, vehicle.ConsumptionKWhPer100, vehicle.RegenEfficiency)
	}
	if required < 0 {
		required = 0
	}
	target := energy.SOCDelta(required, vehicle.BatteryCapacityKWh) + p.cfg.ArrivalFloorPercent + p.cfg.SafetyBufferPercent
	if target > p.cfg.MaxSOCPercent {
		target = p.cfg.MaxSOCPercent
	}
	if target <= soc {
		// The remainder fits but this segment still triggered: top up to the
		// ceiling so the re-evaluation can make progress.
		target = p.cfg.MaxSOCPercent
	}
	return target
}

// chargeTimeMinutes integrates the SOC-tiered power derating model: full
// station power below 50%, 75% of it between 50 and 80, half above 80. The
// effective power is bounded by the vehicle's own charging limit and the
// configured conversion efficiency.
func (p *Planner) chargeTimeMinutes(fromSOC, toSOC float64, vehicle model.VehicleProfile, st model.Station) float64 {
	power := st.PowerKW
	if vehicle.MaxChargeKW > 0 && vehicle.MaxChargeKW < power {
		power = vehicle.MaxChargeKW
	}
	power *= p.cfg.ChargeEfficiency
	if power <= 0 {
		return 0
	}
	tiers := []struct {
		upTo   float64
		derate float64
	}{
		{50, 1.0},
		{80, 0.75},
		{100, 0.5},
	}
	minutes := 0.0
	soc := fromSOC
	for _, tier := range tiers {
		if soc >= toSOC {
			break
		}
		upper := math.Min(tier.upTo, toSOC)
		if soc >= upper {
			continue
		}
		kwh := energy.SOCToEnergy(upper-soc, vehicle.BatteryCapacityKWh)
		minutes += kwh / (power * tier.derate) * 60
		soc = upper
	}
	return minutes
}

// buildSegments derives flat segments from the polyline, scaled so their sum
// matches the provider-reported total distance.
func (p *Planner) buildSegments(route model.Route) []model.RouteSegment {
	return energy.ScaleSegments(energy.BuildSegments(route.Points, nil), route.TotalDistanceKm())
}

// ValidateInputs rejects malformed planner input before simulation starts.
func ValidateInputs(vehicle model.VehicleProfile, route model.Route, startSOC float64) error {
	if vehicle.BatteryCapacityKWh <= 0 {
		return &ValidationError{Field: "vehicle.battery_capacity_kwh", Reason: "must be positive"}
	}
	if vehicle.ConsumptionKWhPer100 <= 0 {
		return &ValidationError{Field: "vehicle.consumption_kwh_per_100km", Reason: "must be positive"}
	}
	if len(route.Points) < 2 {
		return &ValidationError{Field: "route.points", Reason: "needs at least two points"}
	}
	if route.TotalDistanceM <= 0 {
		return &ValidationError{Field: "route.total_distance_m", Reason: "must be positive"}
	}
	if startSOC <= 0 || startSOC > 100 {
		return &ValidationError{Field: "start_soc", Reason: "must be in (0,100]"}
	}
	return nil
}

func newPlanFSM() *fsm.FSM {
	return fsm.NewFSM(
		stateDriving,
		fsm.Events{
			{Name: eventTriggerStop, Src: []string{stateDriving}, Dst: stateInsertingStop},
			{Name: eventStopInserted, Src: []string{stateInsertingStop}, Dst: stateDriving},
			{Name: eventStopSkipped, Src: []string{stateInsertingStop}, Dst: stateDriving},
			{Name: eventArrive, Src: []string{stateDriving}, Dst: stateReached},
			{Name: eventFail, Src: []string{stateDriving, stateInsertingStop}, Dst: stateFailed},
		},
		fsm.Callbacks{},
	)
}

func positionAt(route model.Route, i int) model.Coordinate {
	// Segment index lines up with the polyline when segments were derived
	// from it; otherwise fall back proportionally.
	if i < len(route.Points) {
		return route.Points[i]
	}
	return route.Points[len(route.Points)-1]
}

func remainingDistanceKm(segments []model.RouteSegment, from int) float64 {
	total := 0.0
	for _, s := range segments[from:] {
		total += s.DistanceKm
	}
	return total
}

func clampSOC(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
