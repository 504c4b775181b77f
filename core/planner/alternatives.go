package planner

import (
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/scoring"
)

// Strategy selects the scoring profile used for an alternative plan.
type Strategy string

const (
	StrategyFewestStops Strategy = "fewest_stops"
	StrategyLeastTime   Strategy = "least_time"
	StrategyBalanced    Strategy = "balanced"
)

// Strategies lists the profiles in the order alternatives are produced.
var Strategies = []Strategy{StrategyFewestStops, StrategyLeastTime, StrategyBalanced}

// StrategyResult wraps one alternative plan. Failures are carried as data so
// callers always receive exactly one entry per strategy.
type StrategyResult struct {
	Strategy Strategy            `json:"strategy"`
	Success  bool                `json:"success"`
	Reason   model.FailureReason `json:"reason,omitempty"`
	Plan     model.PlanResult    `json:"plan"`
}

func scorerFor(s Strategy) scoring.Scorer {
	switch s {
	case StrategyFewestStops:
		return scoring.FewestStopsScorer()
	case StrategyLeastTime:
		return scoring.LeastTimeScorer()
	default:
		return scoring.NewScorer()
	}
}

// Alternatives runs the planner once per strategy over the same route,
// vehicle and station set. Input validation failures surface as an error
// because no strategy could produce a meaningful plan from bad input.
func (p *Planner) Alternatives(vehicle model.VehicleProfile, route model.Route, stations []model.Station, startSOC float64) ([]StrategyResult, error) {
	if err := ValidateInputs(vehicle, route, startSOC); err != nil {
		return nil, err
	}
	results := make([]StrategyResult, 0, len(Strategies))
	for _, strat := range Strategies {
		plan, err := p.WithScorer(scorerFor(strat)).PlanFrom(vehicle, route, stations, startSOC)
		if err != nil {
			results = append(results, StrategyResult{Strategy: strat, Success: false})
			continue
		}
		results = append(results, StrategyResult{
			Strategy: strat,
			Success:  plan.FailureReason == model.FailureNone && plan.CanReachDestination,
			Reason:   plan.FailureReason,
			Plan:     plan,
		})
	}
	return results, nil
}
