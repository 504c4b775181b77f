package scenarios

import (
	"testing"

	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/logger"
)

// RunScenario plans the scenario's trip with default planner settings and
// checks the outcome against the expectations in the file.
func RunScenario(t *testing.T, sc *Scenario) {
	p, err := planner.New(planner.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("planner: %v", err)
	}

	stations := make([]model.Station, len(sc.Stations))
	for i, s := range sc.Stations {
		stations[i] = s.ToModel()
	}

	res, err := p.PlanFrom(sc.Vehicle.ToModel(), sc.Route(), stations, sc.StartSOC)
	if err != nil {
		t.Fatalf("scenario %s: plan: %v", sc.Name, err)
	}

	if res.CanReachDestination != sc.Expected.Feasible {
		t.Errorf("scenario %s: feasible = %v, want %v (warnings: %v)",
			sc.Name, res.CanReachDestination, sc.Expected.Feasible, res.Warnings)
	}
	if len(res.Stops) != sc.Expected.Stops {
		t.Errorf("scenario %s: %d stops, want %d", sc.Name, len(res.Stops), sc.Expected.Stops)
	}
	if sc.Expected.MinFinalSOC > 0 && res.FinalSOCPercent < sc.Expected.MinFinalSOC {
		t.Errorf("scenario %s: final SOC %.1f below %.1f",
			sc.Name, res.FinalSOCPercent, sc.Expected.MinFinalSOC)
	}
	if string(res.FailureReason) != sc.Expected.FailureReason {
		t.Errorf("scenario %s: failure reason %q, want %q",
			sc.Name, res.FailureReason, sc.Expected.FailureReason)
	}
}
