package metrics

import (
	"time"

	"github.com/kilianp07/evroute/core/discovery"
)

// PlanEvent records the outcome of one planning call.
type PlanEvent struct {
	Vehicle       string        `json:"vehicle"`
	Strategy      string        `json:"strategy"`
	Stops         int           `json:"stops"`
	Feasible      bool          `json:"feasible"`
	FinalSOC      float64       `json:"final_soc"`
	ChargeTimeMin float64       `json:"charge_time_min"`
	EnergyKWh     float64       `json:"energy_kwh"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
	Time          time.Time     `json:"time"`
}

// DiscoveryEvent records one discovery call, counters included.
type DiscoveryEvent struct {
	Stats    discovery.Stats `json:"stats"`
	Duration time.Duration   `json:"duration_ns"`
	Time     time.Time       `json:"time"`
}

// PlanRecorder records plan outcomes for observability purposes.
type PlanRecorder interface {
	RecordPlan(ev PlanEvent) error
}

// DiscoveryRecorder records discovery cycles, including cache hit/miss
// counters.
type DiscoveryRecorder interface {
	RecordDiscovery(ev DiscoveryEvent) error
}

// MetricsSink is the full recording surface a sink can implement.
type MetricsSink interface {
	PlanRecorder
	DiscoveryRecorder
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error           { return nil }
func (NopSink) RecordDiscovery(DiscoveryEvent) error { return nil }
