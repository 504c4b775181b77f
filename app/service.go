// Package app wires the planner, discovery, providers and observability
// together and exposes the one-call trip planning entry point.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/discovery"
	"github.com/kilianp07/evroute/core/energy"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/elevation"
	"github.com/kilianp07/evroute/infra/logger"
	inframetrics "github.com/kilianp07/evroute/infra/metrics"
	inframonitoring "github.com/kilianp07/evroute/infra/monitoring"
	"github.com/kilianp07/evroute/infra/mqtt"
	"github.com/kilianp07/evroute/infra/registry"
	"github.com/kilianp07/evroute/infra/routing"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// TripRequest describes one trip to plan.
type TripRequest struct {
	Vehicle     model.VehicleProfile `json:"vehicle"`
	Origin      model.Coordinate     `json:"origin"`
	Destination model.Coordinate     `json:"destination"`
	// StartSOCPercent overrides the configured start SOC when positive.
	StartSOCPercent float64 `json:"start_soc_percent"`
	// SearchRadiusKm overrides the first discovery radius step when positive.
	SearchRadiusKm float64 `json:"search_radius_km"`
	// Alternatives requests one plan per optimization strategy.
	Alternatives bool `json:"alternatives"`
}

// RouteSummary is the route portion of a trip report.
type RouteSummary struct {
	DistanceKm      float64  `json:"distance_km"`
	DurationSeconds float64  `json:"duration_seconds"`
	Summary         string   `json:"summary,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// TripReport is the full answer to a TripRequest.
type TripReport struct {
	RequestID    string                   `json:"request_id"`
	Route        RouteSummary             `json:"route"`
	Plan         model.PlanResult         `json:"plan"`
	Alternatives []planner.StrategyResult `json:"alternatives,omitempty"`
	Stations     int                      `json:"stations"`
	Discovery    discovery.Stats          `json:"discovery"`
}

// Service owns the wired components for the lifetime of the process.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	planner   *planner.Planner
	discovery *discovery.Service
	routing   *routing.Client
	elevation *elevation.Client
	sink      coremetrics.MetricsSink
	bus       *eventbus.Bus[coremetrics.PlanEvent]
	publisher *mqtt.Publisher
}

// New builds a Service from configuration. Optional pieces (elevation, MQTT)
// stay nil when not configured.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	log := logger.New("app")

	monitor, err := inframonitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(monitor)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	reg, err := registry.New(cfg.Registry, logger.New("registry"))
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	disc, err := discovery.New(cfg.Discovery, reg, logger.New("discovery"))
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	plan, err := planner.New(cfg.Planner, logger.New("planner"))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	route, err := routing.New(cfg.Routing, logger.New("routing"))
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}

	var elev *elevation.Client
	if cfg.Elevation.BaseURL != "" {
		elev, err = elevation.New(cfg.Elevation, logger.New("elevation"))
		if err != nil {
			return nil, fmt.Errorf("elevation: %w", err)
		}
	}

	var pub *mqtt.Publisher
	if cfg.MQTT.Enabled {
		pub, err = mqtt.NewPublisher(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
	}

	return &Service{
		cfg:       cfg,
		log:       log,
		planner:   plan,
		discovery: disc,
		routing:   route,
		elevation: elev,
		sink:      sink,
		bus:       eventbus.New[coremetrics.PlanEvent](),
		publisher: pub,
	}, nil
}

// PlanTrip resolves the route, discovers stations along it and runs the
// planner. Elevation and route providers degrade gracefully; only planner
// input validation surfaces as an error.
func (s *Service) PlanTrip(ctx context.Context, req TripRequest) (*TripReport, error) {
	started := time.Now()

	route, err := s.routing.Route(ctx, req.Origin, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}

	startSOC := req.StartSOCPercent
	if startSOC <= 0 {
		startSOC = s.cfg.Planner.StartSOCPercent
	}
	if err := planner.ValidateInputs(req.Vehicle, route, startSOC); err != nil {
		return nil, err
	}

	stations, stats, err := s.discovery.Find(ctx, route, discovery.Options{
		SearchRadiusKm: req.SearchRadiusKm,
		BatteryRangeKm: batteryRangeKm(req.Vehicle),
	})
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	if recErr := s.sink.RecordDiscovery(coremetrics.DiscoveryEvent{
		Stats:    stats,
		Duration: time.Since(started),
		Time:     time.Now(),
	}); recErr != nil {
		s.log.Warnf("failed to record discovery event: %v", recErr)
	}

	segments := s.segmentsFor(ctx, route)
	plan, err := s.planner.PlanSegments(req.Vehicle, route, stations, segments, startSOC)
	if err != nil {
		return nil, err
	}

	report := &TripReport{
		RequestID: uuid.NewString(),
		Route: RouteSummary{
			DistanceKm:      route.TotalDistanceKm(),
			DurationSeconds: route.DurationSeconds,
			Summary:         route.Summary,
			Warnings:        route.Warnings,
		},
		Plan:      plan,
		Stations:  len(stations),
		Discovery: stats,
	}
	if req.Alternatives {
		alts, altErr := s.planner.Alternatives(req.Vehicle, route, stations, startSOC)
		if altErr != nil {
			return nil, altErr
		}
		report.Alternatives = alts
	}

	s.bus.Publish(coremetrics.PlanEvent{
		Vehicle:       req.Vehicle.Name,
		Strategy:      string(planner.StrategyBalanced),
		Stops:         len(plan.Stops),
		Feasible:      plan.CanReachDestination,
		FinalSOC:      plan.FinalSOCPercent,
		ChargeTimeMin: plan.TotalChargeTimeMin,
		EnergyKWh:     plan.TotalEnergyKWh,
		FailureReason: string(plan.FailureReason),
		Duration:      time.Since(started),
		Time:          time.Now(),
	})
	return report, nil
}

// DiscoverStations runs discovery alone between two points, used by the
// one-shot discover command.
func (s *Service) DiscoverStations(ctx context.Context, origin, destination model.Coordinate, radiusKm float64) ([]model.Station, discovery.Stats, error) {
	route, err := s.routing.Route(ctx, origin, destination)
	if err != nil {
		return nil, discovery.Stats{}, fmt.Errorf("routing: %w", err)
	}
	return s.discovery.Find(ctx, route, discovery.Options{SearchRadiusKm: radiusKm})
}

// segmentsFor builds route segments, enriched with elevation samples when the
// provider is configured and answers. An elevation failure degrades to flat
// segments with a warning.
func (s *Service) segmentsFor(ctx context.Context, route model.Route) []model.RouteSegment {
	var elevations []float64
	if s.elevation != nil {
		var err error
		elevations, err = s.elevation.Elevations(ctx, route.Points)
		if err != nil {
			s.log.Warnf("elevation provider failed, assuming flat terrain: %v", err)
			monitoring.CaptureException(err, map[string]string{"component": "elevation"})
			elevations = nil
		}
	}
	return energy.ScaleSegments(energy.BuildSegments(route.Points, elevations), route.TotalDistanceKm())
}

// Run consumes plan events until the context is canceled, forwarding them to
// the metrics sink and the MQTT publisher. It also serves the Prometheus
// endpoint when one is configured.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", s.cfg.Metrics.PrometheusPort)
			if err := inframetrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prometheus server: %v", err)
			}
		}()
	}

	events := s.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.sink.RecordPlan(ev); err != nil {
				s.log.Warnf("failed to record plan event: %v", err)
			}
			if s.publisher != nil {
				if err := s.publisher.PublishPlan(ev); err != nil {
					s.log.Warnf("failed to publish plan event: %v", err)
					monitoring.CaptureException(err, map[string]string{"component": "mqtt"})
				}
			}
		}
	}
}

// Close releases broker connections, the event bus and buffered monitor
// events.
func (s *Service) Close() {
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Close()
	}
	monitoring.Flush(2 * time.Second)
}

func batteryRangeKm(v model.VehicleProfile) float64 {
	if v.ConsumptionKWhPer100 <= 0 {
		return 0
	}
	return v.BatteryCapacityKWh / v.ConsumptionKWhPer100 * 100
}
