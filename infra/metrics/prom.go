package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// PromSink records planning and discovery events in Prometheus metrics.
type PromSink struct {
	plans      *prometheus.CounterVec
	stops      prometheus.Counter
	chargeTime prometheus.Histogram
	queries    prometheus.Counter
	cacheHits  prometheus.Counter
	cacheMiss  prometheus.Counter
	failures   prometheus.Counter
	returned   prometheus.Gauge
}

// NewPromSink registers the planner metrics on the default registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evroute_plans_total",
			Help: "Total number of charging plans computed",
		}, []string{"strategy", "feasible"}),
		stops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evroute_charging_stops_total",
			Help: "Total number of charging stops inserted into plans",
		}),
		chargeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evroute_plan_charge_time_minutes",
			Help:    "Total charge time per plan in minutes",
			Buckets: []float64{5, 15, 30, 60, 120, 240},
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evroute_discovery_queries_total",
			Help: "Registry queries issued by station discovery",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evroute_discovery_cache_hits_total",
			Help: "Discovery cache hits",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evroute_discovery_cache_misses_total",
			Help: "Discovery cache misses",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evroute_discovery_failed_points_total",
			Help: "Search points abandoned after retry exhaustion",
		}),
		returned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evroute_discovery_stations_returned",
			Help: "Stations returned by the last discovery call",
		}),
	}
	collectors := []prometheus.Collector{
		s.plans, s.stops, s.chargeTime, s.queries, s.cacheHits, s.cacheMiss, s.failures, s.returned,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.plans = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.stops = are.ExistingCollector.(prometheus.Counter)
			case 2:
				s.chargeTime = are.ExistingCollector.(prometheus.Histogram)
			case 3:
				s.queries = are.ExistingCollector.(prometheus.Counter)
			case 4:
				s.cacheHits = are.ExistingCollector.(prometheus.Counter)
			case 5:
				s.cacheMiss = are.ExistingCollector.(prometheus.Counter)
			case 6:
				s.failures = are.ExistingCollector.(prometheus.Counter)
			case 7:
				s.returned = are.ExistingCollector.(prometheus.Gauge)
			}
		}
	}
	return s, nil
}

// RecordPlan increments the plan counters.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.WithLabelValues(ev.Strategy, strconv.FormatBool(ev.Feasible)).Inc()
	s.stops.Add(float64(ev.Stops))
	s.chargeTime.Observe(ev.ChargeTimeMin)
	return nil
}

// RecordDiscovery updates the discovery counters from the call stats.
func (s *PromSink) RecordDiscovery(ev coremetrics.DiscoveryEvent) error {
	s.queries.Add(float64(ev.Stats.Queries))
	s.cacheHits.Add(float64(ev.Stats.CacheHits))
	s.cacheMiss.Add(float64(ev.Stats.CacheMisses))
	s.failures.Add(float64(ev.Stats.FailedPoints))
	s.returned.Set(float64(ev.Stats.Returned))
	return nil
}
