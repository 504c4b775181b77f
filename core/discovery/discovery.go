// Package discovery finds charging stations along a route. It reduces the
// polyline to a handful of clustered search points, queries the external
// registry per point behind one process-wide rate gate, retries rate-limited
// calls with exponential backoff, caches responses, de-duplicates the merged
// result and filters it to a corridor around the route. Failures stay local
// to a search point: discovery degrades to fewer results, never to an error
// for the whole plan.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kilianp07/evroute/core/geo"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
)

// Query is one registry request.
type Query struct {
	Latitude        float64
	Longitude       float64
	RadiusKm        float64
	MaxResults      int
	OperationalOnly bool
}

// Registry is the external station source. Implementations return
// ErrRateLimited on a too-many-requests response.
type Registry interface {
	Search(ctx context.Context, q Query) ([]model.Station, error)
}

// Options tunes a single Find call.
type Options struct {
	// SearchRadiusKm overrides the first adaptive radius step when positive.
	SearchRadiusKm float64
	// BatteryRangeKm hints how far the vehicle travels between charges;
	// short trips relative to it skip mid-route search points.
	BatteryRangeKm float64
}

// Stats reports what one Find call did. Counters replace event-emitter style
// cache notifications so tests and metrics read them directly.
type Stats struct {
	SearchPoints int `json:"search_points"`
	Queries      int `json:"queries"`
	CacheHits    int `json:"cache_hits"`
	CacheMisses  int `json:"cache_misses"`
	Retries      int `json:"retries"`
	FailedPoints int `json:"failed_points"`
	Merged       int `json:"merged"`
	Returned     int `json:"returned"`
}

// Service performs station discovery. Construct one per process and inject
// it; it owns the only shared mutable state in the system (cache and gate).
type Service struct {
	cfg   Config
	reg   Registry
	cache *responseCache
	gate  *rate.Limiter
	clock Clock
	log   logger.Logger
}

// New creates a discovery service with defaults applied.
func New(cfg Config, reg Registry, log logger.Logger) (*Service, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.MinRequestIntervalSeconds > 0 {
		limit = rate.Limit(1 / cfg.MinRequestIntervalSeconds)
	}
	return &Service{
		cfg:   cfg,
		reg:   reg,
		cache: newResponseCache(),
		gate:  rate.NewLimiter(limit, 1),
		clock: realClock{},
		log:   log,
	}, nil
}

// WithClock replaces the clock, used by tests to run the backoff schedule
// without sleeping.
func (s *Service) WithClock(c Clock) *Service {
	s.clock = c
	return s
}

// Find returns the de-duplicated stations within the corridor of the route,
// ordered by power (descending) then ID. The error is non-nil only for a
// route without points; registry failures degrade to partial results.
func (s *Service) Find(ctx context.Context, route model.Route, opts Options) ([]model.Station, Stats, error) {
	var stats Stats
	if len(route.Points) == 0 {
		return nil, stats, errors.New("route has no points")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.findTimeout())
	defer cancel()

	points := s.searchPoints(route, opts.BatteryRangeKm)
	stats.SearchPoints = len(points)
	radii := s.radii(opts.SearchRadiusKm)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		merged []model.Station
	)
	for _, pt := range points {
		wg.Add(1)
		go func(pt model.Coordinate) {
			defer wg.Done()
			found, ps := s.queryPoint(ctx, pt, radii)
			mu.Lock()
			merged = append(merged, found...)
			stats.Queries += ps.Queries
			stats.CacheHits += ps.CacheHits
			stats.CacheMisses += ps.CacheMisses
			stats.Retries += ps.Retries
			stats.FailedPoints += ps.FailedPoints
			mu.Unlock()
		}(pt)
	}
	wg.Wait()

	stats.Merged = len(merged)
	result := dedupe(merged)
	result = s.corridorFilter(result, route)
	result = preferFastTiers(result, s.cfg.MaxStations)
	sort.Slice(result, func(i, j int) bool {
		if result[i].PowerKW != result[j].PowerKW {
			return result[i].PowerKW > result[j].PowerKW
		}
		return result[i].ID < result[j].ID
	})
	stats.Returned = len(result)

	if s.log != nil {
		s.log.Debugw("discovery finished", map[string]any{
			"search_points": stats.SearchPoints,
			"queries":       stats.Queries,
			"cache_hits":    stats.CacheHits,
			"failed_points": stats.FailedPoints,
			"returned":      stats.Returned,
		})
	}
	return result, stats, nil
}

// searchPoints clusters the polyline; oversized clusters collapse to the
// emergency three-point simplification. Trips well inside the battery range
// only need the endpoints.
func (s *Service) searchPoints(route model.Route, batteryRangeKm float64) []model.Coordinate {
	if batteryRangeKm > 0 && route.TotalDistanceKm() > 0 && route.TotalDistanceKm() < batteryRangeKm/2 {
		return []model.Coordinate{route.Points[0], route.Points[len(route.Points)-1]}
	}
	points := geo.ClusterPoints(route.Points, s.cfg.GridPrecision, s.cfg.MaxSearchPoints)
	if len(points) > s.cfg.FallbackThreshold {
		points = geo.FallbackPoints(route.Points)
	}
	return points
}

func (s *Service) radii(firstKm float64) []float64 {
	if firstKm <= 0 {
		return s.cfg.RadiusStepsKm
	}
	out := make([]float64, len(s.cfg.RadiusStepsKm))
	delta := firstKm - s.cfg.RadiusStepsKm[0]
	for i, r := range s.cfg.RadiusStepsKm {
		out[i] = r + delta
	}
	return out
}

// queryPoint widens the radius until a query returns stations. A failed
// fetch (retry budget exhausted) skips the point entirely; failures never
// propagate past here.
func (s *Service) queryPoint(ctx context.Context, pt model.Coordinate, radii []float64) ([]model.Station, Stats) {
	var stats Stats
	for _, radius := range radii {
		stations, hit, retries, err := s.fetch(ctx, pt, radius)
		stats.Queries++
		stats.Retries += retries
		if err != nil {
			stats.FailedPoints++
			if s.log != nil {
				s.log.Warnf("search point (%.3f,%.3f) r=%.0fkm skipped: %v", pt.Latitude, pt.Longitude, radius, err)
			}
			return nil, stats
		}
		if hit {
			stats.CacheHits++
		} else {
			stats.CacheMisses++
		}
		if len(stations) > 0 {
			return stations, stats
		}
	}
	return nil, stats
}

// fetch serves one (point, radius) query through the cache, the global rate
// gate and the backoff schedule.
func (s *Service) fetch(ctx context.Context, pt model.Coordinate, radiusKm float64) ([]model.Station, bool, int, error) {
	key := cacheKey(pt, radiusKm, s.cfg.CacheKeyPrecision)
	retries := 0
	stations, hit, err := s.cache.getOrFetch(key, s.clock.Now(), s.cfg.cacheTTL(), func() ([]model.Station, error) {
		q := Query{
			Latitude:        pt.Latitude,
			Longitude:       pt.Longitude,
			RadiusKm:        radiusKm,
			MaxResults:      s.cfg.MaxResultsPerQuery,
			OperationalOnly: true,
		}
		delay := s.cfg.retryBase()
		for attempt := 1; ; attempt++ {
			if err := s.gate.Wait(ctx); err != nil {
				return nil, err
			}
			stations, err := s.reg.Search(ctx, q)
			if err == nil {
				return stations, nil
			}
			if !errors.Is(err, ErrRateLimited) || attempt >= s.cfg.RetryMaxAttempts {
				return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
			}
			retries++
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-s.clock.After(delay):
			}
			delay *= 2
			if delay > s.cfg.retryMax() {
				delay = s.cfg.retryMax()
			}
		}
	})
	return stations, hit, retries, err
}

func (s *Service) corridorFilter(stations []model.Station, route model.Route) []model.Station {
	out := stations[:0]
	for _, st := range stations {
		if geo.MinDistanceToPolylineKm(st.Coord, route.Points) <= s.cfg.CorridorKm {
			out = append(out, st)
		}
	}
	return out
}
