// Package geo provides the great-circle math and polyline reduction used by
// the discovery and planning layers. All distances are computed with the
// haversine formula on WGS-84 coordinates.
package geo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/evroute/core/model"
)

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers.
func DistanceKm(a, b model.Coordinate) float64 {
	dLat := degToRad(b.Latitude - a.Latitude)
	dLon := degToRad(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Latitude))*math.Cos(degToRad(b.Latitude))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// PolylineDistanceKm returns the summed segment length of an ordered polyline.
func PolylineDistanceKm(points []model.Coordinate) float64 {
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += DistanceKm(points[i], points[i+1])
	}
	return total
}

// MinDistanceToPolylineKm returns the distance from p to the nearest point of
// the polyline. Route point counts are bounded after upstream simplification,
// so a linear scan is acceptable.
func MinDistanceToPolylineKm(p model.Coordinate, points []model.Coordinate) float64 {
	min := math.MaxFloat64
	for _, rp := range points {
		if d := DistanceKm(p, rp); d < min {
			min = d
		}
	}
	return min
}

// ClusterPoints reduces a polyline to at most max representative search
// points. Points are bucketed on a coarse grid (lat/lng truncated to
// precision decimals) and each bucket is replaced by its centroid. Buckets
// are emitted ordered by first appearance along the route so the result is
// deterministic.
func ClusterPoints(points []model.Coordinate, precision int, max int) []model.Coordinate {
	if len(points) == 0 || max <= 0 {
		return nil
	}
	scale := math.Pow(10, float64(precision))
	type bucket struct {
		order      int
		lats, lngs []float64
	}
	buckets := make(map[[2]int64]*bucket)
	for _, p := range points {
		key := [2]int64{int64(math.Trunc(p.Latitude * scale)), int64(math.Trunc(p.Longitude * scale))}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{order: len(buckets)}
			buckets[key] = b
		}
		b.lats = append(b.lats, p.Latitude)
		b.lngs = append(b.lngs, p.Longitude)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	out := make([]model.Coordinate, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, model.Coordinate{
			Latitude:  stat.Mean(b.lats, nil),
			Longitude: stat.Mean(b.lngs, nil),
		})
		if len(out) == max {
			break
		}
	}
	return out
}

// FallbackPoints returns the emergency simplification of a route: start, the
// point nearest the 40% distance mark and the end.
func FallbackPoints(points []model.Coordinate) []model.Coordinate {
	if len(points) < 2 {
		return points
	}
	target := PolylineDistanceKm(points) * 0.4
	travelled := 0.0
	midIdx := 0
	for i := 0; i < len(points)-1 && travelled < target; i++ {
		travelled += DistanceKm(points[i], points[i+1])
		midIdx = i + 1
	}
	return []model.Coordinate{points[0], points[midIdx], points[len(points)-1]}
}

// AlongRouteKm returns the cumulative route distance of the polyline point
// nearest to p.
func AlongRouteKm(p model.Coordinate, points []model.Coordinate) float64 {
	best := math.MaxFloat64
	bestIdx := 0
	for i, rp := range points {
		if d := DistanceKm(p, rp); d < best {
			best = d
			bestIdx = i
		}
	}
	return PolylineDistanceKm(points[:bestIdx+1])
}
