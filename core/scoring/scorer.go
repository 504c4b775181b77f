// Package scoring ranks candidate charging stations against trip constraints
// using a weighted greedy score. Weights can be tuned per optimization
// strategy; the default profile keeps the documented balance.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/evroute/core/model"
)

// fastDCThresholdKW is the power above which any connector is treated as
// broadly DC-fast compatible regardless of its declared family.
const fastDCThresholdKW = 50

// referencePowerKW normalizes the power sub-score: stations at or above this
// value score 1.
const referencePowerKW = 150

// distancePenaltyRefKm is the radius at which the off-route penalty reaches
// zero.
const distancePenaltyRefKm = 5

// Scorer computes weighted station scores. Weights must sum to 1.0.
type Scorer struct {
	PowerWeight        float64
	PriceWeight        float64
	RatingWeight       float64
	AmenityWeight      float64
	AvailabilityWeight float64
	ConnectorWeight    float64
}

// NewScorer returns a scorer with the default balanced weights.
func NewScorer() Scorer {
	return Scorer{
		PowerWeight:        0.30,
		PriceWeight:        0.20,
		RatingWeight:       0.15,
		AmenityWeight:      0.15,
		AvailabilityWeight: 0.10,
		ConnectorWeight:    0.10,
	}
}

// FewestStopsScorer biases toward high charging power regardless of price so
// each stop covers as much range as possible.
func FewestStopsScorer() Scorer {
	return Scorer{
		PowerWeight:        0.60,
		PriceWeight:        0.05,
		RatingWeight:       0.05,
		AmenityWeight:      0.05,
		AvailabilityWeight: 0.10,
		ConnectorWeight:    0.15,
	}
}

// LeastTimeScorer biases toward well-rated, immediately usable stations; the
// distance penalty already discounts detours.
func LeastTimeScorer() Scorer {
	return Scorer{
		PowerWeight:        0.35,
		PriceWeight:        0.05,
		RatingWeight:       0.25,
		AmenityWeight:      0.05,
		AvailabilityWeight: 0.20,
		ConnectorWeight:    0.10,
	}
}

// ScoredStation pairs a station with its score and the per-criterion reasons
// that produced it.
type ScoredStation struct {
	Station model.Station
	Value   float64
	Reasons []string
}

// Score evaluates a single station. It is a pure function: identical inputs
// always yield identical values and reasons.
func (s Scorer) Score(st model.Station, c model.TripConstraints, distanceFromRouteKm float64) ScoredStation {
	power := st.PowerKW / referencePowerKW
	if power > 1 {
		power = 1
	}

	price := 1.0
	if c.MaxPricePerKWh > 0 {
		price = 1 - st.PricePerKWh/c.MaxPricePerKWh
		if price < 0 {
			price = 0
		}
	}

	rating := st.Rating / 5
	if rating > 1 {
		rating = 1
	}

	amenity := 1.0
	if len(c.RequiredAmenities) > 0 {
		found := 0
		for _, want := range c.RequiredAmenities {
			for _, have := range st.Amenities {
				if strings.EqualFold(want, have) {
					found++
					break
				}
			}
		}
		amenity = float64(found) / float64(len(c.RequiredAmenities))
	}

	avail := 0.0
	if st.Operational {
		avail = 1
	}

	connector := 0.0
	if ConnectorCompatible(st, c.Connector) {
		connector = 1
	}

	penalty := 1 - distanceFromRouteKm/distancePenaltyRefKm
	if penalty < 0 {
		penalty = 0
	}

	value := power*s.PowerWeight +
		price*s.PriceWeight +
		rating*s.RatingWeight +
		amenity*s.AmenityWeight +
		avail*s.AvailabilityWeight +
		connector*s.ConnectorWeight
	value *= penalty

	reasons := []string{
		fmt.Sprintf("power %.0f kW (%.2f)", st.PowerKW, power),
		fmt.Sprintf("price (%.2f)", price),
		fmt.Sprintf("rating %.1f (%.2f)", st.Rating, rating),
		fmt.Sprintf("amenities (%.2f)", amenity),
		fmt.Sprintf("operational (%.0f)", avail),
		fmt.Sprintf("connector (%.0f)", connector),
		fmt.Sprintf("distance %.1f km (penalty %.2f)", distanceFromRouteKm, penalty),
	}

	return ScoredStation{Station: st, Value: value, Reasons: reasons}
}

// Rank scores every station relative to the given position and returns them
// best first. Ties are broken by station ID so the ordering is a total order.
func (s Scorer) Rank(stations []model.Station, c model.TripConstraints, from model.Coordinate, distance func(model.Coordinate, model.Coordinate) float64) []ScoredStation {
	ranked := make([]ScoredStation, 0, len(stations))
	for _, st := range stations {
		ranked = append(ranked, s.Score(st, c, distance(from, st.Coord)))
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Station.ID < ranked[j].Station.ID
	})
	return ranked
}

// ConnectorCompatible reports whether the station exposes a connector usable
// by the given vehicle connector. High-power stations are treated as DC-fast
// compatible; below the threshold the declared connector families must match.
func ConnectorCompatible(st model.Station, want model.ConnectorType) bool {
	if st.PowerKW >= fastDCThresholdKW {
		return true
	}
	needle := strings.ToLower(want.String())
	for _, conn := range st.Connectors {
		title := strings.ToLower(conn)
		if strings.Contains(title, needle) {
			return true
		}
		// CCS plugs are frequently declared as "Combo".
		if want == model.ConnectorCCS && strings.Contains(title, "combo") {
			return true
		}
	}
	return false
}
