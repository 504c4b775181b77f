package discovery

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kilianp07/evroute/core/geo"
	"github.com/kilianp07/evroute/core/model"
)

// Power tier boundaries used when the candidate set must be bounded.
const (
	fastTierKW   = 50
	mediumTierKW = 22
)

// proximityKeyPrecision rounds coordinates to roughly 100 m when collapsing
// provider-side duplicates.
const proximityKeyPrecision = 3

// nameMatchMaxKm bounds how far apart two stations may be and still be
// considered the same site by name.
const nameMatchMaxKm = 1.0

// dedupe collapses duplicates by ID first, then by rounded-coordinate
// proximity, then by normalized name similarity. Input order does not matter:
// candidates are sorted by ID first so the survivor of each collision is
// deterministic.
func dedupe(stations []model.Station) []model.Station {
	sorted := make([]model.Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	seenID := make(map[string]bool)
	seenCoord := make(map[string]bool)
	var kept []model.Station
	for _, st := range sorted {
		if seenID[st.ID] {
			continue
		}
		coordKey := proximityKey(st.Coord)
		if seenCoord[coordKey] {
			continue
		}
		if sameSiteByName(kept, st) {
			continue
		}
		seenID[st.ID] = true
		seenCoord[coordKey] = true
		kept = append(kept, st)
	}
	return kept
}

func proximityKey(c model.Coordinate) string {
	scale := math.Pow(10, proximityKeyPrecision)
	return fmt.Sprintf("%d:%d", int64(math.Round(c.Latitude*scale)), int64(math.Round(c.Longitude*scale)))
}

func sameSiteByName(kept []model.Station, st model.Station) bool {
	name := normalizeName(st.Name)
	if name == "" {
		return false
	}
	for _, other := range kept {
		if normalizeName(other.Name) == name && geo.DistanceKm(st.Coord, other.Coord) <= nameMatchMaxKm {
			return true
		}
	}
	return false
}

// normalizeName lowercases and strips everything but letters and digits so
// "Ionity  Aire de Beaune" and "IONITY-Aire-de-Beaune" collapse.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// preferFastTiers bounds the payload: when more than max candidates remain,
// faster tiers are kept first, then the remainder is cut by power then ID.
func preferFastTiers(stations []model.Station, max int) []model.Station {
	if max <= 0 || len(stations) <= max {
		return stations
	}
	tier := func(s model.Station) int {
		switch {
		case s.PowerKW >= fastTierKW:
			return 0
		case s.PowerKW >= mediumTierKW:
			return 1
		default:
			return 2
		}
	}
	sorted := make([]model.Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool {
		ti, tj := tier(sorted[i]), tier(sorted[j])
		if ti != tj {
			return ti < tj
		}
		if sorted[i].PowerKW != sorted[j].PowerKW {
			return sorted[i].PowerKW > sorted[j].PowerKW
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[:max]
}
