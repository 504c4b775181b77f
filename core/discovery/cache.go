package discovery

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/evroute/core/model"
)

// responseCache stores registry responses keyed by rounded coordinates and
// radius. Concurrent lookups of the same key collapse onto a single fetch so
// search points rounding to the same bucket never duplicate a network call.
type responseCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	inflight map[string]*inflightCall
}

type cacheEntry struct {
	stations  []model.Station
	expiresAt time.Time
}

type inflightCall struct {
	done     chan struct{}
	stations []model.Station
	err      error
}

func newResponseCache() *responseCache {
	return &responseCache{
		entries:  make(map[string]cacheEntry),
		inflight: make(map[string]*inflightCall),
	}
}

func cacheKey(c model.Coordinate, radiusKm float64, precision int) string {
	format := fmt.Sprintf("%%.%df:%%.%df:%%.0f", precision, precision)
	return fmt.Sprintf(format, c.Latitude, c.Longitude, radiusKm)
}

// getOrFetch returns the cached stations when the entry is fresh, joins an
// in-flight fetch for the same key, or runs fn and stores its result. hit is
// true whenever fn was not invoked by this caller.
func (c *responseCache) getOrFetch(key string, now time.Time, ttl time.Duration, fn func() ([]model.Station, error)) (stations []model.Station, hit bool, err error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		c.mu.Unlock()
		return e.stations, true, nil
	}
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-call.done
		return call.stations, true, call.err
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.stations, call.err = fn()

	c.mu.Lock()
	if call.err == nil {
		c.entries[key] = cacheEntry{stations: call.stations, expiresAt: now.Add(ttl)}
	}
	delete(c.inflight, key)
	c.mu.Unlock()
	close(call.done)

	return call.stations, false, call.err
}
