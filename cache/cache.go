package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/renovasjonsdata/tommekalender-ics/scrape"
)

// FetchFunc produces the event sequence for an identifier on a cache miss.
type FetchFunc func(ctx context.Context, id string) ([]scrape.PickupEvent, error)

// entry is the primary cache value. fetchedAt anchors the absolute
// freshness deadline across idle-window extensions.
type entry struct {
	events    []scrape.PickupEvent
	fetchedAt time.Time
}

// RouteCache memoizes parsed schedules per address identifier. An entry
// stays fresh for at most freshFor after its fetch and expires earlier
// after idleFor without a hit. A second store keeps the last good result
// per identifier without expiry, served when a refresh fails.
type RouteCache struct {
	fresh    *gocache.Cache
	stale    *gocache.Cache
	flight   singleflight.Group
	freshFor time.Duration
	idleFor  time.Duration
	log      zerolog.Logger
}

// New creates a RouteCache with the given freshness window.
func New(freshFor, idleFor time.Duration, log zerolog.Logger) *RouteCache {
	return &RouteCache{
		fresh:    gocache.New(idleFor, 30*time.Minute),
		stale:    gocache.New(gocache.NoExpiration, 0),
		freshFor: freshFor,
		idleFor:  idleFor,
		log:      log.With().Str("component", "cache").Logger(),
	}
}

// GetOrFetch returns the cached events for id, fetching through fn when the
// cached copy is missing or expired. Concurrent callers for the same id
// share a single fetch. When the fetch fails and a stale copy exists, the
// stale copy is returned instead of the error.
func (c *RouteCache) GetOrFetch(ctx context.Context, id string, fn FetchFunc) ([]scrape.PickupEvent, error) {
	if events, ok := c.lookup(id); ok {
		return events, nil
	}
	v, err, _ := c.flight.Do(id, func() (interface{}, error) {
		// The previous flight for this id may have stored a result just
		// before this one started.
		if events, ok := c.lookup(id); ok {
			return events, nil
		}
		events, err := fn(ctx, id)
		if err != nil {
			if stale, ok := c.stale.Get(id); ok {
				c.log.Warn().Str("id", id).Err(err).Msg("fetch failed, serving stale copy")
				return stale.([]scrape.PickupEvent), nil
			}
			return nil, err
		}
		c.store(id, events)
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]scrape.PickupEvent), nil
}

// ClearAll drops every cached schedule, fresh and stale, and reports how
// many primary entries were held.
func (c *RouteCache) ClearAll() int {
	n := c.fresh.ItemCount()
	c.fresh.Flush()
	c.stale.Flush()
	c.log.Info().Int("entries", n).Msg("cache cleared")
	return n
}

// Len reports the number of primary entries currently cached.
func (c *RouteCache) Len() int {
	return c.fresh.ItemCount()
}

// lookup returns a fresh entry and extends its idle window. The extension
// is capped so the entry never outlives fetchedAt plus freshFor.
func (c *RouteCache) lookup(id string) ([]scrape.PickupEvent, bool) {
	v, ok := c.fresh.Get(id)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	ttl := c.remainingTTL(ent)
	if ttl <= 0 {
		c.fresh.Delete(id)
		return nil, false
	}
	// Replace, not Set: a concurrent ClearAll between the Get above and
	// this write must win, or the flushed key would be re-inserted.
	_ = c.fresh.Replace(id, ent, ttl)
	return ent.events, true
}

func (c *RouteCache) remainingTTL(ent *entry) time.Duration {
	ttl := c.idleFor
	if left := time.Until(ent.fetchedAt.Add(c.freshFor)); left < ttl {
		ttl = left
	}
	return ttl
}

// store writes the primary entry and the stale copy. The stale slot is only
// ever written here, after a successful fetch.
func (c *RouteCache) store(id string, events []scrape.PickupEvent) {
	ent := &entry{events: events, fetchedAt: time.Now()}
	c.fresh.Set(id, ent, c.remainingTTL(ent))
	c.stale.Set(id, events, gocache.NoExpiration)
}
