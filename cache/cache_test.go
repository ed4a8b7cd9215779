package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/renovasjonsdata/tommekalender-ics/scrape"
)

func sampleEvents() []scrape.PickupEvent {
	return []scrape.PickupEvent{
		{
			Date:     time.Date(2025, time.October, 23, 0, 0, 0, 0, time.UTC),
			Category: "Matavfall",
			Title:    "Matavfall (Torsdag)",
		},
	}
}

func countingFetch(calls *int32, events []scrape.PickupEvent, err error) FetchFunc {
	return func(ctx context.Context, id string) ([]scrape.PickupEvent, error) {
		atomic.AddInt32(calls, 1)
		return events, err
	}
}

// TestRouteCache_SecondCallServedFromCache tests the reference scenario:
// two calls in quick succession run the fetch once
func TestRouteCache_SecondCallServedFromCache(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())
	var calls int32
	fn := countingFetch(&calls, sampleEvents(), nil)

	first, err := c.GetOrFetch(context.Background(), "123", fn)
	if err != nil {
		t.Fatalf("Failed first fetch: %v", err)
	}
	second, err := c.GetOrFetch(context.Background(), "123", fn)
	if err != nil {
		t.Fatalf("Failed second fetch: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", got)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("expected both calls to return the cached sequence")
	}

	t.Logf("✓ Second call served from cache (%d fetch)", calls)
}

// TestRouteCache_DistinctKeysFetchSeparately tests per-identifier isolation
func TestRouteCache_DistinctKeysFetchSeparately(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())
	var calls int32
	fn := countingFetch(&calls, sampleEvents(), nil)

	if _, err := c.GetOrFetch(context.Background(), "123", fn); err != nil {
		t.Fatalf("Failed fetch for 123: %v", err)
	}
	if _, err := c.GetOrFetch(context.Background(), "456", fn); err != nil {
		t.Fatalf("Failed fetch for 456: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 upstream fetches for 2 identifiers, got %d", got)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 cached identifiers, got %d", c.Len())
	}
}

// TestRouteCache_StaleFallback tests that an expired entry whose refresh
// fails is served from the stale copy instead of propagating the error
func TestRouteCache_StaleFallback(t *testing.T) {
	c := New(50*time.Millisecond, 50*time.Millisecond, zerolog.Nop())
	var okCalls, failCalls int32

	if _, err := c.GetOrFetch(context.Background(), "123", countingFetch(&okCalls, sampleEvents(), nil)); err != nil {
		t.Fatalf("Failed initial fetch: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	failing := countingFetch(&failCalls, nil, errors.New("upstream down"))
	events, err := c.GetOrFetch(context.Background(), "123", failing)
	if err != nil {
		t.Fatalf("expected the stale copy, got error: %v", err)
	}
	if atomic.LoadInt32(&failCalls) != 1 {
		t.Errorf("expected the failing fetch to be attempted once, got %d", failCalls)
	}
	if len(events) != 1 || events[0].Category != "Matavfall" {
		t.Errorf("expected the previously cached sequence, got %v", events)
	}

	t.Logf("✓ Stale copy served after failed refresh")
}

// TestRouteCache_ErrorWithoutStale tests that a cold failure propagates
func TestRouteCache_ErrorWithoutStale(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())
	var calls int32
	wantErr := errors.New("upstream down")

	_, err := c.GetOrFetch(context.Background(), "123", countingFetch(&calls, nil, wantErr))
	if err == nil {
		t.Fatal("expected the fetch error to propagate with no stale copy")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected the original error, got %v", err)
	}
}

// TestRouteCache_FailureDoesNotPopulate tests that serving stale does not
// refresh the primary entry
func TestRouteCache_FailureDoesNotPopulate(t *testing.T) {
	c := New(50*time.Millisecond, 50*time.Millisecond, zerolog.Nop())
	var okCalls, failCalls int32

	if _, err := c.GetOrFetch(context.Background(), "123", countingFetch(&okCalls, sampleEvents(), nil)); err != nil {
		t.Fatalf("Failed initial fetch: %v", err)
	}
	time.Sleep(80 * time.Millisecond)

	failing := countingFetch(&failCalls, nil, errors.New("upstream down"))
	if _, err := c.GetOrFetch(context.Background(), "123", failing); err != nil {
		t.Fatalf("expected the stale copy, got error: %v", err)
	}
	if _, err := c.GetOrFetch(context.Background(), "123", failing); err != nil {
		t.Fatalf("expected the stale copy again, got error: %v", err)
	}
	if got := atomic.LoadInt32(&failCalls); got != 2 {
		t.Errorf("expected each miss to retry the fetch, got %d attempts", got)
	}
}

// TestRouteCache_ClearAll tests that clearing drops fresh and stale copies
func TestRouteCache_ClearAll(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())
	var calls int32

	if _, err := c.GetOrFetch(context.Background(), "123", countingFetch(&calls, sampleEvents(), nil)); err != nil {
		t.Fatalf("Failed initial fetch: %v", err)
	}
	if n := c.ClearAll(); n != 1 {
		t.Errorf("expected 1 entry cleared, got %d", n)
	}
	if c.Len() != 0 {
		t.Errorf("expected an empty cache, got %d entries", c.Len())
	}

	_, err := c.GetOrFetch(context.Background(), "123", countingFetch(&calls, nil, errors.New("upstream down")))
	if err == nil {
		t.Error("expected an error after clearing: the stale copy must be gone too")
	}

	t.Logf("✓ ClearAll dropped primary and stale entries")
}

// TestRouteCache_ClearAllDuringReads tests that a ClearAll racing with
// lookups stays cleared: the idle-window extension must not re-insert an
// entry read just before the flush
func TestRouteCache_ClearAllDuringReads(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())
	failing := func(ctx context.Context, id string) ([]scrape.PickupEvent, error) {
		return nil, errors.New("upstream down")
	}

	for cycle := 0; cycle < 20; cycle++ {
		if _, err := c.GetOrFetch(context.Background(), "123", countingFetch(new(int32), sampleEvents(), nil)); err != nil {
			t.Fatalf("Failed seed fetch: %v", err)
		}

		var wg sync.WaitGroup
		stop := make(chan struct{})
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						_, _ = c.GetOrFetch(context.Background(), "123", failing)
					}
				}
			}()
		}
		c.ClearAll()
		close(stop)
		wg.Wait()

		if c.Len() != 0 {
			t.Fatalf("cycle %d: entry survived ClearAll (Len=%d)", cycle, c.Len())
		}
		if _, err := c.GetOrFetch(context.Background(), "123", failing); err == nil {
			t.Fatalf("cycle %d: cleared data still served after ClearAll", cycle)
		}
	}

	t.Logf("✓ ClearAll stayed cleared under concurrent reads")
}

// TestRouteCache_SingleFlight tests that concurrent misses for one key
// collapse into a single fetch sharing its result
func TestRouteCache_SingleFlight(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())
	var calls int32
	slow := func(ctx context.Context, id string) ([]scrape.PickupEvent, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return sampleEvents(), nil
	}

	const workers = 10
	var wg sync.WaitGroup
	results := make([][]scrape.PickupEvent, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrFetch(context.Background(), "123", slow)
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected a single in-flight fetch, got %d", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d got error: %v", i, errs[i])
		}
		if len(results[i]) != 1 {
			t.Errorf("worker %d got %d events", i, len(results[i]))
		}
	}

	t.Logf("✓ %d concurrent callers shared one fetch", workers)
}

// TestRouteCache_RemainingTTL tests the freshness window arithmetic: the
// idle window never extends past the absolute deadline
func TestRouteCache_RemainingTTL(t *testing.T) {
	c := New(24*time.Hour, 12*time.Hour, zerolog.Nop())

	recent := &entry{fetchedAt: time.Now()}
	if ttl := c.remainingTTL(recent); ttl > 12*time.Hour || ttl < 12*time.Hour-time.Minute {
		t.Errorf("fresh entry should idle at the sliding window, got %v", ttl)
	}

	old := &entry{fetchedAt: time.Now().Add(-23 * time.Hour)}
	if ttl := c.remainingTTL(old); ttl > time.Hour || ttl < 59*time.Minute {
		t.Errorf("old entry should be capped by the absolute deadline, got %v", ttl)
	}

	expired := &entry{fetchedAt: time.Now().Add(-25 * time.Hour)}
	if ttl := c.remainingTTL(expired); ttl > 0 {
		t.Errorf("entry past the absolute deadline should have no ttl, got %v", ttl)
	}
}

// TestRouteCache_ExpiryTriggersRefetch tests that entries expire and are
// fetched again afterwards
func TestRouteCache_ExpiryTriggersRefetch(t *testing.T) {
	c := New(60*time.Millisecond, 60*time.Millisecond, zerolog.Nop())
	var calls int32
	fn := countingFetch(&calls, sampleEvents(), nil)

	if _, err := c.GetOrFetch(context.Background(), "123", fn); err != nil {
		t.Fatalf("Failed initial fetch: %v", err)
	}
	time.Sleep(90 * time.Millisecond)
	if _, err := c.GetOrFetch(context.Background(), "123", fn); err != nil {
		t.Fatalf("Failed refetch: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected a refetch after expiry, got %d fetches", got)
	}
}
