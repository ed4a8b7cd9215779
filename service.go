package tommekalender

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/renovasjonsdata/tommekalender-ics/cache"
	"github.com/renovasjonsdata/tommekalender-ics/config"
	"github.com/renovasjonsdata/tommekalender-ics/ics"
	"github.com/renovasjonsdata/tommekalender-ics/scrape"
)

// FeedService wires the fetch, parse, cache and generate steps behind the
// operations the HTTP layer and the CLI expose.
type FeedService struct {
	fetcher *scrape.Fetcher
	parser  *scrape.Parser
	cache   *cache.RouteCache
	gen     *ics.Generator
	name    string
	log     zerolog.Logger
}

// NewFeedService builds the pipeline from configuration.
func NewFeedService(cfg config.AppConfig, log zerolog.Logger) (*FeedService, error) {
	loc, err := time.LoadLocation(cfg.Feed.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Feed.Timezone, err)
	}
	return &FeedService{
		fetcher: scrape.NewFetcher(
			cfg.Source.BaseURL,
			cfg.Source.UserAgent,
			time.Duration(cfg.Source.TimeoutSeconds)*time.Second,
			log,
		),
		parser: scrape.NewParser(log),
		cache: cache.New(
			time.Duration(cfg.Cache.FreshHours)*time.Hour,
			time.Duration(cfg.Cache.IdleHours)*time.Hour,
			log,
		),
		gen:  ics.NewGenerator(cfg.Feed.ProdID, loc),
		name: cfg.Feed.Name,
		log:  log.With().Str("component", "feed").Logger(),
	}, nil
}

// Events returns the pickup events for id, served from cache when fresh.
func (s *FeedService) Events(ctx context.Context, id string) ([]scrape.PickupEvent, error) {
	return s.cache.GetOrFetch(ctx, id, s.fetchAndParse)
}

// RenderFeed returns the calendar document for id.
func (s *FeedService) RenderFeed(ctx context.Context, id string) (string, error) {
	events, err := s.Events(ctx, id)
	if err != nil {
		return "", err
	}
	return s.gen.Calendar(events, s.name)
}

// RenderHTML parses an already fetched schedule page and renders it,
// bypassing the fetch and cache steps. Used by the oneshot CLI mode to
// render saved pages.
func (s *FeedService) RenderHTML(html string) (string, error) {
	events, err := s.parser.Parse(html)
	if err != nil {
		return "", err
	}
	return s.gen.Calendar(events, s.name)
}

// ClearCache drops every cached schedule and reports how many identifiers
// were held.
func (s *FeedService) ClearCache() int {
	return s.cache.ClearAll()
}

// CachedRoutes reports the number of identifiers currently cached.
func (s *FeedService) CachedRoutes() int {
	return s.cache.Len()
}

func (s *FeedService) fetchAndParse(ctx context.Context, id string) ([]scrape.PickupEvent, error) {
	html, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(html)
}
