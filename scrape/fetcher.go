package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// queryParam is the URL parameter carrying the address identifier.
const queryParam = "adresseId"

// NetworkError reports a failed upstream request, either at the transport
// level or as a non-200 response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Fetcher retrieves the rendered schedule page for an address identifier.
// It does not retry; outage handling is the cache's concern.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	log        zerolog.Logger
}

// NewFetcher creates a Fetcher against the given base URL.
func NewFetcher(baseURL, userAgent string, timeout time.Duration, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		log:        log.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch downloads the schedule page for id and returns the raw HTML.
func (f *Fetcher) Fetch(ctx context.Context, id string) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", f.baseURL, err)
	}
	q := u.Query()
	q.Set(queryParam, id)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", u.String(), err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	f.log.Debug().Str("url", u.String()).Msg("fetching schedule page")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{URL: u.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{URL: u.String(), Err: err}
	}
	return string(body), nil
}
