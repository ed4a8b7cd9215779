package tommekalender

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/renovasjonsdata/tommekalender-ics/config"
)

// Server hosts the calendar feed HTTP API.
type Server struct {
	httpServer *http.Server
	feeds      *FeedService
	limiter    *clientLimiter
	log        zerolog.Logger
}

// NewServer builds the feed pipeline and wires it into a configured HTTP
// server.
func NewServer(cfg config.AppConfig, log zerolog.Logger) (*Server, error) {
	feeds, err := NewFeedService(cfg, log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		feeds:   feeds,
		limiter: newClientLimiter(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst),
		log:     log.With().Str("component", "server").Logger(),
	}

	r := mux.NewRouter()
	s.setupRoutes(r)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.Use(s.loggingMiddleware)
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/calendar/{id}.ics", s.handleFeed).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{id}.json", s.handleEventsJSON).Methods(http.MethodGet)
	api.HandleFunc("/cache/clear", s.handleCacheClear).Methods(http.MethodPost)
}

// Handler exposes the fully wired handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving and blocks until the listener fails or Stop is
// called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
