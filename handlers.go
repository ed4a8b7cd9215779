package tommekalender

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/renovasjonsdata/tommekalender-ics/ics"
	"github.com/renovasjonsdata/tommekalender-ics/scrape"
)

// errorResponse is the JSON payload for every non-calendar error answer.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

// handleFeed serves the calendar document for one address identifier.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	text, err := s.feeds.RenderFeed(r.Context(), id)
	if err != nil {
		s.writeFeedError(w, id, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "tommekalender_"+id+".ics"))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(text))
}

// eventJSON mirrors scrape.PickupEvent with a date-only date field.
type eventJSON struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

type eventsResponse struct {
	ID     string      `json:"id"`
	Count  int         `json:"count"`
	Events []eventJSON `json:"events"`
}

// handleEventsJSON serves the parsed schedule as JSON for programmatic
// consumers.
func (s *Server) handleEventsJSON(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	events, err := s.feeds.Events(r.Context(), id)
	if err != nil {
		s.writeFeedError(w, id, err)
		return
	}
	resp := eventsResponse{ID: id, Count: len(events), Events: make([]eventJSON, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, eventJSON{
			Date:        ev.Date.Format("2006-01-02"),
			Category:    ev.Category,
			Title:       ev.Title,
			Description: ev.Description,
			Location:    ev.Location,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleCacheClear purges every cached schedule.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n := s.feeds.ClearCache()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"cleared": n,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusNotFound, "not found")
}

// writeFeedError maps pipeline failures onto the outward-facing error
// classes: upstream unavailable, invalid input, or a generic internal
// failure.
func (s *Server) writeFeedError(w http.ResponseWriter, id string, err error) {
	var netErr *scrape.NetworkError
	var inputErr *ics.InputError
	switch {
	case errors.As(err, &netErr):
		s.log.Error().Str("id", id).Err(err).Msg("upstream fetch failed with no stale copy")
		s.respondError(w, http.StatusBadGateway, "upstream source unavailable")
	case errors.As(err, &inputErr):
		s.respondError(w, http.StatusBadRequest, inputErr.Msg)
	default:
		s.log.Error().Str("id", id).Err(err).Msg("feed rendering failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
