package tommekalender

import (
	"net/http"
)

type healthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Time         string `json:"time"`
	CachedRoutes int    `json:"cached_routes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Service:      "tommekalender-ics",
		Time:         iso8601Now(),
		CachedRoutes: s.feeds.CachedRoutes(),
	}
	s.respondJSON(w, http.StatusOK, resp)
}
