package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Meeting agent backend is running."))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":   "healthy",
		"database": "disabled",
		"gcal":     "disconnected",
		"sessions": 0,
	}

	if s.bookings != nil {
		if err := s.bookings.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		status["database"] = "ok"
	}

	if s.gcal != nil && s.gcal.IsAuthenticated() {
		status["gcal"] = "connected"
	}

	if s.sessions != nil {
		status["sessions"] = s.sessions.Len()
	}

	respondJSON(w, http.StatusOK, status)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
