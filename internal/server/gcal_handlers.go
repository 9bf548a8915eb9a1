package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/sse"
)

const oauthStateTTL = 10 * time.Minute

func (s *Server) handleGCalStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"connected": false,
		"message":   "Not configured",
	}

	if s.gcal == nil {
		status["message"] = "Google Calendar client not initialized. Check credentials.json."
		respondJSON(w, http.StatusOK, status)
		return
	}

	if s.gcal.IsAuthenticated() {
		status["connected"] = true
		status["message"] = "Connected"
	} else {
		status["message"] = "Not authenticated. Open /api/gcal/connect to authorize."
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGCalListCalendars(w http.ResponseWriter, r *http.Request) {
	if s.gcal == nil || !s.gcal.IsAuthenticated() {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not connected")
		return
	}

	calendars, err := s.gcal.ListCalendars(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, calendars)
}

func (s *Server) handleGCalConnect(w http.ResponseWriter, r *http.Request) {
	if s.gcal == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured. Check credentials.json.")
		return
	}

	state := s.newOAuthState()
	authURL, err := s.gcal.AuthURL(state)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

// handleOAuthCallback handles the redirect back from Google's consent screen
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.gcal == nil {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not configured")
		return
	}

	if !s.consumeOAuthState(r.URL.Query().Get("state")) {
		respondError(w, http.StatusBadRequest, "Invalid or expired OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "No authorization code received")
		return
	}

	if err := s.gcal.ExchangeCode(r.Context(), code); err != nil {
		s.logger.Error("oauth code exchange failed", zap.Error(err))
		if s.events != nil {
			s.events.SetGCalError(err.Error())
		}
		respondError(w, http.StatusInternalServerError, "Failed to exchange code")
		return
	}

	s.logger.Info("google calendar connected")
	if s.events != nil {
		s.events.SetGCalStatus(sse.GCalConnected)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<html><body><h2>Google Calendar connected.</h2><p>You can close this window.</p></body></html>`))
}

func (s *Server) newOAuthState() string {
	state := uuid.NewString()

	s.oauthMu.Lock()
	defer s.oauthMu.Unlock()

	now := time.Now()
	for k, exp := range s.oauthStates {
		if now.After(exp) {
			delete(s.oauthStates, k)
		}
	}
	s.oauthStates[state] = now.Add(oauthStateTTL)
	return state
}

// consumeOAuthState accepts each issued state once, before it expires
func (s *Server) consumeOAuthState(state string) bool {
	if state == "" {
		return false
	}

	s.oauthMu.Lock()
	defer s.oauthMu.Unlock()

	exp, ok := s.oauthStates[state]
	if !ok {
		return false
	}
	delete(s.oauthStates, state)
	return time.Now().Before(exp)
}
