package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleEventStream streams booking and calendar status events. With ?userId=
// only that user's bookings are sent.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		respondError(w, http.StatusServiceUnavailable, "Event stream not enabled")
		return
	}

	rc := http.NewResponseController(w)
	// the server's WriteTimeout would otherwise cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := s.events.Subscribe(r.URL.Query().Get("userId"))
	defer s.events.Unsubscribe(updates)

	fmt.Fprintf(w, "event: status\ndata: %s\n\n", s.events.StatusJSON())
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream flush unsupported")
		return
	}

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Type, update.Data)
			if err := rc.Flush(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
