package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	if s.bookings == nil {
		respondError(w, http.StatusServiceUnavailable, "booking log is disabled")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	bookings, err := s.bookings.ListBookingsByUser(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, bookings)
}
