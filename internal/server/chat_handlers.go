package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
	"github.com/omriShneor/meeting_agent/internal/session"
)

const maxChatBodyBytes = 64 << 10

type chatRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type eventData struct {
	Title    string `json:"title"`
	Person   string `json:"person"`
	DateTime string `json:"dateTime"`
	EventRef string `json:"eventRef,omitempty"`
}

type chatResponse struct {
	Reply     string        `json:"reply"`
	Stage     session.Stage `json:"stage"`
	EventData *eventData    `json:"eventData,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.engine.HandleTurn(r.Context(), req.UserID, req.Text)
	if err != nil {
		var extractionErr *dialogue.ExtractionError
		switch {
		case errors.Is(err, dialogue.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &extractionErr):
			s.logger.Warn("chat turn failed in extraction",
				zap.String("user_id", req.UserID),
				zap.String("raw_reply", extractionErr.RawReply),
			)
			respondError(w, http.StatusBadGateway, "Sorry, I couldn't understand that right now. Please try again.")
		default:
			s.logger.Error("chat turn failed", zap.String("user_id", req.UserID), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := chatResponse{Reply: result.Reply, Stage: result.Stage}
	if ev := result.FinalEvent; ev != nil {
		resp.EventData = &eventData{
			Title:    ev.Title,
			Person:   ev.Person,
			DateTime: ev.Start.Format(time.RFC3339),
			EventRef: ev.EventRef,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	st, ok := s.engine.Snapshot(userID)
	if !ok {
		respondError(w, http.StatusNotFound, "no active conversation")
		return
	}

	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset(r.PathValue("userId"))
	w.WriteHeader(http.StatusNoContent)
}
