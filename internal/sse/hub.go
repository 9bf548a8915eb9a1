package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

// Calendar connection states reported on the gcal_status event
const (
	GCalNotConfigured = "not_configured"
	GCalNeedsAuth     = "needs_auth"
	GCalConnected     = "connected"
	GCalError         = "error"
)

// Event types
const (
	TypeStatus     = "status"
	TypeGCalStatus = "gcal_status"
	TypeBooking    = "booking"
)

// Update is one server-sent event
type Update struct {
	Type   string `json:"type"`
	UserID string `json:"-"` // empty means every subscriber
	Data   string `json:"data"`
}

// StatusResponse is sent as the first event on every stream
type StatusResponse struct {
	GCal        string `json:"gcal"`
	GCalError   string `json:"gcal_error,omitempty"`
	Subscribers int    `json:"subscribers"`
}

// Hub fans out agent activity to stream subscribers
type Hub struct {
	mu sync.RWMutex

	gcalStatus string
	gcalError  string

	// value is the user filter, "" receives everything
	subscribers map[chan Update]string
}

func NewHub() *Hub {
	return &Hub{
		gcalStatus:  GCalNotConfigured,
		subscribers: make(map[chan Update]string),
	}
}

// Subscribe creates a channel for updates addressed to userID, or for all
// updates when userID is empty.
func (h *Hub) Subscribe(userID string) chan Update {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Update, 10)
	h.subscribers[ch] = userID
	return ch
}

// Unsubscribe removes a subscriber channel
func (h *Hub) Unsubscribe(ch chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
}

// Publish delivers u without blocking. Slow subscribers miss updates.
func (h *Hub) Publish(u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, filter := range h.subscribers {
		if filter != "" && u.UserID != "" && filter != u.UserID {
			continue
		}
		select {
		case ch <- u:
		default:
		}
	}
}

// SetGCalStatus records the calendar connection state and broadcasts it
func (h *Hub) SetGCalStatus(status string) {
	h.mu.Lock()
	h.gcalStatus = status
	if status != GCalError {
		h.gcalError = ""
	}
	h.mu.Unlock()

	h.Publish(Update{Type: TypeGCalStatus, Data: status})
}

// SetGCalError marks the calendar connection as failed
func (h *Hub) SetGCalError(msg string) {
	h.mu.Lock()
	h.gcalStatus = GCalError
	h.gcalError = msg
	h.mu.Unlock()

	h.Publish(Update{Type: TypeGCalStatus, Data: GCalError})
}

func (h *Hub) Status() StatusResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return StatusResponse{
		GCal:        h.gcalStatus,
		GCalError:   h.gcalError,
		Subscribers: len(h.subscribers),
	}
}

func (h *Hub) StatusJSON() string {
	data, _ := json.Marshal(h.Status())
	return string(data)
}

// NotifyBooking publishes a booking event to the user's subscribers
func (h *Hub) NotifyBooking(_ context.Context, userID string, ev dialogue.EventSpec) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.Publish(Update{Type: TypeBooking, UserID: userID, Data: string(data)})
	return nil
}
