package notify

import (
	"context"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

// Notifier delivers a booking announcement to a specific recipient
type Notifier interface {
	// Send delivers a notification for a booked event to recipient
	Send(ctx context.Context, ev dialogue.EventSpec, recipient string) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
