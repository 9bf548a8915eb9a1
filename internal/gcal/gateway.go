package gcal

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

const defaultCalendarID = "primary"

// EventCreator is the part of Client the gateway needs
type EventCreator interface {
	CreateEvent(ctx context.Context, calendarID string, input EventInput) (*CreatedEvent, error)
}

// Gateway books dialogue events on a Google calendar
type Gateway struct {
	events     EventCreator
	calendarID string
}

func NewGateway(events EventCreator, calendarID string) *Gateway {
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	return &Gateway{events: events, calendarID: calendarID}
}

// CreateEvent returns the event's HTML link, or its id when Google sends no link
func (g *Gateway) CreateEvent(ctx context.Context, ev dialogue.EventSpec) (string, error) {
	input := EventInput{
		Summary:     ev.Title,
		Description: fmt.Sprintf("Meeting with %s", ev.Person),
		StartTime:   ev.Start,
		EndTime:     ev.End(),
		TimeZone:    ev.Timezone,
	}

	// the person slot is free text; only real addresses become invitees
	if addr, err := mail.ParseAddress(ev.Person); err == nil {
		input.Attendees = []string{addr.Address}
	} else {
		input.Summary = fmt.Sprintf("%s with %s", ev.Title, ev.Person)
	}

	created, err := g.events.CreateEvent(ctx, g.calendarID, input)
	if err != nil {
		return "", err
	}

	if created.HTMLLink != "" {
		return created.HTMLLink, nil
	}
	return created.ID, nil
}

// DryRunGateway books nothing and returns a placeholder reference
type DryRunGateway struct{}

func (DryRunGateway) CreateEvent(_ context.Context, ev dialogue.EventSpec) (string, error) {
	return fmt.Sprintf("dry-run:%s", ev.Start.Format("20060102T150405Z0700")), nil
}
