package dialogue

import (
	"fmt"
	"time"

	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

const (
	msgAskDateTime  = "When should the meeting be? Please give me a date and time (for example \"tomorrow at 3pm\")."
	msgDateUnparsed = "Sorry, I couldn't understand that date/time. When should the meeting be? (for example \"next Monday at 10am\")"
	msgDatePast     = "That time is already in the past. When should the meeting be?"
	msgAskPerson    = "Who is the meeting with?"
	msgAskTitle     = "What's the title or topic of the meeting?"
	msgCancelled    = "Okay, I've cancelled this meeting request. Send me a new message whenever you want to schedule something."
)

func confirmationPrompt(st *session.State, loc *time.Location) string {
	return fmt.Sprintf("Great! I'll schedule %q with %s on %s. Should I book it? (yes/no)",
		*st.Title, *st.Person, formatWhen(*st.ResolvedDateTime, loc))
}

func bookedMessage(ev EventSpec, loc *time.Location) string {
	msg := fmt.Sprintf("Done! %q with %s is booked for %s.", ev.Title, ev.Person, formatWhen(ev.Start, loc))
	if ev.EventRef != "" {
		msg += " Event: " + ev.EventRef
	}
	return msg
}

func bookingFailedMessage(err error) string {
	return fmt.Sprintf("Sorry, I couldn't book the meeting: %v. Let's start over - tell me about the meeting again.", err)
}

func formatWhen(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return timeutil.FormatForDisplay(t)
}
