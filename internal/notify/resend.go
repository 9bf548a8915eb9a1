package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

const emailTimeLayout = "Monday, January 2, 2006 at 3:04 PM MST"

// ResendNotifier sends booking emails via the Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
}

// NewResendNotifier creates a Resend email notifier. Returns nil without an API key.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
	}
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r != nil && r.client != nil && r.fromAddress != ""
}

// Send emails recipient a summary of the booked meeting
func (r *ResendNotifier) Send(ctx context.Context, ev dialogue.EventSpec, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("no recipient specified")
	}

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{recipient},
		Subject: bookingSubject(ev),
		Html:    formatBookingHTML(ev, time.Now()),
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// Name returns the notifier name
func (r *ResendNotifier) Name() string {
	return "resend"
}

func bookingSubject(ev dialogue.EventSpec) string {
	return fmt.Sprintf("Meeting booked: %s with %s", ev.Title, ev.Person)
}

// formatBookingHTML renders the email body. Times are shown in the event's timezone.
func formatBookingHTML(ev dialogue.EventSpec, sentAt time.Time) string {
	start := ev.Start
	if loc, err := time.LoadLocation(ev.Timezone); err == nil {
		start = start.In(loc)
	}
	end := start.Add(time.Duration(ev.DurationMinutes) * time.Minute)

	linkHTML := ""
	if ev.EventRef != "" {
		linkHTML = fmt.Sprintf(`<a href="%s" style="display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 16px; font-weight: 500;">Open in Calendar</a>`,
			html.EscapeString(ev.EventRef))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; border-radius: 8px; padding: 24px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
    <h2 style="margin: 0 0 16px 0; color: #333;">%s</h2>

    <div style="background: #f8f9fa; padding: 16px; border-radius: 8px; margin: 16px 0; border-left: 4px solid #28a745;">
      <p style="margin: 8px 0;"><strong>With:</strong> %s</p>
      <p style="margin: 8px 0;"><strong>When:</strong> %s - %s</p>
      <p style="margin: 8px 0;"><strong>Duration:</strong> %d minutes</p>
    </div>

    %s

    <hr style="margin-top: 32px; border: none; border-top: 1px solid #eee;">
    <p style="color: #999; font-size: 12px; margin-top: 16px;">
      Meeting Agent<br>
      <span style="color: #ccc;">Sent at %s</span>
    </p>
  </div>
</body>
</html>`,
		html.EscapeString(ev.Title),
		html.EscapeString(ev.Person),
		start.Format(emailTimeLayout),
		end.Format("3:04 PM"),
		ev.DurationMinutes,
		linkHTML,
		sentAt.Format("Jan 2, 2006 3:04 PM"),
	)
}
