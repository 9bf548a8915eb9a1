package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

// MockNotifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, ev dialogue.EventSpec, recipient string) error {
	args := m.Called(ctx, ev, recipient)
	return args.Error(0)
}

func (m *MockNotifier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func testEvent() dialogue.EventSpec {
	return dialogue.EventSpec{
		Title:           "Budget <review>",
		Person:          "Sarah",
		Start:           time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Timezone:        "America/New_York",
		EventRef:        "https://calendar.example/event?id=1&x=2",
	}
}

func TestIsEmailAvailable(t *testing.T) {
	t.Run("available when notifier configured", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)

		service := NewService("me@example.com", emailNotifier, nil)
		assert.True(t, service.IsEmailAvailable())

		emailNotifier.AssertExpectations(t)
	})

	t.Run("not available when notifier not configured", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(false)

		service := NewService("me@example.com", emailNotifier, nil)
		assert.False(t, service.IsEmailAvailable())

		emailNotifier.AssertExpectations(t)
	})

	t.Run("not available without recipient", func(t *testing.T) {
		emailNotifier := &MockNotifier{}

		service := NewService("", emailNotifier, nil)
		assert.False(t, service.IsEmailAvailable())

		emailNotifier.AssertNotCalled(t, "IsConfigured")
	})

	t.Run("not available when notifier is nil", func(t *testing.T) {
		service := NewService("me@example.com", nil, nil)
		assert.False(t, service.IsEmailAvailable())
	})

	t.Run("nil resend notifier is not configured", func(t *testing.T) {
		service := NewService("me@example.com", NewResendNotifier("", "from@example.com"), nil)
		assert.False(t, service.IsEmailAvailable())
	})
}

func TestNotifyBooking(t *testing.T) {
	ctx := context.Background()
	ev := testEvent()

	t.Run("sends to recipient", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)
		emailNotifier.On("Name").Return("mock")
		emailNotifier.On("Send", ctx, ev, "me@example.com").Return(nil)

		service := NewService("me@example.com", emailNotifier, nil)
		assert.NoError(t, service.NotifyBooking(ctx, "u1", ev))

		emailNotifier.AssertExpectations(t)
	})

	t.Run("send error is returned", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(true)
		emailNotifier.On("Send", ctx, ev, "me@example.com").Return(errors.New("smtp down"))

		service := NewService("me@example.com", emailNotifier, nil)
		err := service.NotifyBooking(ctx, "u1", ev)

		assert.EqualError(t, err, "smtp down")
		emailNotifier.AssertExpectations(t)
	})

	t.Run("skipped when unavailable", func(t *testing.T) {
		emailNotifier := &MockNotifier{}
		emailNotifier.On("IsConfigured").Return(false)

		service := NewService("me@example.com", emailNotifier, nil)
		assert.NoError(t, service.NotifyBooking(ctx, "u1", ev))

		emailNotifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestResendNotifier(t *testing.T) {
	t.Run("nil without api key", func(t *testing.T) {
		assert.Nil(t, NewResendNotifier("", "from@example.com"))
	})

	t.Run("configured needs from address", func(t *testing.T) {
		assert.True(t, NewResendNotifier("re_key", "from@example.com").IsConfigured())
		assert.False(t, NewResendNotifier("re_key", "").IsConfigured())
	})

	t.Run("rejects empty recipient", func(t *testing.T) {
		n := NewResendNotifier("re_key", "from@example.com")
		err := n.Send(context.Background(), testEvent(), "")
		assert.EqualError(t, err, "no recipient specified")
	})

	t.Run("name", func(t *testing.T) {
		assert.Equal(t, "resend", NewResendNotifier("re_key", "from@example.com").Name())
	})
}

func TestFormatBookingHTML(t *testing.T) {
	body := formatBookingHTML(testEvent(), time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, body, "Budget &lt;review&gt;")
	assert.Contains(t, body, "Sarah")
	// 15:00 UTC is 11:00 in New York in October
	assert.Contains(t, body, "Friday, October 16, 2026 at 11:00 AM EDT - 11:30 AM")
	assert.Contains(t, body, "30 minutes")
	assert.Contains(t, body, "https://calendar.example/event?id=1&amp;x=2")
	assert.Contains(t, body, "Oct 15, 2026 9:00 AM")
	assert.Equal(t, "Meeting booked: Budget <review> with Sarah", bookingSubject(testEvent()))
}
