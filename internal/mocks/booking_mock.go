package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

// MockBookingRecorder is a mock implementation of dialogue.BookingRecorder
type MockBookingRecorder struct {
	mock.Mock
}

func (m *MockBookingRecorder) RecordBooking(ctx context.Context, userID string, ev dialogue.EventSpec) error {
	args := m.Called(ctx, userID, ev)
	return args.Error(0)
}

// MockBookingNotifier is a mock implementation of dialogue.Notifier
type MockBookingNotifier struct {
	mock.Mock
}

func (m *MockBookingNotifier) NotifyBooking(ctx context.Context, userID string, ev dialogue.EventSpec) error {
	args := m.Called(ctx, userID, ev)
	return args.Error(0)
}
