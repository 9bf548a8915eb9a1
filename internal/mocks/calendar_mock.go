package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

// MockCalendarGateway is a mock implementation of dialogue.CalendarGateway
type MockCalendarGateway struct {
	mock.Mock
}

func (m *MockCalendarGateway) CreateEvent(ctx context.Context, ev dialogue.EventSpec) (string, error) {
	args := m.Called(ctx, ev)
	return args.String(0), args.Error(1)
}
