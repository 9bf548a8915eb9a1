package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/meeting_agent/internal/extract"
)

// MockCompleter is a mock implementation of a language model client
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockExtractor is a mock implementation of extract.Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string, now time.Time) extract.Result {
	args := m.Called(ctx, text, now)
	return args.Get(0).(extract.Result)
}
