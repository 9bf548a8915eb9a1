package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

// Service sends booking announcements to the configured recipient
type Service struct {
	recipient     string
	emailNotifier Notifier
	logger        *zap.Logger
}

// NewService creates a notification service. A nil notifier or empty recipient disables it.
func NewService(recipient string, emailNotifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recipient:     recipient,
		emailNotifier: emailNotifier,
		logger:        logger,
	}
}

// NotifyBooking emails the recipient about a booked meeting. Doing nothing when
// email is unavailable is not an error.
func (s *Service) NotifyBooking(ctx context.Context, userID string, ev dialogue.EventSpec) error {
	if !s.IsEmailAvailable() {
		s.logger.Debug("email notification skipped", zap.String("user_id", userID))
		return nil
	}

	if err := s.emailNotifier.Send(ctx, ev, s.recipient); err != nil {
		return err
	}

	s.logger.Info("booking notification sent",
		zap.String("notifier", s.emailNotifier.Name()),
		zap.String("user_id", userID),
		zap.String("title", ev.Title),
	)
	return nil
}

// IsEmailAvailable returns true if email notifications can be used
func (s *Service) IsEmailAvailable() bool {
	return s.recipient != "" && s.emailNotifier != nil && s.emailNotifier.IsConfigured()
}
