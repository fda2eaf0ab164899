package notifier

import (
	"context"

	"go.uber.org/zap"
)

// LogPushSender stands in for the push collaborator when no provider is
// configured; the notification is recorded instead of delivered.
type LogPushSender struct {
	logger *zap.Logger
}

func NewLogPushSender(logger *zap.Logger) *LogPushSender {
	return &LogPushSender{logger: logger}
}

func (s *LogPushSender) SendPush(_ context.Context, userID, title, body string) error {
	s.logger.Info("push notification",
		zap.String("user_id", userID),
		zap.String("title", title),
		zap.String("body", body))
	return nil
}
