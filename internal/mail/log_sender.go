package mail

import (
	"context"

	"github.com/dtroode/vkn-server/internal/logger"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "Mail: email not delivered, no smtp host configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.HTMLBody)
	return nil
}
