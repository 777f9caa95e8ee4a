package notify

import (
	"context"

	"github.com/Nirob-Barman/ShopSphere/internal/logger"
)

// Sender delivers a notification to a single recipient.
// Delivery is best-effort: auth flows never fail because a send failed.
type Sender interface {
	Send(ctx context.Context, toAddress string, subject string, htmlBody string) error
}

// LogSender writes notifications to the log instead of delivering them.
// Stands in for a real mail transport in development and tests.
type LogSender struct {
	Logger logger.Logger
}

func NewLogSender(l logger.Logger) *LogSender {
	return &LogSender{Logger: l}
}

func (s *LogSender) Send(ctx context.Context, toAddress string, subject string, htmlBody string) error {
	s.Logger.Info("sending notification",
		"to", toAddress,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}
