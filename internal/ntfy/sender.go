package ntfy

import (
	"context"

	"nasrelay/internal/logger"
	"nasrelay/pkg/models"
)

// Sender delivers notifications to the configured topic. Delivery errors are
// logged and swallowed; nothing is retried.
type Sender struct {
	publisher Publisher
	topic     string
	logger    logger.Logger
}

func NewSender(publisher Publisher, topic string, log logger.Logger) *Sender {
	return &Sender{
		publisher: publisher,
		topic:     topic,
		logger:    log,
	}
}

// Send reports whether n was accepted by the server.
func (s *Sender) Send(ctx context.Context, n *models.Notification) bool {
	var title string
	if n != nil {
		title = n.Title
	}

	if err := s.publisher.Publish(ctx, s.topic, n); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to send notification",
			"topic", s.topic,
			"title", title,
			"error", err,
		)
		return false
	}

	s.logger.DebugwCtx(ctx, "Notification sent",
		"topic", s.topic,
		"title", title,
	)
	return true
}

func (s *Sender) Topic() string {
	return s.topic
}
