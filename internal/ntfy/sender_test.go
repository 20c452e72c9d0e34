package ntfy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasrelay/internal/logger"
	"nasrelay/pkg/models"
)

type recordingPublisher struct {
	topics []string
	sent   []*models.Notification
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, n *models.Notification) error {
	p.topics = append(p.topics, topic)
	p.sent = append(p.sent, n)
	return p.err
}

func TestSender_Send(t *testing.T) {
	pub := &recordingPublisher{}
	sender := NewSender(pub, "truenas", logger.NopLogger())

	ok := sender.Send(context.Background(), testNotification())
	assert.True(t, ok)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, []string{"truenas"}, pub.topics)
	assert.Equal(t, "truenas", sender.Topic())
}

func TestSender_SwallowsErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("connection refused")}
	sender := NewSender(pub, "truenas", logger.NopLogger())

	assert.NotPanics(t, func() {
		assert.False(t, sender.Send(context.Background(), testNotification()))
		assert.False(t, sender.Send(context.Background(), nil))
	})
	assert.Len(t, pub.sent, 2)
}
