package broker

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, event *events.SNSEvent) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

// HandlerFunc handles one decoded event batch. A returned error is logged;
// the message is committed either way.
type HandlerFunc func(ctx context.Context, event *events.SNSEvent) error
