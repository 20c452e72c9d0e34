package broker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/segmentio/kafka-go"

	"nasrelay/internal/config"
	"nasrelay/internal/constants"
	"nasrelay/internal/logger"
	"nasrelay/pkg/errors"
	"nasrelay/pkg/logging"
	"nasrelay/pkg/metrics"
	"nasrelay/pkg/models"
	"nasrelay/pkg/retry"
	"nasrelay/pkg/tracing"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaProducer{writer: w, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, event *events.SNSEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := tracing.InjectTraceContext(ctx, []kafka.Header{})

	err = p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic:   topic,
			Key:     []byte(key),
			Value:   body,
			Headers: headers,
			Time:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncKafkaMessagesWritten(constants.ServiceName, topic)
	metrics.ObserveKafkaMessageSize(constants.ServiceName, topic, "out", len(body))
	p.logger.DebugwCtx(ctx, "Event published",
		"topic", topic,
		"key", key,
		"bytes", len(body),
	)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	wg          sync.WaitGroup
	mu          sync.Mutex
	reader      *kafka.Reader
	logger      logger.Logger
	serviceName string
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		cfg:         cfg,
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

// Consume reads topic until ctx is done. Messages are handled one at a time
// and committed after the handler returns, whatever it returned.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, reader, topic, handler)
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *KafkaConsumer) run(ctx context.Context, reader *kafka.Reader, topic string, handler HandlerFunc) {
	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	consumeCtx = logging.WithTransport(consumeCtx, constants.TransportKafka)
	c.logger.InfowCtx(consumeCtx, "Started consuming",
		"topic", topic,
	)

	fetchBackoff := retry.ExponentialBackoff(retry.Policy{
		InitialInterval: c.cfg.FetchBackoff.InitialInterval,
		MaxInterval:     c.cfg.FetchBackoff.MaxInterval,
		Multiplier:      c.cfg.FetchBackoff.Multiplier,
	})

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, io.EOF) {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", topic,
					"reason", "context canceled",
				)
				return
			}
			metrics.IncKafkaFetchError(c.serviceName, topic)
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
			)
			if waitErr := retry.Wait(ctx, fetchBackoff); waitErr != nil {
				return
			}
			continue
		}
		fetchBackoff.Reset()

		metrics.IncKafkaMessagesRead(c.serviceName, topic)
		metrics.ObserveKafkaMessageSize(c.serviceName, topic, "in", len(m.Value))

		c.handleMessage(consumeCtx, m, handler)

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.ErrorwCtx(consumeCtx, "Failed to commit message",
				"error", err,
				"topic", topic,
				"offset", m.Offset,
			)
		}
	}
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, m kafka.Message, handler HandlerFunc) {
	msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "kafka.consume", m.Headers)
	defer span.End()

	if traceID := tracing.TraceID(msgCtx); traceID != "" {
		msgCtx = logging.WithTraceID(msgCtx, traceID)
	} else if len(m.Key) > 0 {
		msgCtx = logging.WithTraceID(msgCtx, string(m.Key))
	}

	event, err := DecodeEvent(m.Value)
	if err != nil {
		metrics.IncKafkaDecodeError(c.serviceName, m.Topic)
		c.logger.ErrorwCtx(msgCtx, "Failed to decode event, committing",
			"error", err,
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
		)
		return
	}

	if err := c.invoke(msgCtx, handler, event); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to handle event",
			"error", err,
			"topic", m.Topic,
			"offset", m.Offset,
		)
	}
}

func (c *KafkaConsumer) invoke(ctx context.Context, handler HandlerFunc, event *events.SNSEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
	}()
	return handler(ctx, event)
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	reader := c.reader
	c.mu.Unlock()

	var err error
	if reader != nil {
		err = reader.Close()
	}
	c.wg.Wait()
	return err
}

// DecodeEvent parses a Kafka message value into an SNS event batch.
func DecodeEvent(data []byte) (*events.SNSEvent, error) {
	event, err := models.DecodeEvent(data)
	if err != nil {
		return nil, errors.ErrBadEvent.WithCause(err)
	}
	return event, nil
}
