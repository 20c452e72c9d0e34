//go:build integration

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"

	"nasrelay/internal/config"
	"nasrelay/internal/logger"
	"nasrelay/pkg/models"
)

func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	container, err := kafkamodule.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafkamodule.WithClusterID("nasrelay-test"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func TestKafkaRoundTrip(t *testing.T) {
	brokers := setupKafka(t)
	topic := "truenas_alerts_" + uuid.NewString()[:8]
	cfg := config.KafkaConfig{
		Brokers:    brokers,
		GroupID:    "nasrelay-test",
		InputTopic: topic,
		FetchBackoff: config.FetchBackoffConfig{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
		},
	}
	log := logger.NopLogger()

	producer := NewKafkaProducer(cfg, log)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sent := models.NewEvent("TrueNAS @ nas01<br><br>New alerts:\nDisk failing\nCurrent alerts:\n")
	require.NoError(t, producer.Publish(ctx, topic, uuid.NewString(), sent))

	received := make(chan *events.SNSEvent, 1)
	consumer := NewKafkaConsumer(cfg, log)
	consumer.SetServiceName("broker-test")

	consumeCtx, stop := context.WithCancel(ctx)
	go func() {
		_ = consumer.Consume(consumeCtx, topic, func(_ context.Context, event *events.SNSEvent) error {
			received <- event
			return nil
		})
	}()

	select {
	case event := <-received:
		require.Len(t, event.Records, 1)
		assert.Equal(t, sent.Records[0].SNS.Message, event.Records[0].SNS.Message)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	stop()
	assert.NoError(t, consumer.Close())
}
