package broker

import (
	"fmt"

	"nasrelay/internal/config"
	"nasrelay/internal/constants"
	"nasrelay/internal/logger"
)

func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return NewKafkaProducer(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// NewConsumer returns nil without error when the broker is disabled.
func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return NewKafkaConsumer(cfg.Kafka, log), nil
	case constants.BrokerTypeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
