package bootstrap

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"nasrelay/internal/broker"
	"nasrelay/internal/config"
	"nasrelay/internal/constants"
	"nasrelay/internal/extractor"
	"nasrelay/internal/logger"
	"nasrelay/internal/ntfy"
	"nasrelay/internal/relay"
	"nasrelay/pkg/cel"
	"nasrelay/pkg/circuitbreaker"
)

type Base struct {
	Config     *config.Config
	Logger     logger.Logger
	Producer   broker.Producer
	Consumer   broker.Consumer
	NtfyClient *ntfy.Client
	Relay      *relay.Service
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// InitRelay builds the dispatcher shared by every transport.
func (b *Base) InitRelay() error {
	namePrefix := b.Config.Source.NamePrefix
	if namePrefix == "" {
		namePrefix = constants.DefaultNamePrefix
	}
	ext := extractor.New(extractor.Options{
		NamePrefix:    namePrefix,
		SourceBaseURL: b.Config.Source.BaseURL,
	})

	b.NtfyClient = ntfy.NewClient(ntfy.Options{
		BaseURL: b.Config.Ntfy.BaseURL,
		Timeout: b.Config.Ntfy.Timeout,
	})

	var publisher ntfy.Publisher = b.NtfyClient
	if b.Config.CircuitBreaker.Enabled {
		publisher = ntfy.NewCircuitBreakerClient(b.NtfyClient, b.circuitBreakerConfig())
	}

	sender := ntfy.NewSender(publisher, b.Config.Ntfy.Topic, b.Logger)

	var opts []relay.Option
	if b.Config.Filter.Expression != "" {
		filter, err := cel.NewFilter(b.Config.Filter.Expression)
		if err != nil {
			return fmt.Errorf("failed to compile filter expression: %w", err)
		}
		opts = append(opts, relay.WithFilter(filter))
	}

	b.Relay = relay.NewService(ext, sender, b.Logger, opts...)
	return nil
}

func (b *Base) circuitBreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("ntfy")
	cbCfg := b.Config.CircuitBreaker

	if cbCfg.MaxRequests > 0 {
		cfg.MaxRequests = cbCfg.MaxRequests
	}
	if cbCfg.Interval > 0 {
		cfg.Interval = cbCfg.Interval
	}
	if cbCfg.Timeout > 0 {
		cfg.Timeout = cbCfg.Timeout
	}
	if cbCfg.FailureRatio > 0 || cbCfg.MinRequests > 0 {
		ratio := cbCfg.FailureRatio
		if ratio <= 0 {
			ratio = 0.5
		}
		minRequests := cbCfg.MinRequests
		if minRequests == 0 {
			minRequests = 3
		}
		cfg.ReadyToTrip = circuitbreaker.RatioTrip(minRequests, ratio)
	}

	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		b.Logger.Warnw("Circuit breaker state changed",
			"name", name,
			"from", from.String(),
			"to", to.String(),
		)
	}
	return cfg
}

// InitConsumer leaves Consumer nil when the broker is disabled.
func (b *Base) InitConsumer(serviceName string) error {
	consumer, err := broker.NewConsumer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if consumer != nil && serviceName != "" {
		consumer.SetServiceName(serviceName)
	}

	b.Consumer = consumer
	return nil
}

func (b *Base) InitProducer() error {
	producer, err := broker.NewProducer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}

	b.Producer = producer
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if b.Consumer != nil {
		if err := b.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	errs = append(errs, b.ShutdownBroker()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
