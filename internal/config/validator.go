package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"nasrelay/internal/constants"
	"nasrelay/pkg/cel"
)

var ntfyTopicPattern = regexp.MustCompile(`^[-_A-Za-z0-9]{1,64}$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errs = append(errs, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errs = append(errs, err)
	}

	if err := validateNtfy(cfg.Ntfy); err != nil {
		errs = append(errs, err)
	}

	if err := validateSource(cfg.Source); err != nil {
		errs = append(errs, err)
	}

	if err := validateFilter(cfg.Filter); err != nil {
		errs = append(errs, err)
	}

	if err := validateIngress(cfg.Ingress); err != nil {
		errs = append(errs, err)
	}

	if err := validateCircuitBreaker(cfg.CircuitBreaker); err != nil {
		errs = append(errs, err)
	}

	if err := validateTracing(cfg.Tracing); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	switch cfg.Type {
	case constants.BrokerTypeNone:
		return nil
	case constants.BrokerTypeKafka:
		return validateKafka(cfg.Kafka)
	case "":
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka, none)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	if cfg.InputTopic == "" {
		return &ValidationError{
			Field:   "broker.kafka.input_topic",
			Message: "Kafka input topic is required",
		}
	}

	backoff := cfg.FetchBackoff
	if backoff.InitialInterval < 0 || backoff.MaxInterval < 0 {
		return &ValidationError{
			Field:   "broker.kafka.fetch_backoff",
			Message: "intervals must be non-negative",
		}
	}

	if backoff.MaxInterval > 0 && backoff.InitialInterval > 0 && backoff.MaxInterval < backoff.InitialInterval {
		return &ValidationError{
			Field:   "broker.kafka.fetch_backoff.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if backoff.Multiplier < 1 {
		return &ValidationError{
			Field:   "broker.kafka.fetch_backoff.multiplier",
			Message: "multiplier must be at least 1",
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level: %s (valid: debug, info, warn, error)", cfg.Level),
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json", "console":
	default:
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format: %s (valid: json, console)", cfg.Format),
		}
	}

	return nil
}

func validateNtfy(cfg NtfyConfig) error {
	if cfg.BaseURL == "" {
		return &ValidationError{
			Field:   "ntfy.base_url",
			Message: "ntfy base URL is required (NTFY_BASE_URL)",
		}
	}

	if err := validateHTTPURL(cfg.BaseURL); err != nil {
		return &ValidationError{
			Field:   "ntfy.base_url",
			Message: err.Error(),
		}
	}

	if !ntfyTopicPattern.MatchString(cfg.Topic) {
		return &ValidationError{
			Field:   "ntfy.topic",
			Message: fmt.Sprintf("invalid topic %q: 1-64 characters of letters, digits, '-' or '_'", cfg.Topic),
		}
	}

	if cfg.Timeout < 0 {
		return &ValidationError{
			Field:   "ntfy.timeout",
			Message: "timeout must be non-negative",
		}
	}

	return nil
}

func validateSource(cfg SourceConfig) error {
	if cfg.BaseURL == "" {
		return nil
	}

	if err := validateHTTPURL(cfg.BaseURL); err != nil {
		return &ValidationError{
			Field:   "source.base_url",
			Message: err.Error(),
		}
	}

	return nil
}

func validateFilter(cfg FilterConfig) error {
	if strings.TrimSpace(cfg.Expression) == "" {
		return nil
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return err
	}

	if err := evaluator.ValidateFilterExpression(cfg.Expression); err != nil {
		return &ValidationError{
			Field:   "filter.expression",
			Message: err.Error(),
		}
	}

	return nil
}

func validateIngress(cfg IngressConfig) error {
	if !cfg.Enabled || !cfg.RateLimit.Enabled {
		return nil
	}

	if cfg.RateLimit.RPS <= 0 {
		return &ValidationError{
			Field:   "ingress.rate_limit.rps",
			Message: "rps must be positive",
		}
	}

	if cfg.RateLimit.Burst < 1 {
		return &ValidationError{
			Field:   "ingress.rate_limit.burst",
			Message: "burst must be at least 1",
		}
	}

	if cfg.RateLimit.CleanupInterval <= 0 {
		return &ValidationError{
			Field:   "ingress.rate_limit.cleanup_interval",
			Message: "cleanup interval must be positive",
		}
	}

	return nil
}

func validateCircuitBreaker(cfg CircuitBreakerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.FailureRatio < 0 || cfg.FailureRatio > 1 {
		return &ValidationError{
			Field:   "circuit_breaker.failure_ratio",
			Message: fmt.Sprintf("failure ratio must be between 0 and 1, got %v", cfg.FailureRatio),
		}
	}

	if cfg.Timeout < 0 || cfg.Interval < 0 {
		return &ValidationError{
			Field:   "circuit_breaker",
			Message: "interval and timeout must be non-negative",
		}
	}

	return nil
}

func validateTracing(cfg TracingConfig) error {
	if cfg.Enabled && cfg.OTLP.Endpoint == "" {
		return &ValidationError{
			Field:   "tracing.otlp.endpoint",
			Message: "OTLP endpoint is required when tracing is enabled",
		}
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %v", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}

	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}

	return nil
}
