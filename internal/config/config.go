package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Ntfy           NtfyConfig           `mapstructure:"ntfy"`
	Source         SourceConfig         `mapstructure:"source"`
	Filter         FilterConfig         `mapstructure:"filter"`
	Ingress        IngressConfig        `mapstructure:"ingress"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"` // "kafka" or "none"
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers      []string           `mapstructure:"brokers"`
	GroupID      string             `mapstructure:"group_id"`
	InputTopic   string             `mapstructure:"input_topic"`
	FetchBackoff FetchBackoffConfig `mapstructure:"fetch_backoff"`
}

// FetchBackoffConfig paces the consumer after broker fetch errors.
// It never applies to notification delivery.
type FetchBackoffConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NtfyConfig points at the notification service.
type NtfyConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Topic   string        `mapstructure:"topic"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SourceConfig describes the monitored appliance that emits the alerts.
type SourceConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	NamePrefix string `mapstructure:"name_prefix"`
}

type FilterConfig struct {
	Expression string `mapstructure:"expression"`
}

type IngressConfig struct {
	Enabled   bool            `mapstructure:"enabled"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RPS             float64       `mapstructure:"rps"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

// Load reads configFile (optional) and the environment.
func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
