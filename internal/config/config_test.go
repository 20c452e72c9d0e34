package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasrelay/internal/constants"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearRelayEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"NTFY_BASE_URL", "NTFY_TOPIC_NAME", "NTFY_TOPIC", "TRUE_NAS_BASE_URL",
		"SOURCE_BASE_URL", "BROKER_TYPE", "BROKER_KAFKA_BROKERS", "FILTER_EXPRESSION",
		"INGRESS_ENABLED", "INGRESS_RATE_LIMIT_ENABLED", "INGRESS_RATE_LIMIT_RPS", "INGRESS_RATE_LIMIT_BURST",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("NTFY_BASE_URL", "https://ntfy.example.com/")
	t.Setenv("NTFY_TOPIC_NAME", "nas-alerts")
	t.Setenv("TRUE_NAS_BASE_URL", "https://nas01.lan")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://ntfy.example.com", cfg.Ntfy.BaseURL)
	assert.Equal(t, "nas-alerts", cfg.Ntfy.Topic)
	assert.Equal(t, constants.DefaultHTTPTimeout, cfg.Ntfy.Timeout)
	assert.Equal(t, "https://nas01.lan", cfg.Source.BaseURL)
	assert.Equal(t, constants.DefaultNamePrefix, cfg.Source.NamePrefix)
	assert.Equal(t, constants.BrokerTypeNone, cfg.Broker.Type)
	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
	assert.True(t, cfg.Ingress.Enabled)
}

func TestLoad_FileWithEnvOverrides(t *testing.T) {
	clearRelayEnv(t)
	path := writeConfigFile(t, `
server:
  port: 9090
  read_timeout: 5s
  write_timeout: 5s
broker:
  type: kafka
  kafka:
    brokers: ["localhost:9092"]
    group_id: relay
    input_topic: alerts
ntfy:
  base_url: https://ntfy.sh
  topic: from-file
  timeout: 3s
filter:
  expression: 'title != "lab"'
`)
	t.Setenv("NTFY_TOPIC_NAME", "from-env")
	t.Setenv("BROKER_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, constants.BrokerTypeKafka, cfg.Broker.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "alerts", cfg.Broker.Kafka.InputTopic)
	assert.Equal(t, 2.0, cfg.Broker.Kafka.FetchBackoff.Multiplier)
	assert.Equal(t, "from-env", cfg.Ntfy.Topic)
	assert.Equal(t, 3*time.Second, cfg.Ntfy.Timeout)
	assert.Equal(t, `title != "lab"`, cfg.Filter.Expression)
}

func TestLoad_RateLimitFromEnvironment(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("NTFY_BASE_URL", "https://ntfy.sh")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Ingress.RateLimit.Enabled)

	t.Setenv("INGRESS_RATE_LIMIT_ENABLED", "true")
	t.Setenv("INGRESS_RATE_LIMIT_RPS", "2.5")
	t.Setenv("INGRESS_RATE_LIMIT_BURST", "5")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Ingress.Enabled)
	assert.True(t, cfg.Ingress.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.Ingress.RateLimit.RPS)
	assert.Equal(t, 5, cfg.Ingress.RateLimit.Burst)
}

func TestLoad_MissingFile(t *testing.T) {
	clearRelayEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingNtfyBaseURL(t *testing.T) {
	clearRelayEnv(t)

	_, err := Load("")
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "ntfy.base_url", vErr.Field)
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
		Broker:  BrokerConfig{Type: constants.BrokerTypeNone},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Ntfy:    NtfyConfig{BaseURL: "https://ntfy.sh", Topic: "nas", Timeout: time.Second},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{name: "valid", mutate: func(cfg *Config) {}},
		{name: "bad port", mutate: func(cfg *Config) { cfg.Server.Port = 0 }, wantField: "server.port"},
		{name: "unknown broker", mutate: func(cfg *Config) { cfg.Broker.Type = "rabbitmq" }, wantField: "broker.type"},
		{
			name: "kafka without brokers",
			mutate: func(cfg *Config) {
				cfg.Broker.Type = constants.BrokerTypeKafka
				cfg.Broker.Kafka = KafkaConfig{GroupID: "g", InputTopic: "t", FetchBackoff: FetchBackoffConfig{Multiplier: 2}}
			},
			wantField: "broker.kafka.brokers",
		},
		{name: "ntfy url scheme", mutate: func(cfg *Config) { cfg.Ntfy.BaseURL = "ftp://ntfy.sh" }, wantField: "ntfy.base_url"},
		{name: "ntfy topic", mutate: func(cfg *Config) { cfg.Ntfy.Topic = "bad topic!" }, wantField: "ntfy.topic"},
		{name: "source url", mutate: func(cfg *Config) { cfg.Source.BaseURL = "nas01" }, wantField: "source.base_url"},
		{name: "log level", mutate: func(cfg *Config) { cfg.Logging.Level = "trace" }, wantField: "logging.level"},
		{name: "filter not bool", mutate: func(cfg *Config) { cfg.Filter.Expression = "title" }, wantField: "filter.expression"},
		{name: "filter valid", mutate: func(cfg *Config) { cfg.Filter.Expression = `title == "nas01"` }},
		{name: "filter string extension", mutate: func(cfg *Config) { cfg.Filter.Expression = `message.lowerAscii().contains("smart")` }},
		{
			name: "circuit breaker ratio",
			mutate: func(cfg *Config) {
				cfg.CircuitBreaker = CircuitBreakerConfig{Enabled: true, FailureRatio: 1.5}
			},
			wantField: "circuit_breaker.failure_ratio",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(cfg *Config) { cfg.Tracing.Enabled = true },
			wantField: "tracing.otlp.endpoint",
		},
		{
			name: "rate limit burst",
			mutate: func(cfg *Config) {
				cfg.Ingress = IngressConfig{Enabled: true, RateLimit: RateLimitConfig{Enabled: true, RPS: 1, CleanupInterval: time.Minute}}
			},
			wantField: "ingress.rate_limit.burst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}
