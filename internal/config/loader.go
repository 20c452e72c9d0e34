package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"nasrelay/internal/constants"
)

// LoadConfig merges defaults, the YAML file (when configFile is set) and the
// environment, then validates the result.
func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", constants.DefaultServerPort)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)

	viper.SetDefault("broker.type", constants.BrokerTypeNone)
	viper.SetDefault("broker.kafka.group_id", constants.DefaultGroupID)
	viper.SetDefault("broker.kafka.input_topic", constants.DefaultInputTopic)
	viper.SetDefault("broker.kafka.fetch_backoff.initial_interval", time.Second)
	viper.SetDefault("broker.kafka.fetch_backoff.max_interval", 30*time.Second)
	viper.SetDefault("broker.kafka.fetch_backoff.multiplier", 2.0)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("ntfy.topic", constants.DefaultNtfyTopic)
	viper.SetDefault("ntfy.timeout", constants.DefaultHTTPTimeout)

	viper.SetDefault("source.name_prefix", constants.DefaultNamePrefix)

	viper.SetDefault("ingress.enabled", true)
	viper.SetDefault("ingress.rate_limit.enabled", false)
	viper.SetDefault("ingress.rate_limit.rps", 10.0)
	viper.SetDefault("ingress.rate_limit.burst", 20)
	viper.SetDefault("ingress.rate_limit.cleanup_interval", 5*time.Minute)
	viper.SetDefault("ingress.rate_limit.max_age", 10*time.Minute)

	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", time.Minute)
	viper.SetDefault("circuit_breaker.timeout", 30*time.Second)
	viper.SetDefault("circuit_breaker.failure_ratio", 0.5)
	viper.SetDefault("circuit_breaker.min_requests", 3)

	viper.SetDefault("tracing.service_name", constants.ServiceName)
	viper.SetDefault("tracing.sampler.type", "always_on")
}

func bindEnvVariables() {
	// The first three names are the ones the appliance deployment already uses.
	viper.BindEnv("ntfy.base_url", "NTFY_BASE_URL")
	viper.BindEnv("ntfy.topic", "NTFY_TOPIC_NAME", "NTFY_TOPIC")
	viper.BindEnv("source.base_url", "TRUE_NAS_BASE_URL", "SOURCE_BASE_URL")
	viper.BindEnv("source.name_prefix", "SOURCE_NAME_PREFIX")
	viper.BindEnv("ntfy.timeout", "NTFY_TIMEOUT")

	viper.BindEnv("broker.type", "BROKER_TYPE")
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.input_topic", "BROKER_KAFKA_INPUT_TOPIC")

	viper.BindEnv("filter.expression", "FILTER_EXPRESSION")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("ingress.enabled", "INGRESS_ENABLED")
	viper.BindEnv("ingress.rate_limit.enabled", "INGRESS_RATE_LIMIT_ENABLED")
	viper.BindEnv("ingress.rate_limit.rps", "INGRESS_RATE_LIMIT_RPS")
	viper.BindEnv("ingress.rate_limit.burst", "INGRESS_RATE_LIMIT_BURST")

	viper.BindEnv("circuit_breaker.enabled", "CIRCUIT_BREAKER_ENABLED")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	cfg.Ntfy.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Ntfy.BaseURL), "/")
	cfg.Source.BaseURL = strings.TrimSpace(cfg.Source.BaseURL)
	cfg.Broker.Type = strings.ToLower(cfg.Broker.Type)
}
