package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RelayEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of inbound event batches handled (count)",
		},
		[]string{"transport", "status"},
	)

	RelayRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_records_total",
			Help: "Total number of inbound event records by outcome (count)",
		},
		[]string{"status"},
	)

	RelayProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_processing_duration_ms",
			Help:    "Per-batch processing duration including delivery in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notifications handed to ntfy (count)",
		},
		[]string{"kind", "status"},
	)

	NtfyRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ntfy_request_duration_ms",
			Help:    "Duration of ntfy publish requests in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_fetch_errors_total",
			Help: "Total number of Kafka fetch errors (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaDecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_decode_errors_total",
			Help: "Total number of Kafka messages that were not valid event batches (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_message_size_bytes",
			Help:    "Size of Kafka messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"service", "topic", "direction"},
	)

	IngressRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_requests_total",
			Help: "Total number of HTTP ingress requests (count)",
		},
		[]string{"sns_type", "status"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

var (
	relayOnce          sync.Once
	brokerOnce         sync.Once
	ingressOnce        sync.Once
	circuitBreakerOnce sync.Once
)

func RegisterRelayMetrics() {
	relayOnce.Do(func() {
		prometheus.MustRegister(RelayEventsTotal)
		prometheus.MustRegister(RelayRecordsTotal)
		prometheus.MustRegister(RelayProcessingDuration)
		prometheus.MustRegister(NotificationsTotal)
		prometheus.MustRegister(NtfyRequestDuration)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(KafkaMessagesReadTotal)
		prometheus.MustRegister(KafkaMessagesWrittenTotal)
		prometheus.MustRegister(KafkaFetchErrorsTotal)
		prometheus.MustRegister(KafkaDecodeErrorsTotal)
		prometheus.MustRegister(KafkaMessageSizeBytes)
	})
}

func RegisterIngressMetrics() {
	ingressOnce.Do(func() {
		prometheus.MustRegister(IngressRequestsTotal)
		prometheus.MustRegister(RateLimitRequestsTotal)
	})
}

func RegisterCircuitBreakerMetrics() {
	circuitBreakerOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func IncRelayEvent(transport, status string) {
	RelayEventsTotal.WithLabelValues(transport, status).Inc()
}

func IncRelayRecord(status string) {
	RelayRecordsTotal.WithLabelValues(status).Inc()
}

func ObserveRelayDuration(duration time.Duration, status string) {
	RelayProcessingDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncNotification(kind, status string) {
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

func ObserveNtfyRequestDuration(duration time.Duration, status string) {
	NtfyRequestDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaFetchError(service, topic string) {
	KafkaFetchErrorsTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaDecodeError(service, topic string) {
	KafkaDecodeErrorsTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaMessageSize(service, topic, direction string, sizeBytes int) {
	KafkaMessageSizeBytes.WithLabelValues(service, topic, direction).Observe(float64(sizeBytes))
}

func IncIngressRequest(snsType, status string) {
	IngressRequestsTotal.WithLabelValues(snsType, status).Inc()
}
