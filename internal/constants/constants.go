package constants

import "time"

const (
	AppName     = "nasrelay"
	ServiceName = "relay-service"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	HealthCheckTimeout = 5 * time.Second
)

const (
	DefaultInputTopic = "truenas_alerts"
	DefaultGroupID    = "nasrelay"
)

const (
	DefaultServerPort = 8080
	DefaultNtfyTopic  = "truenas"
	DefaultNamePrefix = "TrueNAS @ "
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	MaxEventBodyBytes = 1 << 20
)

const (
	BrokerTypeKafka = "kafka"
	BrokerTypeNone  = "none"
)

const (
	TransportKafka  = "kafka"
	TransportHTTP   = "http"
	TransportLambda = "lambda"
	TransportCLI    = "cli"
)

const (
	// Tag names are ntfy emoji shortcodes.
	DefaultHeaderTag = "mailbox_with_mail"
	ErrorHeaderTag   = "red_circle"
)

const (
	TitleSeparator      = "<br><br>"
	NewAlertsMarker     = "New alerts:"
	CurrentAlertsMarker = "Current alerts:"
)
