// Package docs registers the OpenAPI document of the relay HTTP ingress
// with swag. It mirrors the annotations on cmd/relay-service and
// internal/ingress; regenerate it with `swag init -g cmd/relay-service/main.go`
// after changing them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/events": {
            "post": {
                "description": "Accepts an SNS event batch, or a single SNS HTTP message when the x-amz-sns-message-type header is set. Per-record failures are reported to ntfy and never change the response.",
                "consumes": [
                    "application/json",
                    "text/plain"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "events"
                ],
                "summary": "Relay an alert event",
                "parameters": [
                    {
                        "type": "string",
                        "description": "SNS HTTP message type (Notification, SubscriptionConfirmation, UnsubscribeConfirmation)",
                        "name": "x-amz-sns-message-type",
                        "in": "header"
                    },
                    {
                        "description": "SNS event batch or SNS HTTP message",
                        "name": "event",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/events.SNSEvent"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Subscription message acknowledged",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ingress.EventResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "413": {
                        "description": "Request Entity Too Large",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "429": {
                        "description": "Too Many Requests",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "events.SNSEntity": {
            "type": "object",
            "properties": {
                "Message": {
                    "type": "string"
                },
                "MessageId": {
                    "type": "string"
                },
                "Subject": {
                    "type": "string"
                },
                "Timestamp": {
                    "type": "string"
                },
                "TopicArn": {
                    "type": "string"
                },
                "Type": {
                    "type": "string"
                }
            }
        },
        "events.SNSEvent": {
            "type": "object",
            "properties": {
                "Records": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/events.SNSEventRecord"
                    }
                }
            }
        },
        "events.SNSEventRecord": {
            "type": "object",
            "properties": {
                "EventSource": {
                    "type": "string"
                },
                "EventSubscriptionArn": {
                    "type": "string"
                },
                "EventVersion": {
                    "type": "string"
                },
                "Sns": {
                    "$ref": "#/definitions/events.SNSEntity"
                }
            }
        },
        "ingress.EventResponse": {
            "type": "object",
            "properties": {
                "error_notifications": {
                    "type": "integer"
                },
                "filtered": {
                    "type": "integer"
                },
                "records": {
                    "type": "integer"
                },
                "sent": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "nasrelay Relay Service API",
	Description:      "HTTP ingress relaying storage appliance alerts to ntfy",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
