package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

const (
	SNSMessageTypeHeader            = "x-amz-sns-message-type"
	SNSTypeNotification             = "Notification"
	SNSTypeSubscriptionConfirmation = "SubscriptionConfirmation"
	SNSTypeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
)

// NewEvent wraps raw message bodies into an SNS event batch, one record per body.
func NewEvent(messages ...string) *events.SNSEvent {
	records := make([]events.SNSEventRecord, 0, len(messages))
	for _, message := range messages {
		records = append(records, events.SNSEventRecord{
			EventSource:  "aws:sns",
			EventVersion: "1.0",
			SNS: events.SNSEntity{
				Type:      SNSTypeNotification,
				Message:   message,
				Timestamp: time.Now().UTC(),
			},
		})
	}
	return &events.SNSEvent{Records: records}
}

// EventFromEntity wraps a single SNS HTTP notification into a one-record batch.
func EventFromEntity(entity events.SNSEntity) *events.SNSEvent {
	return &events.SNSEvent{
		Records: []events.SNSEventRecord{
			{
				EventSource:          "aws:sns",
				EventVersion:         "1.0",
				EventSubscriptionArn: entity.TopicArn,
				SNS:                  entity,
			},
		},
	}
}

func IsEmptyEvent(event *events.SNSEvent) bool {
	return event == nil || len(event.Records) == 0
}

// DecodeEvent parses a JSON-encoded SNS event batch. "null" decodes to an
// empty batch.
func DecodeEvent(data []byte) (*events.SNSEvent, error) {
	var event events.SNSEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &event, nil
}

// DecodeEntity parses a single SNS HTTP notification.
func DecodeEntity(data []byte) (events.SNSEntity, error) {
	var entity events.SNSEntity
	if err := json.Unmarshal(data, &entity); err != nil {
		return events.SNSEntity{}, fmt.Errorf("failed to decode sns notification: %w", err)
	}
	return entity, nil
}
