// Package relay dispatches inbound alert events to the notification sender.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"nasrelay/internal/constants"
	"nasrelay/internal/logger"
	apperrors "nasrelay/pkg/errors"
	"nasrelay/pkg/logging"
	"nasrelay/pkg/metrics"
	"nasrelay/pkg/models"
	"nasrelay/pkg/tracing"
)

const (
	ErrorTitle = constants.AppName

	IncorrectEventMessage        = constants.AppName + ": incorrect event."
	IncorrectEventRecordMessage  = constants.AppName + ": incorrect event's message."
	ProcessingErrorMessagePrefix = "Notification wasn't processed. Error while processing event: "
)

const (
	kindAlert = "alert"
	kindError = "error"
)

type Extractor interface {
	Extract(body string, priority models.Priority) (*models.Notification, error)
}

// Sender delivers a notification and reports whether it was accepted.
// It must not return delivery errors to the caller.
type Sender interface {
	Send(ctx context.Context, n *models.Notification) bool
}

type Filter interface {
	Matches(ctx context.Context, n *models.Notification) (bool, error)
}

// Result counts what happened to one inbound batch.
type Result struct {
	Records            int
	Sent               int
	Filtered           int
	Invalid            int
	Failed             int
	Undelivered        int
	ErrorNotifications int
}

type Service struct {
	extractor Extractor
	sender    Sender
	filter    Filter
	logger    logger.Logger
}

type Option func(*Service)

// WithFilter suppresses notifications for which f reports false.
func WithFilter(f Filter) Option {
	return func(s *Service) {
		s.filter = f
	}
}

func NewService(extractor Extractor, sender Sender, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		extractor: extractor,
		sender:    sender,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleEvent processes every record of event in order. Failures never
// abort the batch; each one is reported through an error notification.
func (s *Service) HandleEvent(ctx context.Context, event *events.SNSEvent) Result {
	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "relay.handle_event")
	defer span.End()

	start := time.Now()
	transport := logging.GetTransport(ctx)
	s.logEvent(ctx, event)

	var result Result
	if models.IsEmptyEvent(event) {
		s.logger.WarnwCtx(ctx, "Received event without records")
		s.sendError(ctx, IncorrectEventMessage, &result)

		span.SetStatus(codes.Error, "empty event")
		metrics.IncRelayEvent(transport, "rejected")
		metrics.ObserveRelayDuration(time.Since(start), "rejected")
		return result
	}

	result.Records = len(event.Records)
	span.SetAttributes(attribute.Int("relay.records", result.Records))

	for i := range event.Records {
		s.handleRecord(ctx, i, event.Records[i].SNS, &result)
	}

	s.logger.InfowCtx(ctx, "Event processed",
		"records", result.Records,
		"sent", result.Sent,
		"filtered", result.Filtered,
		"invalid", result.Invalid,
		"failed", result.Failed,
		"undelivered", result.Undelivered,
		"error_notifications", result.ErrorNotifications,
	)

	metrics.IncRelayEvent(transport, "processed")
	metrics.ObserveRelayDuration(time.Since(start), "processed")
	return result
}

func (s *Service) handleRecord(ctx context.Context, index int, entity events.SNSEntity, result *Result) {
	if entity.MessageID != "" {
		ctx = logging.WithMessageID(ctx, entity.MessageID)
	}
	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "relay.handle_record")
	defer span.End()
	span.SetAttributes(attribute.Int("relay.record_index", index))

	if strings.TrimSpace(entity.Message) == "" {
		s.logger.WarnwCtx(ctx, "Received record with empty message", "record", index)
		result.Invalid++
		metrics.IncRelayRecord("invalid")
		s.sendError(ctx, IncorrectEventRecordMessage, result)
		return
	}

	notification, passed, err := s.process(ctx, entity.Message)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to process record",
			"record", index,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		result.Failed++
		metrics.IncRelayRecord("failed")
		s.sendError(ctx, ProcessingErrorMessagePrefix+err.Error(), result)
		return
	}

	if !passed {
		s.logger.InfowCtx(ctx, "Notification filtered",
			"record", index,
			"title", notification.Title,
		)
		result.Filtered++
		metrics.IncRelayRecord("filtered")
		return
	}

	if s.send(ctx, kindAlert, notification) {
		result.Sent++
		metrics.IncRelayRecord("sent")
		return
	}
	result.Undelivered++
	metrics.IncRelayRecord("undelivered")
}

// process extracts the notification and applies the filter. A panic is
// turned into an extraction error for this record only.
func (s *Service) process(ctx context.Context, message string) (n *models.Notification, passed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, passed = nil, false
			err = apperrors.ErrExtraction.WithCause(apperrors.RecoverPanic(r))
		}
	}()

	n, err = s.extractor.Extract(message, models.PriorityDefault)
	if err != nil {
		return nil, false, err
	}

	return n, s.matches(ctx, n), nil
}

// matches fails open: a filter that cannot be evaluated lets the
// notification through.
func (s *Service) matches(ctx context.Context, n *models.Notification) bool {
	if s.filter == nil {
		return true
	}

	ok, err := s.filter.Matches(ctx, n)
	if err != nil {
		s.logger.WarnwCtx(ctx, "Filter evaluation failed, sending notification",
			"error", err,
		)
		return true
	}
	return ok
}

func (s *Service) sendError(ctx context.Context, message string, result *Result) {
	n := NewErrorNotification(message)
	s.send(ctx, kindError, n)
	result.ErrorNotifications++
}

func (s *Service) send(ctx context.Context, kind string, n *models.Notification) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorwCtx(ctx, "Recovered panic while sending notification",
				"kind", kind,
				"error", apperrors.RecoverPanic(r),
			)
			ok = false
			metrics.IncNotification(kind, "failed")
		}
	}()

	ok = s.sender.Send(ctx, n)

	status := "sent"
	if !ok {
		status = "failed"
	}
	metrics.IncNotification(kind, status)
	return ok
}

// NewErrorNotification builds the notification reporting a processing
// problem to the operator.
func NewErrorNotification(message string) *models.Notification {
	return models.NewNotificationBuilder().
		WithTitle(ErrorTitle).
		WithMessage(message).
		WithPriority(models.PriorityDefault).
		WithTag(constants.ErrorHeaderTag).
		Build()
}

func (s *Service) logEvent(ctx context.Context, event *events.SNSEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnwCtx(ctx, "Failed to serialize event", "error", err)
		return
	}
	s.logger.InfowCtx(ctx, "Received event", "event", string(raw))
}

func (r Result) String() string {
	return fmt.Sprintf("records=%d sent=%d filtered=%d invalid=%d failed=%d undelivered=%d error_notifications=%d",
		r.Records, r.Sent, r.Filtered, r.Invalid, r.Failed, r.Undelivered, r.ErrorNotifications)
}
