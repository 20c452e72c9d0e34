// Package ingress exposes the relay over HTTP for SNS HTTP(S) subscriptions
// and direct batch posts.
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"

	"nasrelay/internal/constants"
	"nasrelay/internal/logger"
	"nasrelay/internal/relay"
	apperrors "nasrelay/pkg/errors"
	"nasrelay/pkg/logging"
	"nasrelay/pkg/metrics"
	"nasrelay/pkg/models"
)

type EventHandler interface {
	HandleEvent(ctx context.Context, event *events.SNSEvent) relay.Result
}

type Handler struct {
	relay  EventHandler
	logger logger.Logger
}

func NewHandler(relay EventHandler, log logger.Logger) *Handler {
	return &Handler{relay: relay, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/events", h.PostEvent)
	}
}

type EventResponse struct {
	Status             string `json:"status"`
	Records            int    `json:"records"`
	Sent               int    `json:"sent"`
	Filtered           int    `json:"filtered"`
	ErrorNotifications int    `json:"error_notifications"`
}

type subscriptionMessage struct {
	Type         string `json:"Type"`
	TopicArn     string `json:"TopicArn"`
	SubscribeURL string `json:"SubscribeURL"`
}

func (h *Handler) HandleError(c *gin.Context, snsType string, err error) {
	h.logger.WarnwCtx(c.Request.Context(), "Rejected inbound request",
		"error", err,
		"sns_type", snsType,
	)
	metrics.IncIngressRequest(snsType, "rejected")
	c.JSON(apperrors.ToHTTPStatus(err), apperrors.ToErrorResponse(err))
}

// PostEvent accepts an SNS event batch, or a single SNS HTTP message when
// the x-amz-sns-message-type header is set. Processing outcomes never change
// the response; only malformed input is rejected.
// @Summary      Relay an alert event
// @Description  Accepts an SNS event batch, or a single SNS HTTP message when the x-amz-sns-message-type header is set. Per-record failures are reported to ntfy and never change the response.
// @Tags         events
// @Accept       json,plain
// @Produce      json
// @Param        x-amz-sns-message-type  header    string           false  "SNS HTTP message type (Notification, SubscriptionConfirmation, UnsubscribeConfirmation)"
// @Param        event                   body      events.SNSEvent  true   "SNS event batch or SNS HTTP message"
// @Success      200                     {object}  map[string]interface{}  "Subscription message acknowledged"
// @Success      202                     {object}  EventResponse
// @Failure      400                     {object}  map[string]interface{}
// @Failure      413                     {object}  map[string]interface{}
// @Failure      429                     {object}  map[string]interface{}
// @Router       /events [post]
func (h *Handler) PostEvent(c *gin.Context) {
	ctx := logging.WithTransport(c.Request.Context(), constants.TransportHTTP)
	c.Request = c.Request.WithContext(ctx)

	snsType := c.GetHeader(models.SNSMessageTypeHeader)
	metricType := snsType
	if metricType == "" {
		metricType = "batch"
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxEventBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleError(c, metricType, apperrors.NewError("PAYLOAD_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge))
			return
		}
		h.HandleError(c, metricType, apperrors.ErrBadEvent.WithCause(err))
		return
	}

	var event *events.SNSEvent
	switch snsType {
	case "":
		event, err = models.DecodeEvent(data)
		if err != nil {
			h.HandleError(c, metricType, apperrors.ErrBadEvent.WithCause(err))
			return
		}
	case models.SNSTypeNotification:
		entity, err := models.DecodeEntity(data)
		if err != nil {
			h.HandleError(c, metricType, apperrors.ErrBadEvent.WithCause(err))
			return
		}
		if entity.MessageID != "" {
			ctx = logging.WithMessageID(ctx, entity.MessageID)
		}
		event = models.EventFromEntity(entity)
	case models.SNSTypeSubscriptionConfirmation, models.SNSTypeUnsubscribeConfirmation:
		h.acknowledgeSubscription(c, snsType, data)
		return
	default:
		h.HandleError(c, metricType, apperrors.ErrBadEvent.WithDetail("message", "unsupported sns message type: "+snsType))
		return
	}

	result := h.relay.HandleEvent(ctx, event)
	metrics.IncIngressRequest(metricType, "accepted")

	c.JSON(http.StatusAccepted, EventResponse{
		Status:             "accepted",
		Records:            result.Records,
		Sent:               result.Sent,
		Filtered:           result.Filtered,
		ErrorNotifications: result.ErrorNotifications,
	})
}

// acknowledgeSubscription logs the confirmation link for the operator.
// Subscriptions are never confirmed automatically.
func (h *Handler) acknowledgeSubscription(c *gin.Context, snsType string, data []byte) {
	var msg subscriptionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.HandleError(c, snsType, apperrors.ErrBadEvent.WithCause(err))
		return
	}

	h.logger.WarnwCtx(c.Request.Context(), "SNS subscription message received, confirm it manually",
		"sns_type", snsType,
		"topic_arn", msg.TopicArn,
		"subscribe_url", msg.SubscribeURL,
	)
	metrics.IncIngressRequest(snsType, "acknowledged")
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}
