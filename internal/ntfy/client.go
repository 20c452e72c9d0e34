// Package ntfy publishes notifications to an ntfy server through its JSON
// publish API.
package ntfy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"

	"nasrelay/internal/constants"
	apperrors "nasrelay/pkg/errors"
	"nasrelay/pkg/metrics"
	"nasrelay/pkg/models"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, n *models.Notification) error
}

type Options struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http *resty.Client
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	return &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", constants.AppName),
	}
}

// publishRequest is the ntfy JSON publish form. The topic travels in the
// body, the request goes to the server root.
type publishRequest struct {
	Topic    string          `json:"topic"`
	Title    string          `json:"title,omitempty"`
	Message  string          `json:"message"`
	Priority int             `json:"priority,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
	Actions  []models.Action `json:"actions,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	HTTP    int    `json:"http"`
	Message string `json:"error"`
}

func newPublishRequest(topic string, n *models.Notification) (*publishRequest, error) {
	if err := models.ValidateNotification(n); err != nil {
		return nil, err
	}
	if topic == "" {
		topic = n.Topic
	}
	if topic == "" {
		return nil, &models.ValidationError{Field: "topic", Message: "topic is required"}
	}

	level, _ := n.Priority.Level()
	return &publishRequest{
		Topic:    topic,
		Title:    n.Title,
		Message:  n.Message,
		Priority: level,
		Tags:     n.Tags,
		Actions:  n.Actions,
	}, nil
}

// Publish sends n to topic. A non-2xx answer is an ErrDelivery carrying the
// status and the server's error text. A request that runs out of time is an
// ErrTimeout.
func (c *Client) Publish(ctx context.Context, topic string, n *models.Notification) error {
	body, err := newPublishRequest(topic, n)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&apiError{}).
		Post("/")
	if err != nil {
		if isTimeout(err) {
			metrics.ObserveNtfyRequestDuration(time.Since(start), "timeout")
			return apperrors.ErrTimeout.
				WithCause(fmt.Errorf("ntfy request timed out: %w", err)).
				WithDetails(map[string]interface{}{
					"topic":   body.Topic,
					"timeout": c.http.GetClient().Timeout.String(),
				})
		}
		metrics.ObserveNtfyRequestDuration(time.Since(start), "error")
		return apperrors.Wrap(fmt.Errorf("ntfy request failed: %w", err), apperrors.ErrDelivery)
	}

	if resp.StatusCode() < constants.HTTPStatusOKMin || resp.StatusCode() >= constants.HTTPStatusOKMax {
		metrics.ObserveNtfyRequestDuration(time.Since(start), "error")
		reason := resp.String()
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
			reason = apiErr.Message
		}
		return apperrors.ErrDelivery.
			WithCause(fmt.Errorf("ntfy returned status %d: %s", resp.StatusCode(), reason)).
			WithDetails(map[string]interface{}{
				"status": resp.StatusCode(),
				"topic":  body.Topic,
			})
	}

	metrics.ObserveNtfyRequestDuration(time.Since(start), "success")
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ping checks the server's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/health")
	if err != nil {
		return fmt.Errorf("ntfy health request failed: %w", err)
	}
	if resp.StatusCode() < constants.HTTPStatusOKMin || resp.StatusCode() >= constants.HTTPStatusOKMax {
		return fmt.Errorf("ntfy health returned status: %d", resp.StatusCode())
	}
	return nil
}
