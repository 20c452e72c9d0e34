package ntfy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasrelay/pkg/circuitbreaker"
	apperrors "nasrelay/pkg/errors"
	"nasrelay/pkg/models"
)

func testNotification() *models.Notification {
	return models.NewNotificationBuilder().
		WithTitle("nas01").
		WithMessage("Disk failing").
		WithTag("mailbox_with_mail").
		WithViewAction("Open nas01", "https://nas01.lan").
		Build()
}

func TestClient_Publish(t *testing.T) {
	var got map[string]interface{}
	var path, contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"abc","event":"message"}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Timeout: time.Second})
	err := client.Publish(context.Background(), "truenas", testNotification())
	require.NoError(t, err)

	assert.Equal(t, "/", path)
	assert.Contains(t, contentType, "application/json")
	assert.Equal(t, "truenas", got["topic"])
	assert.Equal(t, "nas01", got["title"])
	assert.Equal(t, "Disk failing", got["message"])
	assert.Equal(t, float64(3), got["priority"])
	assert.Equal(t, []interface{}{"mailbox_with_mail"}, got["tags"])

	actions, ok := got["actions"].([]interface{})
	require.True(t, ok)
	require.Len(t, actions, 1)
	assert.Equal(t, map[string]interface{}{
		"action": "view",
		"label":  "Open nas01",
		"url":    "https://nas01.lan",
	}, actions[0])
}

func TestNewPublishRequest_PriorityLevels(t *testing.T) {
	tests := []struct {
		priority models.Priority
		want     int
	}{
		{models.PriorityMin, 1},
		{models.PriorityLow, 2},
		{models.PriorityDefault, 3},
		{models.PriorityHigh, 4},
		{models.PriorityMax, 5},
	}

	for _, tt := range tests {
		t.Run(tt.priority.String(), func(t *testing.T) {
			n := testNotification()
			n.Priority = tt.priority

			req, err := newPublishRequest("truenas", n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Priority)

			parsed, err := models.ParsePriority(tt.priority.String())
			require.NoError(t, err)
			assert.Equal(t, tt.priority, parsed)
		})
	}
}

func TestNewPublishRequest_TopicFallback(t *testing.T) {
	n := testNotification()
	n.Topic = "from-notification"

	req, err := newPublishRequest("", n)
	require.NoError(t, err)
	assert.Equal(t, "from-notification", req.Topic)

	n.Topic = ""
	_, err = newPublishRequest("", n)
	assert.Error(t, err)
}

func TestClient_PublishNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":42901,"http":429,"error":"limit reached: too many requests"}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	err := client.Publish(context.Background(), "truenas", testNotification())
	require.Error(t, err)
	assert.True(t, apperrors.IsDelivery(err))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "limit reached")

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Details["status"])
	assert.Equal(t, "truenas", appErr.Details["topic"])
}

func TestClient_PublishTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Options{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	err := client.Publish(context.Background(), "truenas", testNotification())
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
	assert.False(t, apperrors.IsDelivery(err))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "truenas", appErr.Details["topic"])
	assert.Equal(t, "50ms", appErr.Details["timeout"])
}

func TestClient_PublishInvalidNotification(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	err := client.Publish(context.Background(), "truenas", &models.Notification{Priority: models.PriorityDefault})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/health" {
			_, _ = w.Write([]byte(`{"healthy":true}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, NewClient(Options{BaseURL: server.URL}).Ping(context.Background()))

	server.Close()
	assert.Error(t, NewClient(Options{BaseURL: server.URL, Timeout: 200 * time.Millisecond}).Ping(context.Background()))
}

func TestCircuitBreakerClient_FailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := circuitbreaker.DefaultConfig("ntfy-test-fail-fast")
	client := NewCircuitBreakerClient(NewClient(Options{BaseURL: server.URL}), cfg)

	for i := 0; i < 3; i++ {
		err := client.Publish(context.Background(), "truenas", testNotification())
		require.Error(t, err)
		assert.True(t, apperrors.IsDelivery(err))
	}
	assert.True(t, client.IsOpen())

	err := client.Publish(context.Background(), "truenas", testNotification())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
