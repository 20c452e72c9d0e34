package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasrelay/internal/config"
	"nasrelay/internal/logger"
	"nasrelay/internal/relay"
	"nasrelay/pkg/models"
)

type ntfyRecorder struct {
	mu       sync.Mutex
	requests []map[string]interface{}
}

func (r *ntfyRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		r.mu.Lock()
		r.requests = append(r.requests, body)
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func testConfig(ntfyURL string) *config.Config {
	return &config.Config{
		Broker: config.BrokerConfig{Type: "none"},
		Ntfy:   config.NtfyConfig{BaseURL: ntfyURL, Topic: "truenas", Timeout: time.Second},
		Source: config.SourceConfig{BaseURL: "https://nas01.lan"},
	}
}

func TestInitRelay_EndToEnd(t *testing.T) {
	rec := &ntfyRecorder{}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	base := NewBase(testConfig(server.URL), logger.NopLogger())
	require.NoError(t, base.InitRelay())

	result := base.Relay.HandleEvent(context.Background(), models.NewEvent(
		"TrueNAS @ nas01<br><br>New alerts:\n* Pool tank state is DEGRADED\n\nCurrent alerts:\n* Pool tank state is DEGRADED\n",
		"",
	))

	assert.Equal(t, relay.Result{Records: 2, Sent: 1, Invalid: 1, ErrorNotifications: 1}, result)
	require.Len(t, rec.requests, 2)

	alert := rec.requests[0]
	assert.Equal(t, "truenas", alert["topic"])
	assert.Equal(t, "nas01", alert["title"])
	assert.Equal(t, "Pool tank state is DEGRADED", alert["message"])
	assert.Equal(t, float64(3), alert["priority"])
	assert.Equal(t, []interface{}{"mailbox_with_mail"}, alert["tags"])
	assert.Equal(t, []interface{}{map[string]interface{}{
		"action": "view",
		"label":  "Open nas01",
		"url":    "https://nas01.lan",
	}}, alert["actions"])

	errNotification := rec.requests[1]
	assert.Equal(t, "nasrelay", errNotification["title"])
	assert.Equal(t, "nasrelay: incorrect event's message.", errNotification["message"])
	assert.Equal(t, []interface{}{"red_circle"}, errNotification["tags"])
	assert.NotContains(t, errNotification, "actions")
}

func TestInitRelay_WithFilterAndCircuitBreaker(t *testing.T) {
	rec := &ntfyRecorder{}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Filter.Expression = `title != "lab"`
	cfg.CircuitBreaker = config.CircuitBreakerConfig{Enabled: true, FailureRatio: 0.6, MinRequests: 5}

	base := NewBase(cfg, logger.NopLogger())
	require.NoError(t, base.InitRelay())

	result := base.Relay.HandleEvent(context.Background(), models.NewEvent(
		"TrueNAS @ lab<br><br>Scrub finished",
		"TrueNAS @ nas01<br><br>Scrub finished",
	))

	assert.Equal(t, 1, result.Filtered)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, "nas01", rec.requests[0]["title"])
}

func TestInitRelay_BadFilter(t *testing.T) {
	cfg := testConfig("https://ntfy.sh")
	cfg.Filter.Expression = `title +`

	assert.Error(t, NewBase(cfg, logger.NopLogger()).InitRelay())
}

func TestInitConsumer_Disabled(t *testing.T) {
	base := NewBase(testConfig("https://ntfy.sh"), logger.NopLogger())
	require.NoError(t, base.InitConsumer("relay-service"))
	assert.Nil(t, base.Consumer)
	assert.NoError(t, base.Shutdown(context.Background(), nil))
}
