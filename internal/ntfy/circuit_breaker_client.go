package ntfy

import (
	"context"
	"fmt"

	"nasrelay/pkg/circuitbreaker"
	apperrors "nasrelay/pkg/errors"
	"nasrelay/pkg/models"
)

// CircuitBreakerClient fails fast while the ntfy server keeps failing.
// It never retries.
type CircuitBreakerClient struct {
	next Publisher
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerClient(next Publisher, cfg circuitbreaker.Config) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		next: next,
		cb:   circuitbreaker.NewWrapper(cfg),
	}
}

func (c *CircuitBreakerClient) Publish(ctx context.Context, topic string, n *models.Notification) error {
	_, err := c.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, c.next.Publish(ctx, topic, n)
	})
	if err == nil {
		return nil
	}

	if c.cb.IsOpen() && !apperrors.IsDelivery(err) && !apperrors.IsTimeout(err) {
		return apperrors.ErrServiceUnavailable.WithCause(
			fmt.Errorf("circuit breaker is open for %s: %w", c.cb.Name(), err))
	}
	return err
}

func (c *CircuitBreakerClient) State() string {
	return c.cb.State().String()
}

func (c *CircuitBreakerClient) IsOpen() bool {
	return c.cb.IsOpen()
}
