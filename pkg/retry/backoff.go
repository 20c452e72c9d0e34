// Package retry paces polling loops that hit transient transport errors.
// Notification delivery is never retried; only the Kafka fetch loop uses it.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// ExponentialBackoff never gives up on its own; callers stop it through ctx.
func ExponentialBackoff(policy Policy) backoff.BackOff {
	defaults := DefaultPolicy()
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = defaults.InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = defaults.MaxInterval
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = defaults.Multiplier
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.Multiplier = policy.Multiplier
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

// Wait sleeps for the next backoff interval. It returns ctx.Err() when the
// context ends first.
func Wait(ctx context.Context, b backoff.BackOff) error {
	delay := b.NextBackOff()
	if delay == backoff.Stop {
		delay = 0
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
