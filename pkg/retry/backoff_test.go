package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff_AppliesDefaults(t *testing.T) {
	b := ExponentialBackoff(Policy{})
	exp, ok := b.(*backoff.ExponentialBackOff)
	require.True(t, ok)

	assert.Equal(t, time.Second, exp.InitialInterval)
	assert.Equal(t, 30*time.Second, exp.MaxInterval)
	assert.Equal(t, 2.0, exp.Multiplier)
	assert.Equal(t, time.Duration(0), exp.MaxElapsedTime)
}

func TestExponentialBackoff_NeverStops(t *testing.T) {
	b := ExponentialBackoff(Policy{InitialInterval: time.Millisecond, MaxInterval: 4 * time.Millisecond, Multiplier: 2})
	for i := 0; i < 50; i++ {
		next := b.NextBackOff()
		require.NotEqual(t, backoff.Stop, next)
		// randomization may push an interval up to 1.5x the cap
		assert.LessOrEqual(t, next, 6*time.Millisecond)
	}
}

func TestWait(t *testing.T) {
	b := ExponentialBackoff(Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1})
	assert.NoError(t, Wait(context.Background(), b))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := ExponentialBackoff(Policy{InitialInterval: time.Hour, MaxInterval: time.Hour, Multiplier: 1})
	assert.ErrorIs(t, Wait(ctx, slow), context.Canceled)
}
