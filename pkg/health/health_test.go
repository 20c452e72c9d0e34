package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticChecker struct {
	name string
	err  error
}

func (c staticChecker) Name() string                { return c.name }
func (c staticChecker) Check(context.Context) error { return c.err }

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckerRegistry(t *testing.T) {
	tests := []struct {
		name     string
		required error
		optional error
		want     Status
	}{
		{name: "all healthy", want: StatusHealthy},
		{name: "optional failing", optional: errors.New("down"), want: StatusDegraded},
		{name: "required failing", required: errors.New("down"), want: StatusUnhealthy},
		{name: "both failing", required: errors.New("down"), optional: errors.New("down"), want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewCheckerRegistry()
			registry.Register(staticChecker{name: "ntfy", err: tt.required})
			registry.RegisterOptional(staticChecker{name: "kafka", err: tt.optional})

			h := registry.Check(context.Background())
			assert.Equal(t, tt.want, h.Status)
			assert.Len(t, h.Checks, 2)
		})
	}
}

func TestNtfyChecker(t *testing.T) {
	ok := NewNtfyChecker(pingerFunc(func(context.Context) error { return nil }))
	assert.Equal(t, "ntfy", ok.Name())
	assert.NoError(t, ok.Check(context.Background()))

	failing := NewNtfyChecker(pingerFunc(func(context.Context) error { return errors.New("refused") }))
	assert.ErrorContains(t, failing.Check(context.Background()), "refused")
}

func TestKafkaChecker_NoBrokers(t *testing.T) {
	err := NewKafkaChecker(nil).Check(context.Background())
	assert.ErrorContains(t, err, "no kafka brokers")
}

func TestKafkaChecker_Unreachable(t *testing.T) {
	err := NewKafkaChecker([]string{"127.0.0.1:1"}).Check(context.Background())
	assert.Error(t, err)
}
