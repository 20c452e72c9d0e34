package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Priority
		wantLevel int
		wantError bool
	}{
		{name: "default", input: "default", want: PriorityDefault, wantLevel: 3},
		{name: "mixed case with spaces", input: "  HIGH ", want: PriorityHigh, wantLevel: 4},
		{name: "min", input: "min", want: PriorityMin, wantLevel: 1},
		{name: "unknown", input: "urgent", wantError: true},
		{name: "empty", input: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePriority(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			level, ok := p.Level()
			assert.True(t, ok)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestNotificationBuilder(t *testing.T) {
	n := NewNotificationBuilder().
		WithTitle("nas01").
		WithMessage("Pool tank is DEGRADED").
		WithTag("mailbox_with_mail").
		WithTag("mailbox_with_mail").
		WithViewAction("Open nas01", "https://nas01.lan").
		Build()

	assert.Equal(t, PriorityDefault, n.Priority)
	assert.Equal(t, []string{"mailbox_with_mail"}, n.Tags)
	require.Len(t, n.Actions, 1)
	assert.Equal(t, ActionView, n.Actions[0].Action)
	assert.Equal(t, "Open nas01", n.Actions[0].Label)
	assert.NoError(t, ValidateNotification(n))
}

func TestValidateNotification(t *testing.T) {
	tests := []struct {
		name      string
		n         *Notification
		wantField string
	}{
		{name: "nil", n: nil, wantField: "notification"},
		{name: "empty message", n: &Notification{Priority: PriorityDefault}, wantField: "message"},
		{name: "bad priority", n: &Notification{Message: "x", Priority: "loud"}, wantField: "priority"},
		{
			name: "action without label",
			n: &Notification{Message: "x", Priority: PriorityDefault, Actions: []Action{
				{Action: ActionView, URL: "https://nas.lan"},
			}},
			wantField: "actions[0].label",
		},
		{
			name: "action with relative url",
			n: &Notification{Message: "x", Priority: PriorityDefault, Actions: []Action{
				{Action: ActionView, Label: "Open", URL: "nas.lan"},
			}},
			wantField: "actions[0].url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotification(tt.n)
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent("first", "second")
	require.Len(t, event.Records, 2)
	assert.Equal(t, "first", event.Records[0].SNS.Message)
	assert.Equal(t, "second", event.Records[1].SNS.Message)
	assert.False(t, IsEmptyEvent(event))
	assert.True(t, IsEmptyEvent(nil))
	assert.True(t, IsEmptyEvent(NewEvent()))
}
