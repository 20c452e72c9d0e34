package models

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateNotification(n *Notification) error {
	if n == nil {
		return &ValidationError{
			Field:   "notification",
			Message: "notification cannot be nil",
		}
	}

	if n.Message == "" {
		return &ValidationError{
			Field:   "message",
			Message: "notification message is required",
		}
	}

	if _, ok := n.Priority.Level(); !ok {
		return &ValidationError{
			Field:   "priority",
			Message: fmt.Sprintf("unknown priority %q", n.Priority),
		}
	}

	for i, action := range n.Actions {
		if action.Label == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("actions[%d].label", i),
				Message: "action label is required",
			}
		}
		if _, err := url.ParseRequestURI(action.URL); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("actions[%d].url", i),
				Message: fmt.Sprintf("action url is invalid: %v", err),
			}
		}
	}

	return nil
}
