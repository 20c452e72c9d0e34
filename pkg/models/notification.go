package models

import (
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityMin     Priority = "min"
	PriorityLow     Priority = "low"
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
	PriorityMax     Priority = "max"
)

var priorityLevels = map[Priority]int{
	PriorityMin:     1,
	PriorityLow:     2,
	PriorityDefault: 3,
	PriorityHigh:    4,
	PriorityMax:     5,
}

// Level returns the numeric ntfy priority (1..5).
func (p Priority) Level() (int, bool) {
	level, ok := priorityLevels[p]
	return level, ok
}

func (p Priority) String() string {
	return string(p)
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := priorityLevels[p]; !ok {
		return "", fmt.Errorf("unknown priority: %q", s)
	}
	return p, nil
}

const ActionView = "view"

type Action struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	URL    string `json:"url"`
}

type Notification struct {
	Topic    string   `json:"topic,omitempty"`
	Title    string   `json:"title,omitempty"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

func (n *Notification) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag unless it is already present.
func (n *Notification) AddTag(tag string) {
	if tag == "" || n.HasTag(tag) {
		return
	}
	n.Tags = append(n.Tags, tag)
}
