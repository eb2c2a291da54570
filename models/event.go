package models

import (
	"errors"
	"time"
)

type EventType string

const (
	EventPageview  EventType = "pageview"
	EventScriptRun EventType = "script_run"
	EventWidget    EventType = "widget"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingWidget    = errors.New("widget event without widget id")
	ErrNegativeDuration = errors.New("negative script run duration")
)

// Event is one tracking signal sent by an instrumented app.
type Event struct {
	Type            EventType `json:"type"`
	Widget          string    `json:"widget,omitempty"`
	Value           string    `json:"value,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Validate checks the fields the tracker relies on.
func (e Event) Validate() error {
	switch e.Type {
	case EventPageview:
	case EventScriptRun:
		if e.DurationSeconds < 0 {
			return ErrNegativeDuration
		}
	case EventWidget:
		if e.Widget == "" {
			return ErrMissingWidget
		}
	default:
		return ErrUnknownEventType
	}
	return nil
}

// Key identifies the counter an event feeds, used when summarising batches.
func (e Event) Key() string {
	if e.Type == EventWidget {
		return string(e.Type) + ":" + e.Widget
	}
	return string(e.Type)
}
