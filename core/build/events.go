package build

import (
	"pcbuild/core/types"
)

// EventType identifies a session transition
type EventType string

const (
	EventSelected  EventType = "selected"
	EventReset     EventType = "reset"
	EventAdvanced  EventType = "advanced"
	EventRetreated EventType = "retreated"
)

// Event is emitted after a transition has been applied. EventAdvanced with
// Auto set is the select-then-advance convenience; a UI may delay showing
// the next step, the state has already moved.
type Event struct {
	Type     EventType      `json:"type"`
	Category types.Category `json:"category,omitempty"`
	From     int            `json:"from"`
	To       int            `json:"to"`
	Auto     bool           `json:"auto,omitempty"`
}

// Observer receives session events. Observers run synchronously after the
// session lock is released and may call back into the session.
type Observer func(Event)
