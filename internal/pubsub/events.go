// Package pubsub provides a generic publish/subscribe event system used to
// carry host invalidation events from background goroutines (file and config
// watchers) into the single goroutine that computes decorations.
package pubsub

import "time"

// EventType classifies a published event.
type EventType string

const (
	// ChangedEvent signals that a watched resource changed.
	ChangedEvent EventType = "changed"
	// CommandEvent signals that a user command was invoked.
	CommandEvent EventType = "command"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
