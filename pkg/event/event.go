// Package event defines the Event envelope that flows between components
// through the router.
package event

import "github.com/wlf-engine/wlf/pkg/value"

// Meta is reserved for internal tracing fields. It is currently empty; a
// sequence number for cross-fan-out ordering is the field contemplated for
// it, but nothing in this repository populates it.
type Meta struct{}

// Event is the immutable record handed between components. Once an Event
// is sent to the router, the sender must not mutate it further; a
// transformer that fans an event out to more than one destination clones
// it for each destination via Clone.
type Event struct {
	Value value.Value
	Meta  Meta
}

// Clone performs a deep copy, used by transformers that send the same
// logical event to more than one destination.
func (e Event) Clone() Event {
	return Event{Value: e.Value.Clone(), Meta: e.Meta}
}
