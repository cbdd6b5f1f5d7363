// Package component defines the three component kinds and the uniform
// interface the router and the pipeline bootstrap use to drive them,
// replacing the source's dynamic trait-object dispatch with a tagged kind
// plus a common Run method.
package component

import (
	"context"

	"github.com/wlf-engine/wlf/pkg/event"
)

// Router is the subset of *router.Router every component needs to run:
// send an event on, and poll its own inbox from. Declaring it here rather
// than importing pkg/router directly keeps the dependency direction
// leaf-first (pkg/router depends on pkg/component for Kind, not the other
// way around); *router.Router satisfies this interface without either
// package referencing the other.
type Router interface {
	SendEvent(ctx context.Context, e event.Event, targetID string) error
	PollEvent(ctx context.Context, selfID string) (event.Event, error)
}

// Kind discriminates what a component is allowed to do with the router:
// only send (Collector), both (Transformer), or only receive (Dispatcher).
type Kind int

const (
	KindCollector Kind = iota
	KindTransformer
	KindDispatcher
)

func (k Kind) String() string {
	switch k {
	case KindCollector:
		return "collector"
	case KindTransformer:
		return "transformer"
	case KindDispatcher:
		return "dispatcher"
	default:
		return "unknown"
	}
}

// Component is implemented by every collector, transformer, and
// dispatcher. Run is expected to loop until its input stream ends (a
// collector's replication connection, a transformer/dispatcher's inbox
// closing) or an unrecoverable infrastructure error occurs.
type Component interface {
	ID() string
	Kind() Kind
	Run(ctx context.Context, r Router) error
}
