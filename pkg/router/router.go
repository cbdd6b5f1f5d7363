// Package router implements the Event Router: the process-wide registry
// that wires named components together. It owns one inbox per
// non-collector component and enforces which component kinds may send and
// receive.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/event"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/metrics"
)

// Sentinel errors returned by Router operations, matching the taxonomy of
// the spec's Router error domain.
var (
	ErrWrongComponentKind = errors.New("wrong component kind")
	ErrInternal           = errors.New("internal router error")
)

// ErrNoSuchComponent reports that a send or poll targeted an id that was
// never registered.
type ErrNoSuchComponent struct {
	ID string
}

func (e *ErrNoSuchComponent) Error() string {
	return fmt.Sprintf("no such component %q", e.ID)
}

// record is the registry entry for one component id. Collectors have no
// inbox; transformers and dispatchers each own exactly one.
type record struct {
	kind  component.Kind
	inbox *inbox // nil for collectors
}

// Router owns the registry and the inboxes it allocates. It is built once
// during setup and then shared by reference across every component's
// goroutine; the registry is effectively frozen once Run is called on any
// component (see Register).
type Router struct {
	mu       sync.RWMutex
	registry map[string]*record
	logger   zerolog.Logger
}

// New creates an empty Router.
func New() *Router {
	return &Router{
		registry: make(map[string]*record),
		logger:   log.WithComponent("router"),
	}
}

// Register inserts a record for component, allocating an inbox for
// transformers and dispatchers. A duplicate id is a silent no-op (besides
// a logged error): first registration wins. Register must only be called
// during the pre-run setup phase; the registry is read-only once any
// component's Run has started.
func (r *Router) Register(id string, kind component.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registry[id]; exists {
		r.logger.Error().Str("component_id", id).Msg("component already registered")
		return
	}

	rec := &record{kind: kind}
	if kind != component.KindCollector {
		rec.inbox = newInbox()
	}
	r.registry[id] = rec
}

// SendEvent delivers e to the component registered as targetID. It returns
// as soon as the inbox accepts the event; because inboxes are unbounded
// this never blocks on capacity, though it may suspend briefly acquiring
// the inbox lock.
func (r *Router) SendEvent(ctx context.Context, e event.Event, targetID string) error {
	rec, err := r.lookup(targetID)
	if err != nil {
		return err
	}
	if rec.kind == component.KindCollector {
		r.logger.Error().Str("component_id", targetID).Msg("cannot send an event to a collector")
		return ErrWrongComponentKind
	}
	rec.inbox.send(e)
	metrics.EventsRouted.WithLabelValues(targetID).Inc()
	return nil
}

// PollEvent suspends until an event arrives for selfID, ctx is canceled,
// or the inbox is closed with nothing pending (the terminal shutdown
// condition, reported as ErrInternal).
func (r *Router) PollEvent(ctx context.Context, selfID string) (event.Event, error) {
	rec, err := r.lookup(selfID)
	if err != nil {
		return event.Event{}, err
	}
	if rec.kind == component.KindCollector {
		r.logger.Error().Str("component_id", selfID).Msg("collector cannot poll for events")
		return event.Event{}, ErrWrongComponentKind
	}
	e, ok := rec.inbox.recv(ctx)
	if !ok {
		if ctx.Err() != nil {
			return event.Event{}, ctx.Err()
		}
		return event.Event{}, ErrInternal
	}
	return e, nil
}

// Close closes the inbox belonging to id, if any. A component's owner
// calls this after the component's Run loop exits. Once the inbox is
// closed and drained, PollEvent on id returns ErrInternal (the terminal
// shutdown condition). SendEvent does not check the closed state: a send
// to a closed inbox still enqueues and returns nil.
func (r *Router) Close(id string) {
	r.mu.RLock()
	rec, ok := r.registry[id]
	r.mu.RUnlock()
	if ok && rec.inbox != nil {
		rec.inbox.close()
	}
}

func (r *Router) lookup(id string) (*record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.registry[id]
	if !ok {
		return nil, &ErrNoSuchComponent{ID: id}
	}
	return rec, nil
}
