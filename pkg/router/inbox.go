package router

import (
	"context"
	"sync"

	"github.com/wlf-engine/wlf/pkg/event"
)

// inbox is an unbounded multi-producer, single-consumer FIFO queue. Unlike
// a buffered Go channel, it never blocks a sender: send appends to a slice
// and signals a waiting receiver. This mirrors the Rust source's
// flume::unbounded() channel, which the spec calls out as a deliberate
// simplification (there is no backpressure: the queue grows without limit
// while its consumer falls behind).
type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []event.Event
	closed bool
}

func newInbox() *inbox {
	ib := &inbox{}
	ib.cond = sync.NewCond(&ib.mu)
	return ib
}

// send enqueues an event and wakes one waiting receiver. It never blocks.
func (ib *inbox) send(e event.Event) {
	ib.mu.Lock()
	ib.queue = append(ib.queue, e)
	ib.mu.Unlock()
	ib.cond.Signal()
}

// recv blocks until an event is available, the inbox is closed, or ctx is
// canceled. ok is false when the inbox was closed with nothing pending
// (the terminal shutdown condition) or ctx was canceled.
func (ib *inbox) recv(ctx context.Context) (e event.Event, ok bool) {
	// Wake blocked waiters if ctx is canceled; cond.Wait has no native
	// context support.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// Holding the lock guarantees the receiver is either before
			// its ctx check or inside Wait, so the wakeup is not lost.
			ib.mu.Lock()
			ib.cond.Broadcast()
			ib.mu.Unlock()
		case <-done:
		}
	}()

	ib.mu.Lock()
	defer ib.mu.Unlock()
	for len(ib.queue) == 0 && !ib.closed {
		if ctx.Err() != nil {
			return event.Event{}, false
		}
		ib.cond.Wait()
	}
	if len(ib.queue) == 0 {
		return event.Event{}, false
	}
	e = ib.queue[0]
	ib.queue = ib.queue[1:]
	return e, true
}

// close marks the inbox closed and wakes any waiting receiver; a receiver
// that observes an empty, closed inbox gets the terminal shutdown signal.
func (ib *inbox) close() {
	ib.mu.Lock()
	ib.closed = true
	ib.mu.Unlock()
	ib.cond.Broadcast()
}
