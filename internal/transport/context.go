// Package transport implements the producer-side thread context and the
// process-wide collection the backend sweeps: the safe-publication handoff
// between producer goroutines creating queues and the single backend
// goroutine discovering and draining them.
package transport

import (
	"sync/atomic"

	"github.com/hal177/quill/internal/ring"
)

// Context pairs one producer's SPSC queue with the bookkeeping the backend
// needs to know when it's safe to reclaim: whether the owning producer has
// detached, and the sequence number it was published under.
type Context struct {
	id uint64

	queue *ring.SpscQueue

	// detached is set once the owning producer will never enqueue again
	// (Close() or the finalizer safety net). The backend only reclaims a
	// context once detached is true AND its queue is fully drained.
	detached atomic.Bool
}

// NewContext allocates a queue of capacityBytes and wraps it in a Context
// identified by id.
func NewContext(id uint64, capacityBytes int) (*Context, error) {
	queue, err := ring.NewSpscQueue(capacityBytes)
	if err != nil {
		return nil, err
	}

	return &Context{id: id, queue: queue}, nil
}

// ID returns the context's stable identity, assigned at creation.
func (c *Context) ID() uint64 {
	return c.id
}

// Queue returns the context's SPSC queue.
func (c *Context) Queue() *ring.SpscQueue {
	return c.queue
}

// Detach marks the context as having no further producer activity. Safe to
// call more than once; only the first call has any effect.
func (c *Context) Detach() {
	c.detached.Store(true)
}

// IsDetached reports whether Detach has been called.
func (c *Context) IsDetached() bool {
	return c.detached.Load()
}

// Reclaimable reports whether the backend may free this context: it has been
// detached and every committed byte has been consumed.
func (c *Context) Reclaimable() bool {
	return c.IsDetached() && c.queue.Used() == 0
}

// Close releases the context's queue. Only the backend, after Reclaimable
// reports true, should call this.
func (c *Context) Close() error {
	return c.queue.Close()
}
