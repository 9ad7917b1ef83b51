package transport

import (
	"sync"
	"sync/atomic"
)

// Collection is the process-wide registry of producer Contexts. Producers
// publish new contexts through a mutex-guarded pending list; the backend
// merges that list into its own unguarded working slice via Snapshot, so the
// hot dispatch loop never takes a lock.
type Collection struct {
	nextID atomic.Uint64

	mu      sync.Mutex
	pending []*Context

	// hasNew is a cheap hint so Snapshot can skip locking when nothing has
	// been published since the last call.
	hasNew atomic.Bool

	// working is the backend's own view, touched only by the backend goroutine.
	working []*Context
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// LocalContext allocates a new Context and publishes it for the backend to
// discover on its next Snapshot. Despite the name (kept for parity with the
// literal local_context() contract), Go callers normally obtain one via
// Logger.NewProducer or Logger.LocalContext rather than calling this
// directly.
func (c *Collection) LocalContext(capacityBytes int) (*Context, error) {
	id := c.nextID.Add(1)

	ctx, err := NewContext(id, capacityBytes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pending = append(c.pending, ctx)
	c.mu.Unlock()

	c.hasNew.Store(true)

	return ctx, nil
}

// Snapshot merges any pending contexts into the backend's working slice and
// returns that slice. Backend-only: the returned slice aliases internal
// state and must not be retained past the current sweep.
func (c *Collection) Snapshot() []*Context {
	if c.hasNew.CompareAndSwap(true, false) {
		c.mu.Lock()
		c.working = append(c.working, c.pending...)
		c.pending = c.pending[:0]
		c.mu.Unlock()
	}

	return c.working
}

// Reclaim removes every context that is detached and fully drained, closing
// its queue. Backend-only. Returns the number of contexts reclaimed.
func (c *Collection) Reclaim() int {
	kept := c.working[:0]
	reclaimed := 0

	for _, ctx := range c.working {
		if ctx.Reclaimable() {
			ctx.Close() //nolint:errcheck // reclaim is best-effort; a failed unmap leaks memory, not correctness
			reclaimed++

			continue
		}

		kept = append(kept, ctx)
	}

	c.working = kept

	return reclaimed
}

// Len reports how many contexts are currently known to the backend.
func (c *Collection) Len() int {
	return len(c.working)
}
