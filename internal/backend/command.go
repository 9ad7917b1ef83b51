package backend

import "sync"

// CommandTable hands out opaque handles for command-record callbacks. A
// command record's payload carries only an 8-byte handle (records are plain
// bytes; a Go closure cannot be placed inline into the mirrored buffer the
// way the original's std::function could), and the backend looks the
// callback up here when it consumes the record.
type CommandTable struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]func()
}

// NewCommandTable creates an empty table.
func NewCommandTable() *CommandTable {
	return &CommandTable{pending: make(map[uint64]func())}
}

// Register stores fn and returns the handle to encode into a command record.
func (t *CommandTable) Register(fn func()) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	handle := t.nextID
	t.pending[handle] = fn

	return handle
}

// Invoke runs and removes the callback registered under handle, if any.
func (t *CommandTable) Invoke(handle uint64) {
	t.mu.Lock()
	fn, ok := t.pending[handle]
	if ok {
		delete(t.pending, handle)
	}
	t.mu.Unlock()

	if ok {
		fn()
	}
}

// Pending reports how many callbacks are still awaiting their record being
// drained; used by tests and diagnostics, never on the hot path.
func (t *CommandTable) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pending)
}
