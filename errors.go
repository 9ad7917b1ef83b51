package quill

import "github.com/hyp3rd/ewrap"

// Sentinel error kinds. Every constructed error wraps one of these with
// ewrap so callers can use errors.Is while still getting structured
// metadata out of ewrap.
var (
	// ErrInvalidArgument marks a caller-supplied argument that violates a
	// documented precondition (bad alignment, non-power-of-two capacity, ...).
	ErrInvalidArgument = ewrap.New("quill: invalid argument")
	// ErrOsFailure marks a failure from the OS abstraction layer (mmap,
	// affinity, thread naming) that isn't a best-effort no-op on this platform.
	ErrOsFailure = ewrap.New("quill: os failure")
	// ErrOutOfMemory marks an allocator failure while constructing a mirrored
	// region or a thread context.
	ErrOutOfMemory = ewrap.New("quill: out of memory")
	// ErrQueueFull marks a try_prepare that found no room under
	// full_queue_policy=drop_and_count.
	ErrQueueFull = ewrap.New("quill: queue full")
	// ErrHandlerFailed marks a record handler (dispatch hook or sink) that
	// returned an error while processing a record. The backend reports it via
	// on_error and continues; the offending record is still consumed.
	ErrHandlerFailed = ewrap.New("quill: handler failed")
)

// ErrorInfo is the structured failure value passed to an on_error handler.
type ErrorInfo struct {
	// Err is the underlying error, wrapping one of the sentinel kinds above.
	Err error
	// Tag identifies which record type the failure occurred on, when known.
	Tag uint16
	// ProducerID identifies the producer context involved, when known.
	ProducerID uint64
}

// ErrorHandler is invoked by the backend when a record handler fails. It
// must not block.
type ErrorHandler func(ErrorInfo)
