package quill

// DropPayload represents a log payload that was dropped by the asynchronous writer.
// Handlers can inspect the payload, copy it, or retain ownership of the underlying
// buffer by calling Retain. When Retain is used, the returned PayloadLease must be
// released once the handler finishes processing to allow buffer reuse.
type DropPayload interface {
	// Bytes returns a read-only view of the dropped payload.
	Bytes() []byte
	// Size reports the number of bytes contained in the payload.
	Size() int
	// AppendTo appends the payload bytes to the provided destination slice and returns it.
	AppendTo(dst []byte) []byte
	// Retain acquires a lease over the underlying buffer. The returned lease's Release
	// method must be called once the handler no longer needs the payload so the buffer
	// can be reclaimed. Calling Retain more than once returns a no-op lease.
	Retain() PayloadLease
}

// PayloadLease represents ownership of a dropped payload buffer. Call Release when
// finished with the buffer to allow it to be recycled. Release is idempotent.
type PayloadLease interface {
	Bytes() []byte
	Release()
}

// DropPayloadHandler receives advanced drop notifications with ownership semantics.
// Handlers can retain dropped payloads without incurring additional allocations.
type DropPayloadHandler func(DropPayload)

// copyDropPayload is the concrete DropPayload a Logger hands to the drop
// handler under full_queue_policy=drop_and_count. It owns its own copy of the
// bytes (the producer's original slice is about to be reused), so Retain
// just hands back the same backing array rather than allocating again.
type copyDropPayload struct {
	buf []byte
}

func newCopyDropPayload(payload []byte) *copyDropPayload {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	return &copyDropPayload{buf: buf}
}

// Bytes implements DropPayload.
func (p *copyDropPayload) Bytes() []byte { return p.buf }

// Size implements DropPayload.
func (p *copyDropPayload) Size() int { return len(p.buf) }

// AppendTo implements DropPayload.
func (p *copyDropPayload) AppendTo(dst []byte) []byte { return append(dst, p.buf...) }

// Retain implements DropPayload. Since copyDropPayload already owns its
// buffer outright, the lease is just a thin wrapper with a no-op Release.
func (p *copyDropPayload) Retain() PayloadLease {
	return dropPayloadLease{buf: p.buf}
}

type dropPayloadLease struct {
	buf []byte
}

// Bytes implements PayloadLease.
func (l dropPayloadLease) Bytes() []byte { return l.buf }

// Release implements PayloadLease.
func (dropPayloadLease) Release() {}
