// Package ring implements the per-producer SPSC transport: a mirrored
// (double-mapped) byte ring plus the wait-free cursor protocol a single
// producer and a single backend consumer use to hand off records without
// locking.
package ring

import (
	"sync/atomic"

	"github.com/hyp3rd/ewrap"
)

// cacheLinePad is sized to push neighbouring fields onto separate cache
// lines so the producer's and consumer's hot cursors never false-share.
type cacheLinePad [64]byte

// SpscQueue is a single-producer/single-consumer byte queue backed by a
// MirroredRegion. Capacity must be a power of two; indices are taken modulo
// capacity, and because the region is double-mapped, any contiguous slice of
// up to capacity bytes starting at any index is valid even across the
// physical wrap point.
type SpscQueue struct {
	region *MirroredRegion

	capacity uint64
	mask     uint64

	_ cacheLinePad

	// head is the producer-owned, consumer-read cursor: bytes committed and
	// visible to the consumer. Advanced by commit.
	head atomic.Uint64

	_ cacheLinePad

	// tail is the consumer-owned, producer-read cursor: bytes already
	// consumed and free for reuse. Advanced by Consume.
	tail atomic.Uint64

	_ cacheLinePad

	// reserved tracks bytes handed out by TryPrepare but not yet committed.
	// Only the producer touches this; it never needs to be atomic.
	reserved uint64
}

// NewSpscQueue allocates a mirrored region of capacityBytes and wraps it in
// an SpscQueue. capacityBytes must be a power of two.
func NewSpscQueue(capacityBytes int) (*SpscQueue, error) {
	if capacityBytes <= 0 || capacityBytes&(capacityBytes-1) != 0 {
		return nil, ErrInvalidArgument.WithMetadata("capacity_bytes", capacityBytes)
	}

	region, err := NewMirroredRegion(capacityBytes)
	if err != nil {
		return nil, err
	}

	return &SpscQueue{
		region:   region,
		capacity: uint64(capacityBytes), //nolint:gosec // validated positive above
		mask:     uint64(capacityBytes - 1),
	}, nil
}

// Capacity returns the queue's total byte capacity.
func (q *SpscQueue) Capacity() int {
	return int(q.capacity) //nolint:gosec // capacity was constructed from an int
}

// Used returns the number of committed-but-not-yet-consumed bytes. Safe to
// call from either side; the value may be stale by the time it's read.
func (q *SpscQueue) Used() int {
	return int(q.head.Load() - q.tail.Load()) //nolint:gosec // bounded by capacity
}

// TryPrepare reserves n contiguous bytes for the producer to write into and
// returns a slice aliasing the mirrored region. The producer must call
// Commit(n) after writing, and must not call TryPrepare again before doing
// so. Returns ok=false if there is not enough free space right now; the
// caller (never the fast path itself) decides whether to retry or drop per
// the configured full-queue policy.
func (q *SpscQueue) TryPrepare(n int) ([]byte, bool) {
	if n <= 0 || uint64(n) > q.capacity { //nolint:gosec // n is caller-controlled but bounded by capacity check
		return nil, false
	}

	used := q.head.Load() - q.tail.Load()
	free := q.capacity - used

	if free < uint64(n) { //nolint:gosec // n > 0 checked above
		return nil, false
	}

	offset := q.head.Load() & q.mask
	q.reserved = uint64(n) //nolint:gosec // n > 0 checked above

	return q.region.Slice(int(offset), n), true //nolint:gosec // offset < capacity
}

// Commit publishes the n bytes most recently returned by TryPrepare, making
// them visible to the consumer's Peek. n must match the value passed to the
// preceding TryPrepare call.
func (q *SpscQueue) Commit(n int) {
	q.reserved = 0
	q.head.Add(uint64(n)) //nolint:gosec // n matches an earlier validated TryPrepare
}

// TryEmplaceCommand is a convenience wrapper used by the producer-facing
// surface for command records: it reserves space, lets fill populate it, and
// commits on success.
func (q *SpscQueue) TryEmplaceCommand(totalSize int, fill func([]byte)) bool {
	buf, ok := q.TryPrepare(totalSize)
	if !ok {
		return false
	}

	fill(buf)
	q.Commit(totalSize)

	return true
}

// Peek returns a view of every committed, unconsumed byte run currently
// contiguous from the consumer's position. It returns nil if the queue is
// empty. The backend must call Consume with however many of these bytes it
// actually dispatched.
func (q *SpscQueue) Peek() []byte {
	tail := q.tail.Load()
	head := q.head.Load()

	used := head - tail
	if used == 0 {
		return nil
	}

	offset := tail & q.mask

	return q.region.Slice(int(offset), int(used)) //nolint:gosec // used <= capacity
}

// Consume advances the consumer's cursor by n bytes, freeing that space for
// the producer to reuse. n must not exceed the length of the slice last
// returned by Peek.
func (q *SpscQueue) Consume(n int) {
	q.tail.Add(uint64(n)) //nolint:gosec // n is bounded by a prior Peek
}

// Close releases the queue's backing mirrored region.
func (q *SpscQueue) Close() error {
	return q.region.Close()
}

// ErrInvalidArgument mirrors the package-level sentinel used across the
// transport for bad caller input; defined here (rather than imported from
// the root package) to avoid a dependency cycle, and wrapped with the same
// ewrap metadata shape.
var ErrInvalidArgument = ewrap.New("ring: invalid argument")
