package ring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill/internal/ring"
)

func newTestQueue(t *testing.T, capacity int) *ring.SpscQueue {
	t.Helper()

	q, err := ring.NewSpscQueue(capacity)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, q.Close())
	})

	return q
}

func TestSpscQueueRejectsNonPowerOfTwoCapacity(t *testing.T) {
	_, err := ring.NewSpscQueue(100)
	require.Error(t, err)
}

func TestSpscQueuePrepareCommitPeekConsumeRoundTrip(t *testing.T) {
	q := newTestQueue(t, ring.PageSize())

	payload := []byte("hello-quill")

	buf, ok := q.TryPrepare(len(payload))
	require.True(t, ok)
	copy(buf, payload)
	q.Commit(len(payload))

	require.Equal(t, len(payload), q.Used())

	view := q.Peek()
	require.Equal(t, payload, view)

	q.Consume(len(view))
	require.Equal(t, 0, q.Used())
	require.Nil(t, q.Peek())
}

func TestSpscQueueFifoOrderAcrossMultipleRecords(t *testing.T) {
	q := newTestQueue(t, ring.PageSize())

	records := [][]byte{[]byte("one"), []byte("two"), []byte("three")}

	for _, rec := range records {
		buf, ok := q.TryPrepare(len(rec))
		require.True(t, ok)
		copy(buf, rec)
		q.Commit(len(rec))
	}

	for _, want := range records {
		view := q.Peek()
		require.GreaterOrEqual(t, len(view), len(want))
		require.Equal(t, want, view[:len(want)])
		q.Consume(len(want))
	}

	require.Equal(t, 0, q.Used())
}

func TestSpscQueueTryPrepareFailsWhenFull(t *testing.T) {
	capacity := ring.PageSize()
	q := newTestQueue(t, capacity)

	buf, ok := q.TryPrepare(capacity)
	require.True(t, ok)
	q.Commit(len(buf))

	_, ok = q.TryPrepare(1)
	require.False(t, ok, "queue at capacity must refuse further reservations")
}

func TestSpscQueueWraparoundIsContiguousThroughTheMirror(t *testing.T) {
	capacity := ring.PageSize()
	q := newTestQueue(t, capacity)

	// Push and fully consume records until the cursor sits close to the wrap
	// point, then write one record that straddles it.
	warmup := capacity - 8

	buf, ok := q.TryPrepare(warmup)
	require.True(t, ok)
	q.Commit(warmup)
	q.Consume(warmup)

	straddle := []byte("0123456789ABCDEF") // 16 bytes, crosses the 8-byte-from-wrap boundary
	buf, ok = q.TryPrepare(len(straddle))
	require.True(t, ok)
	copy(buf, straddle)
	q.Commit(len(straddle))

	got := q.Peek()
	require.Equal(t, straddle, got)
	q.Consume(len(got))
}

func TestSpscQueueTryEmplaceCommand(t *testing.T) {
	q := newTestQueue(t, ring.PageSize())

	ok := q.TryEmplaceCommand(8, func(buf []byte) {
		copy(buf, []byte("commandX"))
	})
	require.True(t, ok)

	view := q.Peek()
	require.Equal(t, []byte("commandX"), view)
}
