package backend_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill/internal/backend"
	"github.com/hal177/quill/internal/record"
	"github.com/hal177/quill/internal/ring"
	"github.com/hal177/quill/internal/transport"
)

func newTestWorker(t *testing.T, handler backend.RecordHandler) (*backend.Worker, *transport.Collection) {
	t.Helper()

	contexts := transport.NewCollection()
	dispatcher := &backend.Dispatcher{
		Commands: backend.NewCommandTable(),
		Handler:  handler,
	}

	worker := backend.NewWorker(backend.Config{
		CPUAffinity:        -1,
		ThreadName:         "quill-backend-test",
		SleepMinNs:         1_000,
		SleepMaxNs:         1_000_000,
		DrainBudgetBytes:   4096,
		ReclaimEverySweeps: 1,
	}, contexts, dispatcher)

	t.Cleanup(worker.Stop)

	return worker, contexts
}

func TestWorkerStopBeforeStartReturnsImmediately(t *testing.T) {
	worker, _ := newTestWorker(t, nil)

	done := make(chan struct{})

	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started worker deadlocked")
	}
}

func TestWorkerDrainsEnqueuedRecords(t *testing.T) {
	received := make(chan string, 8)

	worker, contexts := newTestWorker(t, func(_ uint16, bytes []byte) error {
		received <- string(bytes)

		return nil
	})

	worker.Start()

	ctx, err := contexts.LocalContext(ring.PageSize())
	require.NoError(t, err)

	payload := []byte("payload1")
	size := record.EncodedSize(len(payload))

	buf, ok := ctx.Queue().TryPrepare(size)
	require.True(t, ok)
	_, err = record.Encode(buf, record.LogTag, payload)
	require.NoError(t, err)
	ctx.Queue().Commit(size)

	select {
	case got := <-received:
		require.Equal(t, "payload1", got)
	case <-time.After(2 * time.Second):
		t.Fatal("backend never dispatched the enqueued record")
	}
}

func TestWorkerStopDrainsEverythingVisibleBeforeExiting(t *testing.T) {
	var count int

	done := make(chan struct{})

	worker, contexts := newTestWorker(t, func(_ uint16, _ []byte) error {
		count++
		if count == 100 {
			close(done)
		}

		return nil
	})

	ctx, err := contexts.LocalContext(ring.PageSize())
	require.NoError(t, err)

	size := record.EncodedSize(len("rec-0000"))

	for i := 0; i < 100; i++ {
		buf, ok := ctx.Queue().TryPrepare(size)
		require.True(t, ok)
		_, err := record.Encode(buf, record.LogTag, []byte("rec-0000"))
		require.NoError(t, err)
		ctx.Queue().Commit(size)
	}

	worker.Start()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("the running backend never drained all pre-enqueued records")
	}

	worker.Stop()
	require.Equal(t, 100, count)
}
