package quill_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill"
)

func TestFlushBeforeBackendStartedReturnsImmediately(t *testing.T) {
	logger, err := quill.New(quill.DevelopmentConfig())
	require.NoError(t, err)

	t.Cleanup(logger.Stop)

	producer, err := logger.NewProducer()
	require.NoError(t, err)

	defer producer.Close()

	require.NoError(t, producer.Log([]byte("never drained")))

	done := make(chan struct{})

	go func() {
		err := producer.Flush()
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flush against a never-started backend deadlocked instead of returning immediately")
	}
}

func TestFlushWaitsForPriorRecordsInFIFOOrder(t *testing.T) {
	logger, sink := newTestLogger(t)
	logger.Start()

	producer, err := logger.NewProducer()
	require.NoError(t, err)

	defer producer.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, producer.Log([]byte("before-flush")))
	}

	require.NoError(t, producer.Flush())

	// Everything enqueued before Flush was called must have been dispatched
	// by the time Flush returns.
	require.Len(t, sink.snapshot(), 5)
}

func TestLocalContextDetachesViaClose(t *testing.T) {
	logger, _ := newTestLogger(t)
	logger.Start()

	var producer *quill.ProducerContext

	done := make(chan struct{})

	go func() {
		defer close(done)

		p, err := logger.LocalContext()
		require.NoError(t, err)

		producer = p

		require.NoError(t, producer.Log([]byte("from a locked goroutine")))
		require.NoError(t, producer.Flush())
		require.NoError(t, producer.Close())
	}()

	<-done
}
