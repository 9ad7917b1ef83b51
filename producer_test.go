package quill_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill"
)

type recordingSink struct {
	mu   sync.Mutex
	rows []string
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, string(p))

	return len(p), nil
}

func (s *recordingSink) Sync() error { return nil }
func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.rows))
	copy(out, s.rows)

	return out
}

func newTestLogger(t *testing.T) (*quill.Logger, *recordingSink) {
	t.Helper()

	cfg := quill.DevelopmentConfig()

	logger, err := quill.New(cfg)
	require.NoError(t, err)

	s := &recordingSink{}
	logger.AddSink(s)

	t.Cleanup(logger.Stop)

	return logger, s
}

func TestSingleProducerTenRecordsThenFlush(t *testing.T) {
	logger, sink := newTestLogger(t)
	logger.Start()

	producer, err := logger.NewProducer()
	require.NoError(t, err)

	defer producer.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, producer.Log([]byte("record")))
	}

	require.NoError(t, producer.Flush())

	require.Len(t, sink.snapshot(), 10)
}

func TestMultipleProducersPreserveTheirOwnOrdering(t *testing.T) {
	logger, sink := newTestLogger(t)
	logger.Start()

	const producers = 6
	const perProducer = 500

	var wg sync.WaitGroup

	for p := 0; p < producers; p++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			producer, err := logger.NewProducer()
			require.NoError(t, err)

			defer producer.Close()

			for i := 0; i < perProducer; i++ {
				require.NoError(t, producer.Log([]byte{byte(id), byte(i), byte(i >> 8)}))
			}

			require.NoError(t, producer.Flush())
		}(p)
	}

	wg.Wait()

	require.Len(t, sink.snapshot(), producers*perProducer)

	lastSeen := make(map[byte]int)

	for _, row := range sink.snapshot() {
		id := row[0]
		seq := int(row[1]) | int(row[2])<<8

		require.GreaterOrEqual(t, seq, lastSeen[id])
		lastSeen[id] = seq
	}
}

func TestProducerCloseThenBackendReclaimsOnceDrained(t *testing.T) {
	logger, _ := newTestLogger(t)
	logger.Start()

	producer, err := logger.NewProducer()
	require.NoError(t, err)

	require.NoError(t, producer.Log([]byte("last one")))
	require.NoError(t, producer.Flush())
	require.NoError(t, producer.Close())

	// Give the backend a couple of reclaim cycles to notice the detached,
	// drained context.
	time.Sleep(50 * time.Millisecond)
}

func TestFullQueueDropAndCountIncrementsDroppedCounter(t *testing.T) {
	cfg := quill.DefaultConfig()
	cfg.QueueCapacityBytes = 4096
	cfg.FullQueuePolicy = quill.FullQueueDropAndCount

	logger, err := quill.New(cfg)
	require.NoError(t, err)

	t.Cleanup(logger.Stop)
	// Backend intentionally never started: every enqueue attempt competes
	// against a queue nothing drains, so it fills up and starts dropping.

	producer, err := logger.NewProducer()
	require.NoError(t, err)

	defer producer.Close()

	big := make([]byte, 512)

	sawDrop := false

	for i := 0; i < 64; i++ {
		if err := producer.Log(big); err != nil {
			sawDrop = true

			break
		}
	}

	require.True(t, sawDrop)
	require.Positive(t, logger.DroppedCount())
}

func TestSinkFailureInvokesErrorHandler(t *testing.T) {
	logger, err := quill.New(quill.DevelopmentConfig())
	require.NoError(t, err)

	t.Cleanup(logger.Stop)

	var mu sync.Mutex

	var errCount int

	logger.SetRecordHandler(func(view quill.RecordView) error {
		if len(view.Bytes) > 0 && view.Bytes[0] == 'x' {
			return quill.ErrHandlerFailed
		}

		return nil
	})

	logger.SetErrorHandler(func(info quill.ErrorInfo) {
		mu.Lock()
		errCount++
		mu.Unlock()
	})

	logger.Start()

	producer, err := logger.NewProducer()
	require.NoError(t, err)

	defer producer.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, producer.Log([]byte("ok")))
	}

	require.NoError(t, producer.Log([]byte("xfail")))
	require.NoError(t, producer.Flush())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, errCount)
}
