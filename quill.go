// Package quill implements a low-latency, asynchronous record-transport
// subsystem: application goroutines enqueue records into a per-producer
// mirrored SPSC queue at wait-free cost, and a single backend goroutine
// drains every queue, dispatches records to a handler, and fans them out to
// attached sinks.
package quill

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hal177/quill/internal/backend"
	"github.com/hal177/quill/internal/ring"
	"github.com/hal177/quill/internal/transport"
	"github.com/hal177/quill/sink"
)

// metricsEmitInterval is how often Start's background goroutine publishes a
// BackendMetrics snapshot while the backend is running.
const metricsEmitInterval = 5 * time.Second

// Logger owns the transport: the context collection producers publish into
// and the backend worker that drains it. It carries no log-level filtering
// or message formatting; those belong to a layer above this one.
type Logger struct {
	cfg Config

	contexts *transport.Collection
	commands *backend.CommandTable
	worker   *backend.Worker

	hooks *HookRegistry

	mu           sync.RWMutex
	handler      RecordHandler
	errorHandler ErrorHandler
	sinks        []sink.Writer
	encoder      sink.Encoder
	dropHandler  DropPayloadHandler

	// encBuf is scratch space reused across encode calls. Safe unsynchronized
	// because only the backend goroutine (via dispatchRecord) ever touches it.
	encBuf bytes.Buffer

	enqueued atomic.Uint64
	dropped  atomic.Uint64

	metricsStop chan struct{}
	metricsDone chan struct{}
}

// New constructs a Logger from cfg. It does not start the backend; call
// Start for that. Validation of cfg happens here so construction-time
// failures (per the error handling design) surface before any producer
// attempts to log.
func New(cfg Config) (*Logger, error) {
	if cfg.QueueCapacityBytes <= 0 || cfg.QueueCapacityBytes&(cfg.QueueCapacityBytes-1) != 0 {
		return nil, ErrInvalidArgument.WithMetadata("queue_capacity_bytes", cfg.QueueCapacityBytes)
	}

	if cfg.QueueCapacityBytes%ring.PageSize() != 0 {
		return nil, ErrInvalidArgument.WithMetadata("queue_capacity_bytes", cfg.QueueCapacityBytes).
			WithMetadata("page_size", ring.PageSize())
	}

	if !cfg.FullQueuePolicy.IsValid() {
		return nil, ErrInvalidArgument.WithMetadata("full_queue_policy", cfg.FullQueuePolicy)
	}

	l := &Logger{
		cfg:      cfg,
		contexts: transport.NewCollection(),
		commands: backend.NewCommandTable(),
		hooks:    NewHookRegistry(),
	}

	l.handler = l.defaultRecordHandler

	dispatcher := &backend.Dispatcher{
		Commands: l.commands,
		Handler:  l.dispatchRecord,
		OnError:  l.dispatchError,
	}

	l.worker = backend.NewWorker(backend.Config{
		CPUAffinity:        cfg.BackendCPUAffinity,
		ThreadName:         cfg.BackendThreadName,
		SleepMinNs:         cfg.BackendSleepMinNs,
		SleepMaxNs:         cfg.BackendSleepMaxNs,
		DrainBudgetBytes:   cfg.BackendDrainBudgetBytes,
		ReclaimEverySweeps: cfg.ReclaimEverySweeps,
	}, l.contexts, dispatcher)

	return l, nil
}

// AddSink attaches a sink the default record handler will fan bytes out to.
// Has no effect once a custom handler has been installed via SetRecordHandler.
func (l *Logger) AddSink(w sink.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sinks = append(l.sinks, w)
}

// SetRecordHandler overrides the default sink fan-out with a custom on_record
// hook. Applications wanting structured formatting install their own handler
// here; the transport itself never parses record bytes.
func (l *Logger) SetRecordHandler(handler RecordHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if handler == nil {
		handler = l.defaultRecordHandler
	}

	l.handler = handler
}

// SetEncoder installs an Encoder the default record handler runs every
// record through before fanning it out to sinks. Without one, raw payload
// bytes are written unchanged.
func (l *Logger) SetEncoder(encoder sink.Encoder) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.encoder = encoder
}

// SetErrorHandler installs the on_error hook invoked when a record handler fails.
func (l *Logger) SetErrorHandler(handler ErrorHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errorHandler = handler
}

// SetDropPayloadHandler installs a handler notified with ownership of every
// payload dropped under full_queue_policy=drop_and_count, letting callers
// retain a dropped record (e.g. to spill it somewhere slower) instead of
// losing it outright.
func (l *Logger) SetDropPayloadHandler(handler DropPayloadHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dropHandler = handler
}

func (l *Logger) notifyDropped(payload []byte) {
	l.mu.RLock()
	handler := l.dropHandler
	l.mu.RUnlock()

	if handler == nil {
		return
	}

	handler(newCopyDropPayload(payload))
}

// Hooks returns the dispatch hook registry for tag-scoped observers that run
// alongside the primary record handler.
func (l *Logger) Hooks() *HookRegistry {
	return l.hooks
}

// Start launches the backend sweep goroutine along with a background
// goroutine that periodically publishes BackendMetrics snapshots. Safe to
// call once; subsequent calls are a no-op.
func (l *Logger) Start() {
	wasStopped := !l.worker.IsRunning()

	l.worker.Start()

	if !wasStopped {
		return
	}

	l.metricsStop = make(chan struct{})
	l.metricsDone = make(chan struct{})

	go l.runMetricsLoop(l.metricsStop, l.metricsDone)
}

// Stop transitions the backend to Stopping, blocks until it has drained
// every visible record and exited, per the shutdown contract, then stops the
// metrics loop.
func (l *Logger) Stop() {
	l.worker.Stop()

	if l.metricsStop != nil {
		close(l.metricsStop)
		<-l.metricsDone
		l.metricsStop = nil
	}
}

func (l *Logger) runMetricsLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(metricsEmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.emitMetrics(context.Background(), l.contexts.Len())
		}
	}
}

// IsRunning reports whether the backend sweep goroutine is live.
func (l *Logger) IsRunning() bool {
	return l.worker.IsRunning()
}

// DroppedCount returns the number of records dropped under
// full_queue_policy=drop_and_count across every producer.
func (l *Logger) DroppedCount() uint64 {
	return l.dropped.Load()
}

func (l *Logger) defaultRecordHandler(view RecordView) error {
	l.mu.RLock()
	sinks := make([]sink.Writer, len(l.sinks))
	copy(sinks, l.sinks)
	encoder := l.encoder
	l.mu.RUnlock()

	if len(sinks) == 0 {
		return nil
	}

	out := view.Bytes

	if encoder != nil {
		encoded, err := encoder.Encode(sink.Record{Tag: view.Tag, Bytes: view.Bytes, Timestamp: time.Now()}, &l.encBuf)
		if err != nil {
			return ewrap.Wrap(err, "quill: record encode failed")
		}

		out = encoded
	}

	var errs []error

	for _, s := range sinks {
		if _, err := s.Write(out); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return ewrap.Wrap(errs[0], "quill: sink write failed").WithMetadata("sink_failures", len(errs))
	}

	return nil
}

func (l *Logger) dispatchRecord(tag uint16, bytes []byte) error {
	view := RecordView{Tag: tag, Bytes: bytes}

	l.mu.RLock()
	handler := l.handler
	l.mu.RUnlock()

	var firstErr error

	if handler != nil {
		firstErr = handler(view)
	}

	for _, hookErr := range l.hooks.Fire(view) {
		if firstErr == nil {
			firstErr = hookErr
		}
	}

	return firstErr
}

func (l *Logger) dispatchError(tag uint16, err error) {
	l.worker.Metrics.HandlerErrs.Add(1)

	l.mu.RLock()
	handler := l.errorHandler
	l.mu.RUnlock()

	if handler == nil {
		return
	}

	handler(ErrorInfo{
		Err: ewrap.Wrap(err, "quill: record handler failed"),
		Tag: tag,
	})
}

// emitMetrics publishes the backend's current counters through the global
// BackendMetrics registry, the library's own diagnostic channel.
func (l *Logger) emitMetrics(ctx context.Context, queueDepth int) {
	dispatched, handlerErrs, reclaimed := l.worker.Metrics.Snapshot()

	EmitBackendMetrics(ctx, BackendMetrics{
		Enqueued:    l.enqueued.Load(),
		Dispatched:  dispatched,
		Dropped:     l.dropped.Load(),
		HandlerErrs: handlerErrs,
		QueueDepth:  queueDepth,
		Reclaimed:   reclaimed,
	})
}
