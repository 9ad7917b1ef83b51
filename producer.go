package quill

import (
	"encoding/binary"
	"runtime"
	"time"

	"github.com/hal177/quill/internal/record"
	"github.com/hal177/quill/internal/transport"
)

// ProducerContext is the producer-facing handle onto one mirrored SPSC
// queue. There is no implicit thread-local context: a goroutine that wants
// to log acquires one explicitly from Logger.NewProducer (or the opt-in
// Logger.LocalContext convenience) and keeps it for the lifetime of the work
// it's doing, since Go has no hook to run a destructor when a goroutine ends.
type ProducerContext struct {
	logger *Logger
	ctx    *transport.Context
	closed bool

	retryBackoffMin time.Duration
}

// NewProducer allocates a fresh queue and publishes it to the backend. The
// caller owns the returned handle and must call Close once it will never log
// through it again, so the backend can eventually reclaim the queue.
func (l *Logger) NewProducer() (*ProducerContext, error) {
	ctx, err := l.contexts.LocalContext(l.cfg.QueueCapacityBytes)
	if err != nil {
		return nil, err
	}

	pc := &ProducerContext{
		logger:          l,
		ctx:             ctx,
		retryBackoffMin: l.cfg.FullQueueRetryBackoff,
	}

	if pc.retryBackoffMin <= 0 {
		pc.retryBackoffMin = time.Microsecond
	}

	return pc, nil
}

// LocalContext is a convenience over NewProducer for callers who want a
// one-goroutine-one-queue binding reminiscent of the original's
// thread-local context: it locks the calling goroutine to its OS thread
// (so the binding can't silently migrate mid-use) and installs a finalizer
// that detaches the context if the caller forgets to Close it. Callers that
// need to log from many short-lived goroutines should prefer NewProducer and
// thread the handle through explicitly instead.
func (l *Logger) LocalContext() (*ProducerContext, error) {
	runtime.LockOSThread()

	pc, err := l.NewProducer()
	if err != nil {
		runtime.UnlockOSThread()

		return nil, err
	}

	runtime.SetFinalizer(pc, func(p *ProducerContext) {
		p.ctx.Detach()
	})

	return pc, nil
}

// Log encodes payload as a LogTag record and enqueues it, applying the
// configured full_queue_policy if the queue is momentarily full. Returns
// ErrQueueFull if the policy is drop_and_count and no room was found.
func (p *ProducerContext) Log(payload []byte) error {
	if err := p.checkPayload(payload); err != nil {
		return err
	}

	total := record.EncodedSize(len(payload))

	for {
		ok := p.ctx.Queue().TryEmplaceCommand(total, func(buf []byte) {
			record.Encode(buf, record.LogTag, payload) //nolint:errcheck // size already validated by EncodedSize
		})
		if ok {
			p.logger.enqueued.Add(1)

			return nil
		}

		switch p.logger.cfg.FullQueuePolicy {
		case FullQueueDropAndCount:
			p.logger.dropped.Add(1)
			p.logger.notifyDropped(payload)

			return ErrQueueFull

		default:
			runtime.Gosched()
			time.Sleep(p.retryBackoffMin)
		}
	}
}

func (p *ProducerContext) checkPayload(payload []byte) error {
	if p.closed {
		return ErrInvalidArgument.WithMetadata("reason", "producer context closed")
	}

	if len(payload) > record.MaxPayloadSize {
		return record.ErrPayloadTooLarge.WithMetadata("len", len(payload))
	}

	return nil
}

// TryEmplaceCommand registers fn as a command-record callback and enqueues a
// CommandRecord carrying its handle. Command records are never subject to
// full_queue_policy — that tunable governs log records only — so this always
// retries until it finds room, matching the original's tight do/while push
// loop for control records. The backend invokes fn exactly once, on the
// backend goroutine, when it drains the record.
func (p *ProducerContext) TryEmplaceCommand(fn func()) error {
	if p.closed {
		return ErrInvalidArgument.WithMetadata("reason", "producer context closed")
	}

	handle := p.logger.commands.Register(fn)

	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, handle)

	total := record.EncodedSize(len(payload))

	for {
		ok := p.ctx.Queue().TryEmplaceCommand(total, func(buf []byte) {
			record.Encode(buf, record.CommandTag, payload) //nolint:errcheck // size already validated by EncodedSize
		})
		if ok {
			p.logger.enqueued.Add(1)

			return nil
		}

		runtime.Gosched()
		time.Sleep(p.retryBackoffMin)
	}
}

// Flush blocks until every record this context has enqueued so far has been
// drained and dispatched by the backend, per the synchronous flush protocol:
// a command record carrying a completion signal is enqueued behind
// everything already in the queue, and FIFO draining of a single queue
// guarantees it only runs once every prior record has been dispatched. If
// the backend isn't running, Flush returns immediately without enqueuing —
// waiting on a completion signal nothing will ever deliver would deadlock.
func (p *ProducerContext) Flush() error {
	if !p.logger.IsRunning() {
		return nil
	}

	done := make(chan struct{})

	if err := p.TryEmplaceCommand(func() { close(done) }); err != nil {
		return err
	}

	<-done

	return nil
}

// Close marks the context detached so the backend reclaims its queue once
// drained, and releases the handle's own resources. Safe to call once; a
// LocalContext handle's finalizer becomes a no-op after Close runs.
func (p *ProducerContext) Close() error {
	if p.closed {
		return nil
	}

	p.closed = true
	p.ctx.Detach()

	return nil
}
