// Package backend implements the single consumer goroutine that drains
// every producer's SPSC queue, dispatches records to the handler, and
// reclaims detached contexts.
package backend

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hal177/quill/internal/ring"
	"github.com/hal177/quill/internal/transport"
)

// State is the backend worker's lifecycle state.
type State int32

const (
	// StateStopped is the initial state and the state after a completed Stop.
	StateStopped State = iota
	// StateStarting is set the instant Start is called, before the sweep
	// goroutine has run even once.
	StateStarting
	// StateRunning is set once the sweep goroutine has begun its loop.
	StateRunning
	// StateStopping is set by Stop; the sweep goroutine observes it, performs
	// one final full drain, and transitions to StateStopped.
	StateStopping
)

// Metrics are the backend's own health counters, updated as each sweep runs.
// Dispatched counts bytes consumed (command records included), not records.
type Metrics struct {
	Dispatched  atomic.Uint64
	HandlerErrs atomic.Uint64
	Reclaimed   atomic.Uint64
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() (dispatched, handlerErrs, reclaimed uint64) {
	return m.Dispatched.Load(), m.HandlerErrs.Load(), m.Reclaimed.Load()
}

// Config bundles the worker's scheduling tunables.
type Config struct {
	CPUAffinity        int
	ThreadName         string
	SleepMinNs         int64
	SleepMaxNs         int64
	DrainBudgetBytes   int
	ReclaimEverySweeps int
}

// Worker is the backend's sweep loop: snapshot contexts, drain each up to a
// byte budget, back off when nothing was dispatched, and periodically
// reclaim detached, drained contexts.
type Worker struct {
	cfg        Config
	contexts   *transport.Collection
	dispatcher *Dispatcher

	Metrics Metrics

	state atomic.Int32
	stop  chan struct{}
	done  chan struct{}
}

// NewWorker constructs a Worker. It does not start the sweep goroutine.
func NewWorker(cfg Config, contexts *transport.Collection, dispatcher *Dispatcher) *Worker {
	return &Worker{
		cfg:        cfg,
		contexts:   contexts,
		dispatcher: dispatcher,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load()) //nolint:gosec // State is a small enum stored via atomic.Int32
}

// IsRunning reports whether the worker has a live sweep goroutine.
func (w *Worker) IsRunning() bool {
	s := w.State()

	return s == StateStarting || s == StateRunning
}

// Start launches the sweep goroutine. Calling Start on an already-started
// worker is a no-op.
func (w *Worker) Start() {
	if !w.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return
	}

	go w.run()
}

// Stop transitions the worker to Stopping and blocks until the final full
// drain sweep completes and the goroutine exits. Calling Stop on a worker
// that was never started returns immediately.
func (w *Worker) Stop() {
	for {
		current := w.State()
		if current == StateStopped {
			return
		}

		if current == StateStopping {
			break
		}

		if w.state.CompareAndSwap(int32(current), int32(StateStopping)) {
			break
		}
	}

	close(w.stop)
	<-w.done
}

func (w *Worker) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ring.SetCPUAffinity(w.cfg.CPUAffinity) //nolint:errcheck // affinity is a best-effort hint per the OS abstraction contract
	ring.SetThreadName(w.cfg.ThreadName)   //nolint:errcheck // naming failures never abort the process

	w.state.Store(int32(StateRunning))

	backoff := newBackoff(w.cfg.SleepMinNs, w.cfg.SleepMaxNs)
	sweeps := uint64(0)

	defer close(w.done)

	for {
		select {
		case <-w.stop:
			w.sweep(true)
			w.state.Store(int32(StateStopped))

			return
		default:
		}

		dispatched := w.sweep(false)

		sweeps++
		if w.cfg.ReclaimEverySweeps > 0 && sweeps%uint64(w.cfg.ReclaimEverySweeps) == 0 { //nolint:gosec // ReclaimEverySweeps is a small positive tunable
			reclaimed := w.contexts.Reclaim()
			w.Metrics.Reclaimed.Add(uint64(reclaimed)) //nolint:gosec // reclaimed counts are small and non-negative
		}

		if dispatched > 0 {
			backoff.reset()

			continue
		}

		backoff.sleep()
	}
}

// sweep drains every known context once. When fullDrain is true each
// context is drained to empty rather than stopping at the configured budget,
// the behavior Stop needs to guarantee no visible record is lost.
func (w *Worker) sweep(fullDrain bool) int {
	contexts := w.contexts.Snapshot()
	total := 0

	for _, ctx := range contexts {
		budget := w.cfg.DrainBudgetBytes

		for {
			view := ctx.Queue().Peek()
			if len(view) == 0 {
				break
			}

			limit := len(view)
			if !fullDrain && limit > budget {
				limit = budget
			}

			if limit <= 0 {
				break
			}

			n := w.dispatcher.Dispatch(view, limit)
			if n == 0 {
				break
			}

			ctx.Queue().Consume(n)
			total += n
			w.Metrics.Dispatched.Add(uint64(n)) //nolint:gosec // byte counts are small and non-negative

			if !fullDrain {
				budget -= n
				if budget <= 0 {
					break
				}
			}
		}
	}

	return total
}

// backoff implements the spin -> yield -> sleep escalation the sweep loop
// uses when an entire pass dispatches nothing.
type backoff struct {
	minNs, maxNs int64
	current      int64
	spins        int
}

func newBackoff(minNs, maxNs int64) *backoff {
	if minNs <= 0 {
		minNs = 1
	}

	if maxNs < minNs {
		maxNs = minNs
	}

	return &backoff{minNs: minNs, maxNs: maxNs, current: minNs}
}

func (b *backoff) reset() {
	b.current = b.minNs
	b.spins = 0
}

func (b *backoff) sleep() {
	const (
		spinThreshold  = 64
		yieldThreshold = 128
	)

	if b.spins < spinThreshold {
		b.spins++

		return
	}

	if b.spins < yieldThreshold {
		b.spins++
		runtime.Gosched()

		return
	}

	time.Sleep(time.Duration(b.current) * time.Nanosecond)

	b.current *= 2
	if b.current > b.maxNs {
		b.current = b.maxNs
	}
}
