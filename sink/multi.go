package sink

import (
	"strings"
	"sync"

	"github.com/hyp3rd/ewrap"
)

// MultiWriter fans writes out to a set of sinks, continuing past individual
// sink failures so one bad sink cannot take the others down.
type MultiWriter struct {
	mu      sync.RWMutex
	writers []Writer
}

// NewMulti creates a MultiWriter over the given sinks. At least one is required.
func NewMulti(writers ...Writer) (*MultiWriter, error) {
	if len(writers) == 0 {
		return nil, ewrap.New("sink: at least one writer is required")
	}

	clone := make([]Writer, 0, len(writers))

	for _, w := range writers {
		if w != nil {
			clone = append(clone, w)
		}
	}

	if len(clone) == 0 {
		return nil, ewrap.New("sink: no valid writers provided")
	}

	return &MultiWriter{writers: clone}, nil
}

// AddWriter attaches an additional sink.
func (m *MultiWriter) AddWriter(w Writer) error {
	if w == nil {
		return ewrap.New("sink: cannot add nil writer")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writers = append(m.writers, w)

	return nil
}

// Write fans p out to every attached sink. After attempting every sink it
// returns one error listing every failure, if any.
func (m *MultiWriter) Write(p []byte) (int, error) {
	m.mu.RLock()
	writers := make([]Writer, len(m.writers))
	copy(writers, m.writers)
	m.mu.RUnlock()

	var errs []string

	written := 0

	for _, w := range writers {
		n, err := w.Write(p)
		if err != nil {
			errs = append(errs, err.Error())

			continue
		}

		if n > written {
			written = n
		}
	}

	if len(errs) > 0 {
		return written, ewrap.New("sink: write partially failed: " + strings.Join(errs, "; "))
	}

	return len(p), nil
}

// Sync flushes every attached sink, aggregating failures.
func (m *MultiWriter) Sync() error {
	m.mu.RLock()
	writers := make([]Writer, len(m.writers))
	copy(writers, m.writers)
	m.mu.RUnlock()

	var errs []string

	for _, w := range writers {
		if err := w.Sync(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return ewrap.New("sink: sync partially failed: " + strings.Join(errs, "; "))
	}

	return nil
}

// Close closes every attached sink, aggregating failures.
func (m *MultiWriter) Close() error {
	m.mu.RLock()
	writers := make([]Writer, len(m.writers))
	copy(writers, m.writers)
	m.mu.RUnlock()

	var errs []string

	for _, w := range writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return ewrap.New("sink: close partially failed: " + strings.Join(errs, "; "))
	}

	return nil
}
