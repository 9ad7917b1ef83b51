package quill

import (
	"context"
	"sync"

	"github.com/hal177/quill/internal/constants"
)

// BackendMetrics is a snapshot of the backend sweep loop's health counters,
// emitted every metricsEmitInterval while the Logger is running.
type BackendMetrics struct {
	Enqueued    uint64
	Dispatched  uint64
	Dropped     uint64
	HandlerErrs uint64
	QueueDepth  int
	Reclaimed   uint64
}

// BackendMetricsHandler receives backend metrics snapshots.
type BackendMetricsHandler func(context.Context, BackendMetrics)

//nolint:gochecknoglobals // metrics use a package-level registry for global handlers, same as the teacher's async metrics.
var backendMetricsRegistryOnce = sync.OnceValue(func() *backendMetricsHandlerRegistry {
	return &backendMetricsHandlerRegistry{}
})

// RegisterBackendMetricsHandler adds a global handler invoked when the
// backend emits a metrics snapshot.
func RegisterBackendMetricsHandler(handler BackendMetricsHandler) {
	if handler == nil {
		return
	}

	backendMetricsRegistryOnce().register(handler)
}

// ClearBackendMetricsHandlers removes all registered handlers.
func ClearBackendMetricsHandlers() {
	backendMetricsRegistryOnce().reset()
}

// EmitBackendMetrics notifies global handlers with the provided snapshot.
func EmitBackendMetrics(ctx context.Context, metrics BackendMetrics) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	backendMetricsRegistryOnce().emit(ctx, metrics)
}

type backendMetricsHandlerRegistry struct {
	mu       sync.RWMutex
	handlers []BackendMetricsHandler
}

func (r *backendMetricsHandlerRegistry) register(handler BackendMetricsHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, handler)
}

func (r *backendMetricsHandlerRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = nil
}

func (r *backendMetricsHandlerRegistry) emit(ctx context.Context, metrics BackendMetrics) {
	for _, handler := range r.snapshot() {
		handler(ctx, metrics)
	}
}

func (r *backendMetricsHandlerRegistry) snapshot() []BackendMetricsHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.handlers) == 0 {
		return nil
	}

	clone := make([]BackendMetricsHandler, len(r.handlers))
	copy(clone, r.handlers)

	return clone
}
