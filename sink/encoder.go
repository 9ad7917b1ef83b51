package sink

import (
	"bytes"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
)

// Record is the minimal view of a dispatched record an Encoder needs: no
// format-string knowledge, just tag, bytes and when it was observed.
type Record struct {
	Tag       uint16
	Bytes     []byte
	Timestamp time.Time
}

// Encoder renders a Record into an output-ready byte slice, using buf as
// scratch space to avoid allocating on the hot path.
type Encoder interface {
	Encode(rec Record, buf *bytes.Buffer) ([]byte, error)
	// EstimateSize returns a capacity hint for buf, used to avoid reallocation.
	EstimateSize(rec Record) int
}

// EncoderRegistry is a concurrency-safe, name-keyed set of Encoders, mirroring
// how sinks are looked up by name in static configuration.
type EncoderRegistry struct {
	mu       sync.RWMutex
	encoders map[string]Encoder
}

// NewEncoderRegistry creates an empty registry.
func NewEncoderRegistry() *EncoderRegistry {
	return &EncoderRegistry{encoders: make(map[string]Encoder)}
}

// Register adds an encoder under name, failing if the name is taken.
func (r *EncoderRegistry) Register(name string, encoder Encoder) error {
	if name == "" {
		return ewrap.New("sink: encoder name cannot be empty")
	}

	if encoder == nil {
		return ewrap.New("sink: encoder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encoders[name]; exists {
		return ewrap.New("sink: encoder already registered").WithMetadata("name", name)
	}

	r.encoders[name] = encoder

	return nil
}

// MustRegister panics if Register fails; intended for package init.
func (r *EncoderRegistry) MustRegister(name string, encoder Encoder) {
	if err := r.Register(name, encoder); err != nil {
		panic(err)
	}
}

// Get resolves an encoder by name.
func (r *EncoderRegistry) Get(name string) (Encoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	encoder, ok := r.encoders[name]

	return encoder, ok
}

//nolint:gochecknoglobals // one process-wide registry of the built-in encoders, populated once at init.
var defaultEncoders = NewEncoderRegistry()

func init() {
	defaultEncoders.MustRegister("json", JSONEncoder{})
}

// DefaultEncoders returns the process-wide registry of built-in encoders
// ("json" among them), the set static configuration names resolve against.
func DefaultEncoders() *EncoderRegistry {
	return defaultEncoders
}
