package sink

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// ColorMode controls when a ConsoleWriter applies ANSI color codes.
type ColorMode uint8

const (
	// ColorAuto enables color only when the destination looks like a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways forces color regardless of terminal detection.
	ColorAlways
	// ColorNever disables color unconditionally.
	ColorNever
)

// ConsoleConfig configures a ConsoleWriter.
type ConsoleConfig struct {
	// Output is the underlying destination, typically os.Stdout or os.Stderr.
	Output io.Writer
	// Mode selects when colorization is applied.
	Mode ColorMode
	// Colors maps record tags to ANSI color codes; defaults to DefaultTagColors.
	Colors map[uint16]string
}

// ConsoleWriter is a Writer that writes to a terminal-like destination,
// optionally colorizing each write by the record tag supplied via WriteTagged.
type ConsoleWriter struct {
	mu sync.Mutex

	out    io.Writer
	colors map[uint16]string
	useTTY bool
	closed bool
}

// NewConsole creates a ConsoleWriter for cfg.
func NewConsole(cfg ConsoleConfig) *ConsoleWriter {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	if cfg.Colors == nil {
		cfg.Colors = DefaultTagColors()
	}

	useTTY := false

	switch cfg.Mode {
	case ColorAlways:
		useTTY = true
	case ColorNever:
		useTTY = false
	case ColorAuto:
		useTTY = IsTerminal(cfg.Output)
	}

	return &ConsoleWriter{out: cfg.Output, colors: cfg.Colors, useTTY: useTTY}
}

// Write implements io.Writer as WriteTagged with tag 0, which has no entry in
// the default colors, so on a colorizing writer the bytes come out in the
// fallback White. Use WriteTagged for output colorized by record tag.
func (w *ConsoleWriter) Write(p []byte) (int, error) {
	return w.WriteTagged(0, p)
}

// WriteTagged writes p, colorized according to tag when color is enabled.
func (w *ConsoleWriter) WriteTagged(tag uint16, p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrWriterClosed
	}

	if !w.useTTY {
		return w.out.Write(p)
	}

	color := ColorConfig{TagColors: w.colors}.colorFor(tag)

	buf := make([]byte, 0, len(color)+len(p)+len(Reset))
	buf = append(buf, color...)
	buf = append(buf, p...)
	buf = append(buf, Reset...)

	n, err := w.out.Write(buf)
	if n > len(p) {
		n = len(p)
	}

	return n, err
}

// Sync implements Writer.
func (w *ConsoleWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if syncer, ok := w.out.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

// Close implements Writer. The underlying os.Stdout/os.Stderr is never
// closed even if it implements io.Closer.
func (w *ConsoleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true

	return nil
}

// IsTerminal reports whether w looks like an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
