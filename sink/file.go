package sink

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hal177/quill/internal/utils"
)

// FileConfig configures a FileWriter.
type FileConfig struct {
	// Path is the log file's path. Created if missing, appended to otherwise.
	Path string
	// MaxSizeBytes triggers rotation once exceeded. 0 disables rotation.
	MaxSizeBytes int64
	// Compress gzip-compresses the rotated-out file.
	Compress bool
	// CompressionLevel is a gzip level per compress/gzip (-1 = default).
	CompressionLevel int
	// MaxBackups caps the number of rotated files retained; 0 means unlimited.
	MaxBackups int
	// FileMode sets permissions for newly created files.
	FileMode os.FileMode
}

// FileWriter is a Writer that appends to a file, rotating it once it grows
// past MaxSizeBytes.
type FileWriter struct {
	mu sync.Mutex

	cfg FileConfig

	file    *os.File
	size    int64
	closed  bool
	backups []string
}

// NewFile creates a FileWriter for cfg, opening (or creating) the file.
func NewFile(cfg FileConfig) (*FileWriter, error) {
	if cfg.Path == "" {
		return nil, ewrap.New("sink: file path cannot be empty")
	}

	if cfg.FileMode == 0 {
		cfg.FileMode = 0o644
	}

	path := cfg.Path
	if !filepath.IsAbs(path) {
		secured, err := utils.SecurePath(path)
		if err != nil {
			return nil, ewrap.Wrap(err, "sink: invalid file path")
		}

		path = secured
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ewrap.Wrapf(err, "sink: failed to create directory for %s", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, cfg.FileMode)
	if err != nil {
		return nil, ewrap.Wrapf(err, "sink: failed to open %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()

		return nil, ewrap.Wrap(err, "sink: failed to stat log file")
	}

	cfg.Path = path

	return &FileWriter{cfg: cfg, file: file, size: info.Size()}, nil
}

// Write implements io.Writer, rotating first if the write would overflow
// MaxSizeBytes.
func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrWriterClosed
	}

	if w.cfg.MaxSizeBytes > 0 && w.size+int64(len(p)) > w.cfg.MaxSizeBytes {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)

	if err != nil {
		return n, ewrap.Wrap(err, "sink: file write failed")
	}

	return n, nil
}

// Sync implements Writer.
func (w *FileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	return w.file.Sync()
}

// Close implements Writer.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()

		return ewrap.Wrap(err, "sink: final sync before close failed")
	}

	return w.file.Close()
}

func (w *FileWriter) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return ewrap.Wrap(err, "sink: failed to close file before rotation")
	}

	rotated := fmt.Sprintf("%s.%s", w.cfg.Path, time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(w.cfg.Path, rotated); err != nil {
		return ewrap.Wrap(err, "sink: failed to rename file for rotation")
	}

	if w.cfg.Compress {
		if err := compressFile(rotated, w.cfg.CompressionLevel); err != nil {
			return err
		}

		rotated += ".gz"
	}

	w.backups = append(w.backups, rotated)
	w.enforceBackupLimitLocked()

	file, err := os.OpenFile(w.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.cfg.FileMode)
	if err != nil {
		return ewrap.Wrapf(err, "sink: failed to reopen %s after rotation", w.cfg.Path)
	}

	w.file = file
	w.size = 0

	return nil
}

func (w *FileWriter) enforceBackupLimitLocked() {
	if w.cfg.MaxBackups <= 0 || len(w.backups) <= w.cfg.MaxBackups {
		return
	}

	excess := len(w.backups) - w.cfg.MaxBackups
	for _, stale := range w.backups[:excess] {
		os.Remove(stale) //nolint:errcheck // best-effort cleanup of rotated backlog
	}

	w.backups = w.backups[excess:]
}

func compressFile(path string, level int) error {
	if level == 0 {
		level = gzip.DefaultCompression
	}

	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return ErrInvalidCompression.WithMetadata("level", level)
	}

	src, err := os.Open(path)
	if err != nil {
		return ewrap.Wrap(err, "sink: failed to open rotated file for compression")
	}
	defer src.Close()

	dst, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return ewrap.Wrap(err, "sink: failed to create compressed rotated file")
	}
	defer dst.Close()

	gz, err := gzip.NewWriterLevel(dst, level)
	if err != nil {
		return ewrap.Wrap(err, "sink: creating gzip writer")
	}

	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()

		return ewrap.Wrap(err, "sink: compressing rotated file")
	}

	if err := gz.Close(); err != nil {
		return ewrap.Wrap(err, "sink: closing gzip writer")
	}

	return os.Remove(path)
}
