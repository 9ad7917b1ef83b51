package quill

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hal177/quill/internal/constants"
	"github.com/hal177/quill/internal/utils"
)

const (
	// DefaultQueueCapacityBytes is the default per-producer ring size. It must stay
	// a power of two and a multiple of the OS page size.
	DefaultQueueCapacityBytes = 256 * 1024
	// DefaultBackendDrainBudgetBytes bounds how many bytes the backend drains from a
	// single context in one sweep pass.
	DefaultBackendDrainBudgetBytes = 256 * 1024
	// DefaultBackendSleepMinNs is the shortest sleep the backend backs off to when idle.
	DefaultBackendSleepMinNs = 50_000 // 50us
	// DefaultBackendSleepMaxNs caps the exponential idle backoff.
	DefaultBackendSleepMaxNs = 20_000_000 // 20ms
	// DefaultBackendThreadName is the OS-visible name given to the backend thread.
	DefaultBackendThreadName = "quill-backend"
	// DefaultReclaimEverySweeps controls how often the backend reclaims detached,
	// drained contexts.
	DefaultReclaimEverySweeps = 64
	// LogFilePermissions are the default file permissions for sink log files.
	LogFilePermissions = 0o644
	// DefaultMaxFileSizeMB is the default maximum size in MB for sink files before rotation.
	DefaultMaxFileSizeMB = 100
	// DefaultCompression determines if rotated sink files are compressed by default.
	DefaultCompression = true
)

// FullQueuePolicy controls what try_prepare does when a producer's ring has no
// room for the requested record.
type FullQueuePolicy uint8

const (
	// FullQueueBlockRetry makes the producer retry (yield/sleep) until space frees up.
	FullQueueBlockRetry FullQueuePolicy = iota
	// FullQueueDropAndCount makes try_prepare return immediately with no slot and
	// increments a dropped-record counter instead of blocking the producer.
	FullQueueDropAndCount
)

// IsValid reports whether the policy value is recognised.
func (p FullQueuePolicy) IsValid() bool {
	switch p {
	case FullQueueBlockRetry, FullQueueDropAndCount:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (p FullQueuePolicy) String() string {
	switch p {
	case FullQueueBlockRetry:
		return "block_retry"
	case FullQueueDropAndCount:
		return "drop_and_count"
	default:
		return "unknown"
	}
}

// ParseFullQueuePolicy parses the tunable's string form.
func ParseFullQueuePolicy(s string) (FullQueuePolicy, error) {
	switch strings.ToLower(s) {
	case "block_retry", "":
		return FullQueueBlockRetry, nil
	case "drop_and_count":
		return FullQueueDropAndCount, nil
	default:
		return 0, ewrap.New("invalid full_queue_policy: " + s)
	}
}

// FileConfig holds configuration specific to the file sink.
type FileConfig struct {
	// Path is the path to the log file.
	Path string
	// MaxSizeBytes is the max size in bytes before rotation (0 = no rotation).
	MaxSizeBytes int64
	// Compress determines if rotated files should be compressed.
	Compress bool
	// MaxAge is the maximum age of log files in days before deletion (0 = no deletion).
	MaxAge int
	// MaxBackups is the maximum number of backup files to retain (0 = no limit).
	MaxBackups int
	// LocalTime uses local time instead of UTC for file names.
	LocalTime bool
	// FileMode sets the permissions for new log files.
	FileMode os.FileMode
	// CompressionLevel sets the gzip compression level (0=default, 1=best speed, 9=best compression).
	CompressionLevel int
}

// Config holds the tunables for a Logger: the queue geometry, the backend's
// scheduling behaviour, and full-queue policy. This is the transport's
// configuration surface described by the external interfaces; it carries no
// log-level filtering or formatting policy.
type Config struct {
	// QueueCapacityBytes sizes every producer's mirrored ring. Must be a power of
	// two and a multiple of the OS page size.
	QueueCapacityBytes int
	// BackendCPUAffinity pins the backend goroutine's OS thread to a CPU id when
	// >= 0. Negative means no affinity is requested.
	BackendCPUAffinity int
	// BackendThreadName is the OS-visible name for the backend thread.
	BackendThreadName string
	// BackendSleepMinNs / BackendSleepMaxNs bound the backend's idle backoff.
	BackendSleepMinNs int64
	BackendSleepMaxNs int64
	// BackendDrainBudgetBytes bounds bytes drained from one context per sweep.
	BackendDrainBudgetBytes int
	// ReclaimEverySweeps controls how often reclaim() runs relative to sweeps.
	ReclaimEverySweeps int
	// FullQueuePolicy controls try_prepare's behavior on a full ring.
	FullQueuePolicy FullQueuePolicy
	// FullQueueRetryBackoff bounds the retry/backoff delay under block_retry.
	FullQueueRetryBackoff time.Duration
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		QueueCapacityBytes:      DefaultQueueCapacityBytes,
		BackendCPUAffinity:      -1,
		BackendThreadName:       DefaultBackendThreadName,
		BackendSleepMinNs:       DefaultBackendSleepMinNs,
		BackendSleepMaxNs:       DefaultBackendSleepMaxNs,
		BackendDrainBudgetBytes: DefaultBackendDrainBudgetBytes,
		ReclaimEverySweeps:      DefaultReclaimEverySweeps,
		FullQueuePolicy:         FullQueueBlockRetry,
		FullQueueRetryBackoff:   100 * time.Microsecond,
	}
}

// ProductionConfig returns a configuration tuned for production: larger
// queues, drop-and-count instead of blocking producers under sustained
// overload.
func ProductionConfig() Config {
	config := DefaultConfig()
	config.QueueCapacityBytes = DefaultQueueCapacityBytes * 4
	config.FullQueuePolicy = FullQueueDropAndCount

	return config
}

// DevelopmentConfig returns a configuration tuned for local development:
// smaller queues, tighter backoff so traces appear promptly.
func DevelopmentConfig() Config {
	config := DefaultConfig()
	config.QueueCapacityBytes = DefaultQueueCapacityBytes / 4
	config.BackendSleepMaxNs = DefaultBackendSleepMaxNs / 4

	return config
}

// SetOutput resolves an output destination string to an io.Writer. It accepts
// "stdout", "stderr", or a file path, creating the file if it doesn't exist
// and opening it in append mode.
func SetOutput(output string) (io.Writer, error) {
	switch constants.OutputType(strings.ToLower(output)) {
	case constants.LogOutputStdout:
		return os.Stdout, nil
	case constants.LogOutputStderr:
		return os.Stderr, nil
	default:
		// Anything else is treated as constants.LogOutputFile: a path rather
		// than a named stream.
		path := filepath.Clean(output)

		if path == "" {
			return nil, ewrap.New("output path cannot be empty")
		}

		if !filepath.IsAbs(path) {
			securePath, err := utils.SecurePath(path)
			if err != nil {
				return nil, ewrap.Wrap(err, "invalid output path")
			}

			path = securePath
		}

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
		if err != nil {
			return nil, ewrap.Wrapf(err, "failed to open log file %s", path)
		}

		return file, nil
	}
}
