//go:build linux

package ring

import (
	"golang.org/x/sys/unix"
)

// SetCPUAffinity pins the calling OS thread to cpuID. The caller must have
// called runtime.LockOSThread() first; otherwise the Go scheduler may move
// the calling goroutine to a different OS thread immediately afterward.
func SetCPUAffinity(cpuID int) error {
	if cpuID < 0 {
		return nil
	}

	var set unix.CPUSet

	set.Zero()
	set.Set(cpuID)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "sched_setaffinity").WithMetadata("errno", err.Error())
	}

	return nil
}

// SetThreadName sets the OS-visible name of the calling thread, truncated to
// the platform's 16-byte (including NUL) limit.
func SetThreadName(name string) error {
	const maxLen = 15

	if len(name) > maxLen {
		name = name[:maxLen]
	}

	buf := append([]byte(name), 0)

	if err := unix.Prctl(unix.PR_SET_NAME, uintptrOf(buf), 0, 0, 0); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "prctl").WithMetadata("errno", err.Error())
	}

	return nil
}

// CurrentThreadID returns the OS-visible thread id (Linux TID, distinct from
// the process id for multi-threaded processes).
func CurrentThreadID() uint32 {
	return uint32(unix.Gettid()) //nolint:gosec // tids are small positive ints in practice
}
