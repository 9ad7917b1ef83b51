//go:build darwin

package ring

import "golang.org/x/sys/unix"

// SetCPUAffinity is a documented no-op on Darwin: the kernel offers no
// per-thread CPU pinning API reachable without cgo. It never errors, per the
// OS abstraction layer's contract that affinity is best-effort.
func SetCPUAffinity(_ int) error {
	return nil
}

// SetThreadName is a documented no-op on Darwin for the same reason pinning
// is: pthread_setname_np has no syscall-level equivalent reachable from pure
// Go. It never errors.
func SetThreadName(_ string) error {
	return nil
}

// CurrentThreadID falls back to the process id on Darwin, where there is no
// portable non-cgo per-thread id; this matches the OS abstraction layer's
// explicit allowance for a stable process-local id.
func CurrentThreadID() uint32 {
	return uint32(unix.Getpid()) //nolint:gosec // pids are small positive ints in practice
}
