//go:build windows

package ring

import "golang.org/x/sys/windows"

// SetCPUAffinity pins the calling OS thread to cpuID via SetThreadAffinityMask.
// The caller must have called runtime.LockOSThread() first.
func SetCPUAffinity(cpuID int) error {
	if cpuID < 0 {
		return nil
	}

	mask := uintptr(1) << uintptr(cpuID) //nolint:gosec // cpuID is caller-controlled but bounded by CPU count in practice

	handle, err := windows.GetCurrentThread()
	if err != nil {
		return ErrOsFailure.WithMetadata("syscall", "GetCurrentThread").WithMetadata("errno", err.Error())
	}

	if _, err := windows.SetThreadAffinityMask(handle, mask); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "SetThreadAffinityMask").WithMetadata("errno", err.Error())
	}

	return nil
}

// SetThreadName sets the calling thread's description via SetThreadDescription,
// available on Windows 10 1607+. Older Windows releases return a documented
// no-op failure that callers treat as non-fatal.
func SetThreadName(name string) error {
	handle, err := windows.GetCurrentThread()
	if err != nil {
		return ErrOsFailure.WithMetadata("syscall", "GetCurrentThread").WithMetadata("errno", err.Error())
	}

	utf16Name, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return ErrInvalidArgument.WithMetadata("name", name)
	}

	if err := windows.SetThreadDescription(handle, utf16Name); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "SetThreadDescription").WithMetadata("errno", err.Error())
	}

	return nil
}

// CurrentThreadID returns the Windows thread id.
func CurrentThreadID() uint32 {
	return windows.GetCurrentThreadId()
}
