//go:build windows

package ring

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// unsafeSliceFromPointer builds a []byte view of capacity bytes starting at a
// raw mapped address, but backed by 2*capacity bytes of address space so
// later reslicing past capacity (the mirrored half) stays within cap(). The
// memory is OS-managed, not Go-heap-managed, so it never moves and is safe to
// alias for the mirrored region's lifetime.
func unsafeSliceFromPointer(addr uintptr, capacity int) []byte {
	full := unsafe.Slice((*byte)(unsafe.Pointer(addr)), 2*capacity) //nolint:gosec // addr comes from a successful MapViewOfFileEx
	return full[:capacity]
}

// maxFixedMapAttempts bounds the probe-and-retry loop the original Os.cpp
// left unbounded; quill's Go port never spins forever on ERROR_INVALID_ADDRESS.
const maxFixedMapAttempts = 16

// windowsMirror holds the mapping handle and both view base addresses so
// Close can unmap and close them in order.
type windowsMirror struct {
	mapping windows.Handle
	base    uintptr
	length  uintptr
}

func (m *windowsMirror) close() error {
	if err := windows.UnmapViewOfFile(m.base); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "UnmapViewOfFile").WithMetadata("errno", err.Error())
	}

	if err := windows.UnmapViewOfFile(m.base + m.length); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "UnmapViewOfFile").WithMetadata("errno", err.Error())
	}

	return windows.CloseHandle(m.mapping)
}

// newMirrorImpl implements the Windows half of the mirrored-region recipe:
// an unnamed page-file-backed mapping of 2*capacity, a probe mapping to find
// a free address range, then two fixed-address views over that range.
func newMirrorImpl(capacity int) (mirrorImpl, []byte, error) {
	size := uint64(2 * capacity) //nolint:gosec // capacity validated by caller

	mapping, err := windows.CreateFileMapping(
		windows.InvalidHandle,
		nil,
		windows.PAGE_READWRITE,
		uint32(size>>32),        //nolint:gosec // intentional split of a 64-bit size
		uint32(size&0xFFFFFFFF), //nolint:gosec // intentional split of a 64-bit size
		nil,
	)
	if err != nil {
		return nil, nil, ErrOsFailure.WithMetadata("syscall", "CreateFileMapping").WithMetadata("errno", err.Error())
	}

	base, err := probeFreeRange(mapping, uintptr(2*capacity)) //nolint:gosec // capacity validated by caller
	if err != nil {
		windows.CloseHandle(mapping) //nolint:errcheck // best-effort cleanup on the failure path

		return nil, nil, err
	}

	if err := mapFixedAt(mapping, base, uintptr(capacity), 0); err != nil {
		windows.CloseHandle(mapping) //nolint:errcheck // best-effort cleanup on the failure path

		return nil, nil, err
	}

	if err := mapFixedAt(mapping, base+uintptr(capacity), uintptr(capacity), 0); err != nil {
		windows.UnmapViewOfFile(base) //nolint:errcheck // best-effort cleanup on the failure path
		windows.CloseHandle(mapping)  //nolint:errcheck // best-effort cleanup on the failure path

		return nil, nil, err
	}

	data := unsafeSliceFromPointer(base, capacity)

	return &windowsMirror{mapping: mapping, base: base, length: uintptr(capacity)}, data, nil
}

// probeFreeRange maps length bytes with no fixed address to discover a
// candidate base, then immediately unmaps it so the fixed-address mappings
// below can claim it. A brand new address is not guaranteed to still be free
// by the time we remap it, so the caller retries on failure.
func probeFreeRange(mapping windows.Handle, length uintptr) (uintptr, error) {
	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ, 0, 0, length)
	if err != nil {
		return 0, ErrOsFailure.WithMetadata("syscall", "MapViewOfFile").WithMetadata("errno", err.Error())
	}

	if err := windows.UnmapViewOfFile(addr); err != nil {
		return 0, ErrOsFailure.WithMetadata("syscall", "UnmapViewOfFile").WithMetadata("errno", err.Error())
	}

	return addr, nil
}

// mapFixedAt retries MapViewOfFileEx at a fixed address, the original's
// handling of ERROR_INVALID_ADDRESS races against other allocations.
func mapFixedAt(mapping windows.Handle, addr uintptr, length uintptr, fileOffset uint64) error {
	var lastErr error

	for attempt := 0; attempt < maxFixedMapAttempts; attempt++ {
		_, err := windows.MapViewOfFileEx(
			mapping,
			windows.FILE_MAP_READ|windows.FILE_MAP_WRITE,
			uint32(fileOffset>>32),        //nolint:gosec // intentional split of a 64-bit offset
			uint32(fileOffset&0xFFFFFFFF), //nolint:gosec // intentional split of a 64-bit offset
			length,
			addr,
		)
		if err == nil {
			return nil
		}

		lastErr = err

		if !errorIsInvalidAddress(err) {
			break
		}
	}

	return ErrOsFailure.WithMetadata("syscall", "MapViewOfFileEx").WithMetadata("errno", lastErr.Error())
}

func errorIsInvalidAddress(err error) bool {
	errno, ok := err.(windows.Errno) //nolint:errorlint // windows syscalls surface bare Errno values
	if !ok {
		return false
	}

	return errno == windows.ERROR_INVALID_ADDRESS
}
