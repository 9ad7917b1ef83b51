//go:build unix

package ring

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unixMirror holds the backing file and the raw double-mapped reservation so
// Close can tear both down in the right order.
type unixMirror struct {
	file     *os.File
	reserved []byte
}

func (m *unixMirror) close() error {
	if err := unix.Munmap(m.reserved); err != nil {
		return ErrOsFailure.WithMetadata("syscall", "munmap").WithMetadata("errno", err.Error())
	}

	return m.file.Close()
}

// newMirrorImpl implements the mirrored-region recipe from quill's original
// Os.cpp: create an unlinked backing file in /dev/shm (falling back to the
// system temp dir), size it to capacity, reserve 2*capacity bytes of address
// space, then map the file twice, back to back, over that reservation.
func newMirrorImpl(capacity int) (mirrorImpl, []byte, error) {
	file, err := createBackingFile(capacity)
	if err != nil {
		return nil, nil, err
	}

	reserved, err := unix.Mmap(-1, 0, 2*capacity, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		file.Close()

		return nil, nil, ErrOutOfMemory.WithMetadata("syscall", "mmap_reserve").WithMetadata("errno", err.Error())
	}

	base := uintptr(unsafe.Pointer(&reserved[0]))

	if err := mapFixed(int(file.Fd()), base, capacity); err != nil {
		unix.Munmap(reserved) //nolint:errcheck // best-effort cleanup on the failure path
		file.Close()

		return nil, nil, err
	}

	if err := mapFixed(int(file.Fd()), base+uintptr(capacity), capacity); err != nil {
		unix.Munmap(reserved) //nolint:errcheck // best-effort cleanup on the failure path
		file.Close()

		return nil, nil, err
	}

	return &unixMirror{file: file, reserved: reserved}, reserved[:capacity], nil
}

// mapFixed maps fd over [addr, addr+length) using MAP_FIXED, relying on the
// kernel to atomically replace whatever reservation already lives there.
func mapFixed(fd int, addr uintptr, length int) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		uintptr(length),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
		uintptr(fd),
		0,
	)
	if errno != 0 {
		return ErrOsFailure.WithMetadata("syscall", "mmap_fixed").WithMetadata("errno", errno.Error())
	}

	return nil
}

// createBackingFile creates an unlinked, capacity-sized shared-memory-backed
// file: /dev/shm first, /tmp on failure, matching the original's fallback.
func createBackingFile(capacity int) (*os.File, error) {
	file, err := os.CreateTemp("/dev/shm", "quill-")
	if err != nil {
		file, err = os.CreateTemp("", "quill-")
		if err != nil {
			return nil, ErrOsFailure.WithMetadata("syscall", "mkstemp").WithMetadata("errno", err.Error())
		}
	}

	path := file.Name()

	if err := os.Remove(path); err != nil {
		file.Close()

		return nil, ErrOsFailure.WithMetadata("syscall", "unlink").WithMetadata("errno", err.Error())
	}

	if err := file.Truncate(int64(capacity)); err != nil {
		file.Close()

		return nil, ErrOsFailure.WithMetadata("syscall", "ftruncate").WithMetadata("errno", err.Error())
	}

	return file, nil
}
