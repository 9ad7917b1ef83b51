package ring

import "github.com/hyp3rd/ewrap"

// ErrOutOfMemory mirrors the transport-wide allocator-failure sentinel.
var ErrOutOfMemory = ewrap.New("ring: out of memory")

// ErrOsFailure mirrors the transport-wide OS-abstraction-layer sentinel.
var ErrOsFailure = ewrap.New("ring: os failure")

// MirroredRegion is a "magic ring buffer": a region of capacity bytes
// double-mapped so that it appears twice, back to back, in the process's
// address space. Any contiguous read or write of up to capacity bytes
// starting anywhere in [0, capacity) stays valid even when it crosses the
// physical wrap point, because bytes written past the first mapping land in
// physical memory also visible through the first mapping's start.
//
// The backing storage is always anonymous: on POSIX it is an unlinked shm/tmp
// file, on Windows an unnamed file mapping. Nothing is ever persisted.
type MirroredRegion struct {
	capacity int
	data     []byte
	impl     mirrorImpl
}

// NewMirroredRegion creates a new double-mapped region of capacityBytes,
// which must be a multiple of the OS page size.
func NewMirroredRegion(capacityBytes int) (*MirroredRegion, error) {
	pageSize := PageSize()
	if capacityBytes <= 0 || capacityBytes%pageSize != 0 {
		return nil, ErrInvalidArgument.WithMetadata("capacity_bytes", capacityBytes).
			WithMetadata("page_size", pageSize)
	}

	impl, data, err := newMirrorImpl(capacityBytes)
	if err != nil {
		return nil, err
	}

	return &MirroredRegion{capacity: capacityBytes, data: data, impl: impl}, nil
}

// Slice returns a length-n window into the region starting at offset,
// wrapping through the mirror as needed. offset must be in [0, capacity) and
// n must not exceed capacity.
func (r *MirroredRegion) Slice(offset, n int) []byte {
	return r.data[offset : offset+n]
}

// Capacity returns the region's single-copy byte capacity.
func (r *MirroredRegion) Capacity() int {
	return r.capacity
}

// Close unmaps and releases the region.
func (r *MirroredRegion) Close() error {
	return r.impl.close()
}

// mirrorImpl is the platform-specific handle kept alive so the mapping
// created by newMirrorImpl can later be torn down.
type mirrorImpl interface {
	close() error
}
