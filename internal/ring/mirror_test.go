package ring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill/internal/ring"
)

func TestMirroredRegionRejectsNonPageMultiple(t *testing.T) {
	_, err := ring.NewMirroredRegion(ring.PageSize() + 1)
	require.Error(t, err)
}

func TestMirroredRegionAliasesAcrossTheWrapPoint(t *testing.T) {
	capacity := ring.PageSize()

	region, err := ring.NewMirroredRegion(capacity)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, region.Close())
	})

	// Write a run that starts 4 bytes before the end of the first copy and
	// runs 4 bytes past it; the second half of the write should land in the
	// mirrored copy and remain readable as one contiguous slice.
	offset := capacity - 4
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	window := region.Slice(offset, len(payload))
	copy(window, payload)

	require.Equal(t, payload, region.Slice(offset, len(payload)))
	require.Equal(t, payload[4:], region.Slice(0, 4))
}
