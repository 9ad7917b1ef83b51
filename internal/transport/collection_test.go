package transport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill/internal/ring"
	"github.com/hal177/quill/internal/transport"
)

func TestCollectionSnapshotMergesPendingContexts(t *testing.T) {
	c := transport.NewCollection()

	require.Equal(t, 0, c.Len())
	require.Empty(t, c.Snapshot())

	ctx, err := c.LocalContext(ring.PageSize())
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, ctx.ID(), snap[0].ID())
	require.Equal(t, 1, c.Len())
}

func TestCollectionReclaimOnlyRemovesDetachedAndDrainedContexts(t *testing.T) {
	c := transport.NewCollection()

	live, err := c.LocalContext(ring.PageSize())
	require.NoError(t, err)

	detachedButNotDrained, err := c.LocalContext(ring.PageSize())
	require.NoError(t, err)

	detachedAndDrained, err := c.LocalContext(ring.PageSize())
	require.NoError(t, err)

	c.Snapshot()

	detachedButNotDrained.Detach()
	buf, ok := detachedButNotDrained.Queue().TryPrepare(8)
	require.True(t, ok)
	detachedButNotDrained.Queue().Commit(len(buf))

	detachedAndDrained.Detach()

	reclaimed := c.Reclaim()
	require.Equal(t, 1, reclaimed)
	require.Equal(t, 2, c.Len())

	_ = live
}
