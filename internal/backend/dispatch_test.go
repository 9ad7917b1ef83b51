package backend_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill/internal/backend"
	"github.com/hal177/quill/internal/record"
)

func TestDispatcherInvokesCommandCallback(t *testing.T) {
	table := backend.NewCommandTable()

	invoked := false
	handle := table.Register(func() { invoked = true })

	buf := make([]byte, 16)
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, handle)

	n, err := record.Encode(buf, record.CommandTag, payload)
	require.NoError(t, err)

	d := &backend.Dispatcher{Commands: table}
	consumed := d.Dispatch(buf, n)

	require.Equal(t, n, consumed)
	require.True(t, invoked)
	require.Equal(t, 0, table.Pending())
}

func TestDispatcherReportsHandlerFailureButStillConsumes(t *testing.T) {
	var gotErr error

	buf := make([]byte, 16)
	n, err := record.Encode(buf, record.LogTag, []byte("boom"))
	require.NoError(t, err)

	d := &backend.Dispatcher{
		Handler: func(_ uint16, _ []byte) error { return errors.New("handler exploded") },
		OnError: func(_ uint16, err error) { gotErr = err },
	}

	consumed := d.Dispatch(buf, n)

	require.Equal(t, n, consumed)
	require.Error(t, gotErr)
}

func TestDispatcherStopsAtBudget(t *testing.T) {
	full := make([]byte, 32)
	n, err := record.Encode(full, record.LogTag, []byte("one"))
	require.NoError(t, err)

	n2, err := record.Encode(full[n:], record.LogTag, []byte("two"))
	require.NoError(t, err)

	var seen []string

	d := &backend.Dispatcher{Handler: func(_ uint16, bytes []byte) error {
		seen = append(seen, string(bytes))

		return nil
	}}

	// Only offer the first record's worth of bytes as budget.
	consumed := d.Dispatch(full, n)

	require.Equal(t, n, consumed)
	require.Equal(t, []string{"one"}, seen)
	require.Positive(t, n2)
}
