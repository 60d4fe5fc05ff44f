package session

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestRegistryBeginGetFinish(t *testing.T) {
	r := NewRegistry()
	key := NewKey(1, uint256.Int{}, uint256.Int{}, nil)

	_, ok := r.Get(key)
	require.False(t, ok)

	r.Begin(key, "handle-1")
	entry, ok := r.Get(key)
	require.True(t, ok)
	require.Equal(t, "handle-1", entry.Handle)
	require.Equal(t, StateExecuting, entry.State())

	r.MarkIdle(key, 1000)
	entry, _ = r.Get(key)
	require.Equal(t, StateIdle, entry.State())
	require.EqualValues(t, 1000, entry.LastActivity)

	r.MarkExecuting(key)
	entry, _ = r.Get(key)
	require.Equal(t, StateExecuting, entry.State())

	r.Finish(key)
	_, ok = r.Get(key)
	require.False(t, ok)
}

func TestRegistryBeginPanicsOnNilHandle(t *testing.T) {
	r := NewRegistry()
	require.Panics(t, func() {
		r.Begin(Empty, nil)
	})
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	k1 := NewKey(1, uint256.Int{}, uint256.Int{}, nil)
	k2 := NewKey(2, uint256.Int{}, uint256.Int{}, nil)
	r.Begin(k1, "h1")
	r.Begin(k2, "h2")

	snap := r.Snapshot()
	require.Len(t, snap, 2)

	r.Finish(k1)
	r.Finish(k2)

	// The snapshot taken before Finish must be unaffected by it.
	require.Len(t, snap, 2)
	require.Equal(t, 0, r.Len())
}

func TestRegistryMarkOperationsAreNoOpOnMissingKey(t *testing.T) {
	r := NewRegistry()
	require.NotPanics(t, func() {
		r.MarkExecuting(Empty)
		r.MarkIdle(Empty, 5)
		r.Finish(Empty)
	})
}
