package txn

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxgraph/rtc/internal/rtcclock"
	"github.com/luxgraph/rtc/internal/rtcerr"
	"github.com/luxgraph/rtc/internal/session"
)

// fakeManager is a single-goroutine LocalTxManager fake: since these tests
// only ever drive enter/leave sequentially from one goroutine, a plain
// "current" field is sufficient and keeps the test setup small.
type fakeManager struct {
	current  Handle
	nextID   int
	rolledBack []Handle
	committed  []Handle
}

func (m *fakeManager) Begin(ctx context.Context) (Handle, error) {
	if m.current != nil {
		return nil, ErrNotCurrent
	}
	m.nextID++
	m.current = m.nextID
	return m.current, nil
}

func (m *fakeManager) Current() (Handle, bool) {
	if m.current == nil {
		return nil, false
	}
	return m.current, true
}

func (m *fakeManager) Suspend() error {
	if m.current == nil {
		return ErrNotCurrent
	}
	m.current = nil
	return nil
}

func (m *fakeManager) Resume(h Handle) error {
	if m.current != nil {
		return ErrNotCurrent
	}
	m.current = h
	return nil
}

func (m *fakeManager) Commit() error {
	if m.current == nil {
		return ErrNotCurrent
	}
	m.committed = append(m.committed, m.current)
	m.current = nil
	return nil
}

func (m *fakeManager) Rollback() error {
	if m.current == nil {
		return ErrNotCurrent
	}
	m.rolledBack = append(m.rolledBack, m.current)
	m.current = nil
	return nil
}

func testKey(origin uint32) session.Key {
	return session.NewKey(origin, uint256.Int{}, uint256.Int{}, nil)
}

// S1: begin + commit.
func TestEnterReleaseBeginThenCommit(t *testing.T) {
	mgr := &fakeManager{}
	registry := session.NewRegistry()
	clock := rtcclock.NewMock(time.Time{})
	key := testKey(1)

	bound, err := Enter(context.Background(), mgr, registry, clock, key, true)
	require.NoError(t, err)

	entry, ok := registry.Get(key)
	require.True(t, ok)
	require.Equal(t, session.StateExecuting, entry.State())

	require.NoError(t, bound.Release(Keep))
	entry, ok = registry.Get(key)
	require.True(t, ok)
	require.Equal(t, session.StateIdle, entry.State())

	bound, err = Enter(context.Background(), mgr, registry, clock, key, false)
	require.NoError(t, err)
	require.NoError(t, bound.Release(Commit))

	_, ok = registry.Get(key)
	require.False(t, ok)
	require.Len(t, mgr.committed, 1)
}

// S2: no-session write attempt.
func TestEnterNoSuchSessionWhenNotAllowed(t *testing.T) {
	mgr := &fakeManager{}
	registry := session.NewRegistry()
	clock := rtcclock.NewMock(time.Time{})

	_, err := Enter(context.Background(), mgr, registry, clock, testKey(99), false)
	require.ErrorIs(t, err, rtcerr.ErrNoSuchSession)
	require.Equal(t, 0, registry.Len())
}

// S5: nested re-entry guard.
func TestEnterNestedReentryIsANoop(t *testing.T) {
	mgr := &fakeManager{}
	registry := session.NewRegistry()
	clock := rtcclock.NewMock(time.Time{})
	key := testKey(1)

	outer, err := Enter(context.Background(), mgr, registry, clock, key, true)
	require.NoError(t, err)

	before, _ := mgr.Current()

	inner, err := Enter(context.Background(), mgr, registry, clock, key, true)
	require.NoError(t, err)

	after, _ := mgr.Current()
	require.Equal(t, before, after, "nested enter must not suspend/resume")

	require.NoError(t, inner.Release(Keep))
	after, _ = mgr.Current()
	require.Equal(t, before, after, "inner release is a no-op")

	require.NoError(t, outer.Release(Commit))
	_, ok := registry.Get(key)
	require.False(t, ok)
}

func TestEnterRestoresPriorAcrossSessions(t *testing.T) {
	mgr := &fakeManager{}
	registry := session.NewRegistry()
	clock := rtcclock.NewMock(time.Time{})
	s1, s2 := testKey(1), testKey(2)

	outer, err := Enter(context.Background(), mgr, registry, clock, s1, true)
	require.NoError(t, err)
	priorHandle, _ := mgr.Current()

	inner, err := Enter(context.Background(), mgr, registry, clock, s2, true)
	require.NoError(t, err)
	require.NoError(t, inner.Release(Commit))

	current, ok := mgr.Current()
	require.True(t, ok)
	require.Equal(t, priorHandle, current, "leaving the inner session must restore the outer one")

	require.NoError(t, outer.Release(Rollback))
}
