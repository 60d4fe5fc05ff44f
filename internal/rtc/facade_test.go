package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxgraph/rtc/internal/locking"
	"github.com/luxgraph/rtc/internal/refimpl"
	"github.com/luxgraph/rtc/internal/reltype"
	"github.com/luxgraph/rtc/internal/response"
	"github.com/luxgraph/rtc/internal/rtcclock"
	"github.com/luxgraph/rtc/internal/rtcerr"
	"github.com/luxgraph/rtc/internal/rtcmetrics"
	"github.com/luxgraph/rtc/internal/session"
	"github.com/luxgraph/rtc/log"
)

func testKey(origin uint32) session.Key {
	return session.NewKey(origin, uint256.Int{}, uint256.Int{}, nil)
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	lockService := refimpl.NewLockService()
	txManager := refimpl.NewTxManager(lockService)
	sources := refimpl.NewSet(1)
	sources.Register(refimpl.NewSource("neostore"))

	packer, err := response.NewPacker(sources, 16)
	require.NoError(t, err)

	return &Context{
		Clock:           rtcclock.NewMock(time.Time{}),
		Registry:        session.NewRegistry(),
		Txn:             txManager,
		Locks:           lockService,
		Tracker:         txManager,
		Sources:         sources,
		Copier:          sources,
		Ids:             refimpl.NewIdAllocator(),
		Types:           reltype.NewRegistry(),
		Packer:          packer,
		Metrics:         rtcmetrics.New(prometheus.NewRegistry()),
		Log:             log.New("test", true),
		ReadLockTimeout: time.Second,
	}
}

// S1: begin + commit.
func TestFacadeInitializeCommitCycle(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.Validate())
	f := New(ctx)
	key := testKey(1)

	_, err := f.InitializeTx(context.Background(), key)
	require.NoError(t, err)

	resp, err := f.CommitSingleResourceTransaction(context.Background(), key, "neostore", []byte("payload"))
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.Value)
	require.Empty(t, resp.CommitTail)

	_, err = f.FinishTransaction(context.Background(), key, true)
	require.NoError(t, err)

	_, ok := ctx.Registry.Get(key)
	require.False(t, ok, "finishTransaction must remove the session")
}

// S2: no-session write attempt.
func TestFacadeNoSuchSessionOnUnknownSession(t *testing.T) {
	ctx := newTestContext(t)
	f := New(ctx)

	_, err := f.AcquireNodeWriteLock(context.Background(), testKey(99), []uint64{42})
	require.ErrorIs(t, err, rtcerr.ErrNoSuchSession)
	require.Equal(t, 0, ctx.Registry.Len())
}

// Round-trip property 6: initializeTx then finishTransaction(success=false)
// leaves the registry unchanged (empty).
func TestInitializeThenFailedFinishLeavesRegistryEmpty(t *testing.T) {
	ctx := newTestContext(t)
	f := New(ctx)
	key := testKey(5)

	_, err := f.InitializeTx(context.Background(), key)
	require.NoError(t, err)
	_, err = f.FinishTransaction(context.Background(), key, false)
	require.NoError(t, err)

	require.Equal(t, 0, ctx.Registry.Len())
}

// S4: deadlock return, never propagated as a Go error.
type deadlockOnSecondWrite struct {
	calls int
}

func (d *deadlockOnSecondWrite) AcquireRead(ctx context.Context, resource locking.Resource) error {
	return nil
}

func (d *deadlockOnSecondWrite) AcquireWrite(ctx context.Context, resource locking.Resource) error {
	d.calls++
	if d.calls == 2 {
		return &locking.DeadlockError{Resource: resource, Message: "cycle"}
	}
	return nil
}

func TestAcquireWriteLockReturnsDeadlockedResult(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Locks = &deadlockOnSecondWrite{}
	f := New(ctx)
	key := testKey(1)

	_, err := f.InitializeTx(context.Background(), key)
	require.NoError(t, err)

	resp, err := f.AcquireNodeWriteLock(context.Background(), key, []uint64{1, 2})
	require.NoError(t, err, "deadlock must never cross the API boundary as an error")
	require.Equal(t, locking.DeadLocked, resp.Value.Status)
}

func TestCreateRelationshipTypeInterning(t *testing.T) {
	ctx := newTestContext(t)
	f := New(ctx)
	key := testKey(1)
	_, err := f.InitializeTx(context.Background(), key)
	require.NoError(t, err)

	resp1, err := f.CreateRelationshipType(context.Background(), key, "KNOWS")
	require.NoError(t, err)
	resp2, err := f.CreateRelationshipType(context.Background(), key, "KNOWS")
	require.NoError(t, err)
	require.Equal(t, resp1.Value, resp2.Value)
}

func TestAllocateIdsNeedsNoSession(t *testing.T) {
	ctx := newTestContext(t)
	f := New(ctx)

	resp, err := f.AllocateIds(context.Background(), "Node", 3)
	require.NoError(t, err)
	require.Len(t, resp.Value.Batch, 3)
	require.Empty(t, resp.CommitTail)
}

func TestCommitUnknownResourceFails(t *testing.T) {
	ctx := newTestContext(t)
	f := New(ctx)
	key := testKey(1)
	_, err := f.InitializeTx(context.Background(), key)
	require.NoError(t, err)

	_, err = f.CommitSingleResourceTransaction(context.Background(), key, "nope", nil)
	require.ErrorIs(t, err, rtcerr.ErrUnknownResource)
}
