package rtc

import (
	"context"
	"io"
	"time"

	"github.com/luxgraph/rtc/internal/idalloc"
	"github.com/luxgraph/rtc/internal/locking"
	"github.com/luxgraph/rtc/internal/response"
	"github.com/luxgraph/rtc/internal/rtcerr"
	"github.com/luxgraph/rtc/internal/session"
	"github.com/luxgraph/rtc/internal/txn"
)

// Facade is the RTC entry point: one method per operation in spec §6. The
// session-bound operations wrap their body in an enter/leave pair (spec
// §4.1); AllocateIds, GetMasterIdForCommittedTx and Shutdown take no session.
type Facade struct {
	ctx *Context
}

// New returns a Facade over ctx. ctx must pass Validate.
func New(ctx *Context) *Facade {
	return &Facade{ctx: ctx}
}

// bind enters key's transaction, invokes body, and releases with the outcome
// body returns, even when body also returns an error; if body panics, it
// rolls back. An error from the release is returned when body itself
// succeeded. This is the one place every session-bound operation below
// funnels through, so the enter/defer-Release discipline in spec §4.1/§9 is
// never hand-rolled twice.
func (f *Facade) bind(ctx context.Context, key session.Key, allowBegin bool, body func() (txn.Outcome, error)) (bodyErr error) {
	bound, err := txn.Enter(ctx, f.ctx.Txn, f.ctx.Registry, f.ctx.Clock, key, allowBegin)
	if err != nil {
		return err
	}
	outcome := txn.Rollback
	defer func() {
		if relErr := bound.Release(outcome); relErr != nil && bodyErr == nil {
			bodyErr = relErr
		}
	}()
	outcome, bodyErr = body()
	return bodyErr
}

// InitializeTx registers session, beginning its transaction (spec §4.6). It
// is the only operation that begins one: every other session-bound
// operation fails with rtcerr.ErrNoSuchSession for an unregistered session.
func (f *Facade) InitializeTx(ctx context.Context, key session.Key) (response.Response[struct{}], error) {
	var resp response.Response[struct{}]
	err := f.bind(ctx, key, true, func() (txn.Outcome, error) {
		var err error
		resp, err = response.Pack(ctx, f.ctx.Packer, struct{}{}, key, resourcesFor(key), response.AcceptAll)
		return txn.Keep, err
	})
	return resp, err
}

// acquire runs the spec §4.3 algorithm for one entity list under key's
// transaction, timing the acquisition and recording its LockResult in the
// metrics registry.
func (f *Facade) acquire(ctx context.Context, key session.Key, mode locking.Mode, resources []locking.Resource) (response.Response[locking.Result], error) {
	var resp response.Response[locking.Result]
	err := f.bind(ctx, key, false, func() (txn.Outcome, error) {
		start := time.Now()
		result := locking.Acquire(ctx, f.ctx.Locks, f.ctx.Tracker, mode, resources)
		f.observeLock(resources, mode, result, time.Since(start))

		var err error
		resp, err = response.Pack(ctx, f.ctx.Packer, result, key, resourcesFor(key), response.AcceptAll)
		return txn.Keep, err
	})
	return resp, err
}

func (f *Facade) observeLock(resources []locking.Resource, mode locking.Mode, result locking.Result, d time.Duration) {
	if f.ctx.Metrics == nil {
		return
	}
	kind := "none"
	if len(resources) > 0 {
		kind = resources[0].Kind.String()
	}
	f.ctx.Metrics.LockAcquireDuration.WithLabelValues(kind, mode.String()).Observe(d.Seconds())

	label := "ok"
	switch result.Status {
	case locking.NotLocked:
		label = "not_locked"
	case locking.DeadLocked:
		label = "deadlocked"
	}
	f.ctx.Metrics.LockResults.WithLabelValues(label).Inc()
}

// AcquireNodeReadLock acquires shared locks on the given node ids (spec §6).
func (f *Facade) AcquireNodeReadLock(ctx context.Context, key session.Key, ids []uint64) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Read, nodeResources(ids))
}

// AcquireNodeWriteLock acquires exclusive locks on the given node ids.
func (f *Facade) AcquireNodeWriteLock(ctx context.Context, key session.Key, ids []uint64) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Write, nodeResources(ids))
}

// AcquireRelationshipReadLock acquires shared locks on the given
// relationship ids.
func (f *Facade) AcquireRelationshipReadLock(ctx context.Context, key session.Key, ids []uint64) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Read, relationshipResources(ids))
}

// AcquireRelationshipWriteLock acquires exclusive locks on the given
// relationship ids.
func (f *Facade) AcquireRelationshipWriteLock(ctx context.Context, key session.Key, ids []uint64) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Write, relationshipResources(ids))
}

// AcquireGraphReadLock acquires a shared lock on the whole-graph properties
// resource.
func (f *Facade) AcquireGraphReadLock(ctx context.Context, key session.Key) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Read, []locking.Resource{locking.GraphResource()})
}

// AcquireGraphWriteLock acquires an exclusive lock on the whole-graph
// properties resource.
func (f *Facade) AcquireGraphWriteLock(ctx context.Context, key session.Key) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Write, []locking.Resource{locking.GraphResource()})
}

// AcquireIndexReadLock acquires a shared lock on one (index, key) pair.
func (f *Facade) AcquireIndexReadLock(ctx context.Context, key session.Key, index, indexKey string) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Read, []locking.Resource{locking.IndexResource(index, indexKey)})
}

// AcquireIndexWriteLock acquires an exclusive lock on one (index, key) pair.
func (f *Facade) AcquireIndexWriteLock(ctx context.Context, key session.Key, index, indexKey string) (response.Response[locking.Result], error) {
	return f.acquire(ctx, key, locking.Write, []locking.Resource{locking.IndexResource(index, indexKey)})
}

func nodeResources(ids []uint64) []locking.Resource {
	out := make([]locking.Resource, len(ids))
	for i, id := range ids {
		out[i] = locking.NodeResource(id)
	}
	return out
}

func relationshipResources(ids []uint64) []locking.Resource {
	out := make([]locking.Resource, len(ids))
	for i, id := range ids {
		out[i] = locking.RelationshipResource(id)
	}
	return out
}

// CommitSingleResourceTransaction applies payload against resourceName's
// log and returns its committed txid, with a commit tail excluding that
// record itself (spec §4.4).
func (f *Facade) CommitSingleResourceTransaction(ctx context.Context, key session.Key, resourceName string, payload []byte) (response.Response[uint64], error) {
	var resp response.Response[uint64]
	err := f.bind(ctx, key, false, func() (txn.Outcome, error) {
		src, ok := f.ctx.Sources.ByName(resourceName)
		if !ok {
			return txn.Keep, rtcerr.ErrUnknownResource
		}

		start := time.Now()
		txid, err := src.ApplyPrepared(ctx, payload)
		if f.ctx.Metrics != nil {
			f.ctx.Metrics.CommitDuration.WithLabelValues(resourceName).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			return txn.Keep, rtcerr.Wrap(rtcerr.ErrIO, err)
		}

		resp, err = response.Pack(ctx, f.ctx.Packer, txid, key, resourcesFor(key, resourceName), commitTailFilter(resourceName, txid))
		if err != nil {
			return txn.Keep, rtcerr.Wrap(rtcerr.ErrIO, err)
		}
		// The slave calls finishTransaction explicitly; the session stays
		// registered (spec §4.4 step 5).
		return txn.Keep, nil
	})
	return resp, err
}

// commitTailFilter excludes committedResource's own just-written txid from
// the tail (self-echo, spec §4.4 step 4) while leaving every other
// resource's tail untouched.
func commitTailFilter(committedResource string, txid uint64) response.Filter {
	return func(resource string, candidate uint64) bool {
		if resource == committedResource {
			return candidate < txid
		}
		return true
	}
}

// FinishTransaction commits or rolls back key's transaction and removes it
// from the registry (spec §4.6).
func (f *Facade) FinishTransaction(ctx context.Context, key session.Key, success bool) (response.Response[struct{}], error) {
	var resp response.Response[struct{}]
	err := f.bind(ctx, key, false, func() (txn.Outcome, error) {
		outcome := txn.Rollback
		if success {
			outcome = txn.Commit
		}
		var err error
		resp, err = response.Pack(ctx, f.ctx.Packer, struct{}{}, key, resourcesFor(key), response.AcceptAll)
		return outcome, err
	})
	return resp, err
}

// AllocateIds pulls a batch of idType ids from the IdAllocator. It needs no
// session affinity (spec §4.6), so it takes no session key and never enters
// the swap protocol.
func (f *Facade) AllocateIds(ctx context.Context, idType string, size int) (response.Response[idalloc.Allocation], error) {
	alloc, err := f.ctx.Ids.Allocate(ctx, idType, size)
	if err != nil {
		return response.Response[idalloc.Allocation]{}, err
	}
	return response.PackWithoutStream(alloc), nil
}

// CreateRelationshipType interns name under key's transaction and returns
// its numeric type id (spec §4.6).
func (f *Facade) CreateRelationshipType(ctx context.Context, key session.Key, name string) (response.Response[int], error) {
	var resp response.Response[int]
	err := f.bind(ctx, key, false, func() (txn.Outcome, error) {
		id := f.ctx.Types.Intern(name)
		var err error
		resp, err = response.Pack(ctx, f.ctx.Packer, id, key, resourcesFor(key), response.AcceptAll)
		return txn.Keep, err
	})
	return resp, err
}

// PullUpdates carries no payload of its own; it exists purely so the caller
// receives a fresh commit tail (spec §4.6).
func (f *Facade) PullUpdates(ctx context.Context, key session.Key) (response.Response[struct{}], error) {
	var resp response.Response[struct{}]
	err := f.bind(ctx, key, false, func() (txn.Outcome, error) {
		var err error
		resp, err = response.Pack(ctx, f.ctx.Packer, struct{}{}, key, resourcesFor(key), response.AcceptAll)
		return txn.Keep, err
	})
	return resp, err
}

// GetMasterIdForCommittedTx resolves the (masterEpoch, previousTxID) pair
// for a historical commit. storeId identifies which store the caller
// believes txid belongs to; RTC threads it through to the log line but does
// not itself validate it against DataSourceSet, which is store-agnostic by
// construction (spec §4.6).
func (f *Facade) GetMasterIdForCommittedTx(ctx context.Context, txid uint64, storeId string) (response.Response[MasterRef], error) {
	masterEpoch, previousTxID, err := f.ctx.Sources.GetMasterFor(ctx, txid)
	if err != nil {
		f.ctx.Log.Warn("getMasterIdForCommittedTx failed", "txid", txid, "storeId", storeId, "err", err)
		return response.Response[MasterRef]{}, rtcerr.Wrap(rtcerr.ErrIO, err)
	}
	return response.PackWithoutStream(MasterRef{MasterEpoch: masterEpoch, PreviousTxID: previousTxID}), nil
}

// MasterRef is the (masterEpoch, previousTxID) pair getMasterIdForCommittedTx
// resolves (spec §3 Response<T>, §4.6).
type MasterRef struct {
	MasterEpoch  uint64
	PreviousTxID uint64
}

// CopyStore rotates every resource's log, streams the resulting store image
// to w, and returns the post-rotation watermarks as the response's Value,
// with no commit tail (spec §4.6). Per the
// recorded decision on the "makeSureThereIsAtLeastOneKernelTx" open question
// (spec §9), this does not special-case an empty tail; it packs exactly the
// watermarks the Copier reports.
func (f *Facade) CopyStore(ctx context.Context, key session.Key, w io.Writer) (response.Response[[]session.Watermark], error) {
	var resp response.Response[[]session.Watermark]
	err := f.bind(ctx, key, false, func() (txn.Outcome, error) {
		watermarks, err := f.ctx.Copier.CopyStore(ctx, w)
		if err != nil {
			return txn.Keep, rtcerr.Wrap(rtcerr.ErrIO, err)
		}
		resp = response.PackWithoutStream(watermarks)
		return txn.Keep, nil
	})
	return resp, err
}

// Shutdown stops the Reaper and lets in-flight requests drain best-effort
// (spec §4.6); the actual ticker lifecycle lives on Reaper itself, this just
// gives the Facade a symmetric operation in the §6 surface.
func (f *Facade) Shutdown(ctx context.Context, reaper *Reaper) (response.Response[struct{}], error) {
	if reaper != nil {
		reaper.Stop()
	}
	return response.PackWithoutStream(struct{}{}), nil
}
