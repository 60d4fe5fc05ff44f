// Package datasource declares the external DataSourceSet collaborator: the
// named, append-only commit logs RTC applies prepared transactions against
// and streams commit tails from (spec §2, §4.4, §4.5).
package datasource

import (
	"context"
	"io"

	"github.com/luxgraph/rtc/internal/session"
)

// Record is one entry in a resource's commit log: the txid it was committed
// under and the prepared payload that produced it.
type Record struct {
	TxID    uint64
	Payload []byte
}

// Source is a single named append-only log.
type Source interface {
	// Name is the resource name this source is registered under (e.g.
	// "neostore"), used to resolve commitSingleResourceTransaction's
	// resourceName argument.
	Name() string
	// ApplyPrepared writes payload as the next committed record and returns
	// the txid it was assigned. Commit ordering is total and monotone per
	// resource (spec §8 invariant 5): two calls against the same Source
	// never return the same or an out-of-order txid.
	ApplyPrepared(ctx context.Context, payload []byte) (txid uint64, err error)
	// Tail returns, in ascending txid order, every committed record with
	// txid > sinceTxID. The returned slice may be read lazily by the caller
	// but Source itself is free to materialize it eagerly; RTC's streaming
	// contract (restartable once, closes when drained) is implemented by
	// the response package on top of this, not by Source.
	Tail(ctx context.Context, sinceTxID uint64) ([]Record, error)
	// HeadTxID returns the txid of the most recently committed record, or 0
	// if the log is empty. The response packer uses it to decide whether a
	// cached tail segment is still fresh (internal/response).
	HeadTxID(ctx context.Context) (uint64, error)
}

// Set is the external collaborator resolving resource names to Sources and
// answering which master produced a historical commit (spec §2,
// "DataSourceSet (external)").
type Set interface {
	// ByName resolves resourceName to its Source, or (nil, false) if no
	// such resource is registered (commitSingleResourceTransaction's
	// UnknownResource error, spec §4.4 step 2).
	ByName(resourceName string) (Source, bool)
	// GetMasterFor resolves the (masterEpoch, previousTxID) pair for a
	// historical commit, backing getMasterIdForCommittedTx (spec §4.6).
	GetMasterFor(ctx context.Context, txid uint64) (masterEpoch uint64, previousTxID uint64, err error)
}

// Copier is the external collaborator backing copyStore (spec §4.6): the
// storage engine itself is out of scope (spec §1), but it must expose a
// rotate-and-stream operation RTC can drive. CopyStore rotates every
// resource's log and streams the resulting store image to w, returning the
// watermark each resource's log now starts from so the caller's session can
// be rebased onto the post-rotation state.
type Copier interface {
	CopyStore(ctx context.Context, w io.Writer) ([]session.Watermark, error)
}
