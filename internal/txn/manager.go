// Package txn encapsulates the suspend/resume discipline RTC must observe
// against a thread-affine local transaction manager, per spec §4.1 and the
// design note in §9 ("Thread-affine transaction manager", option (b)).
package txn

import (
	"context"
	"errors"

	"github.com/luxgraph/rtc/internal/session"
)

// Handle is the opaque local transaction handle LocalTxManager hands out.
type Handle = session.Handle

// ErrNotCurrent is returned by Manager.Suspend/Commit/Rollback if the calling
// goroutine has no transaction currently bound. It signals a bug in RTC's
// own swap-protocol bookkeeping, not a caller error.
var ErrNotCurrent = errors.New("txn: no transaction is current on this goroutine")

// Manager is the external, thread-affine local transaction manager (spec
// §2, "LocalTxManager (external)"). Exactly one transaction may be "current"
// for the goroutine that is calling these methods at any instant; Begin,
// Resume, Suspend, Commit, and Rollback all implicitly operate on whatever
// is current. RTC never calls these concurrently for one goroutine, and
// never calls Resume(h) for a handle another goroutine has not first
// Suspended.
type Manager interface {
	// Begin starts a new transaction, binds it as current on the calling
	// goroutine, and returns its handle.
	Begin(ctx context.Context) (Handle, error)
	// Current returns the handle bound to the calling goroutine, or
	// (nil, false) if none is bound.
	Current() (Handle, bool)
	// Suspend detaches whatever transaction is current from the calling
	// goroutine without altering its state. It is an error to call Suspend
	// with nothing current.
	Suspend() error
	// Resume re-binds handle as current on the calling goroutine. handle
	// must have been produced by a prior Begin and not concurrently resumed
	// elsewhere.
	Resume(handle Handle) error
	// Commit commits whatever transaction is current and releases its
	// locks (via the Tracker the transaction was opened with).
	Commit() error
	// Rollback aborts whatever transaction is current and releases its
	// locks.
	Rollback() error
}
