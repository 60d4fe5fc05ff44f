// Package rtcerr defines the sentinel error kinds the RTC API surface can
// return, per spec §7 ("Error Handling Design"). They are plain values
// usable with errors.Is/errors.As, never the vehicle for Deadlock or
// NotLockable, which are structured locking.Result values instead.
package rtcerr

import "errors"

// ErrNoSuchSession is returned whenever a request names a session absent
// from the registry and is not permitted to create one. The slave
// interprets this as "master switched; abort and rebind" (spec §4.1 step
// 5, §7).
var ErrNoSuchSession = errors.New("rtc: no such session")

// ErrUnknownResource is returned by commitSingleResourceTransaction when the
// named resource has no backing data source (spec §4.4 step 2).
var ErrUnknownResource = errors.New("rtc: unknown resource")

// ErrIO wraps a failure from a data source or commit-log stream. It is
// always propagated; the session's transaction is deliberately left open so
// the slave can retry finishTransaction(success=false) (spec §7).
//
// Use Wrap to attach detail while keeping errors.Is(err, ErrIO) true.
var ErrIO = errors.New("rtc: io error")

// ErrInternal marks a condition the Reaper logs and suppresses rather than
// propagating, so one broken entry never stops a sweep (spec §4.2 step 4,
// §7).
var ErrInternal = errors.New("rtc: internal error")

// Wrap returns an error that is errors.Is(sentinel) and carries detail in
// its message, e.g. Wrap(ErrIO, applyErr) for a failed applyPrepared call.
func Wrap(sentinel error, detail error) error {
	return &wrapped{sentinel: sentinel, detail: detail}
}

type wrapped struct {
	sentinel error
	detail   error
}

func (w *wrapped) Error() string {
	if w.detail == nil {
		return w.sentinel.Error()
	}
	return w.sentinel.Error() + ": " + w.detail.Error()
}

func (w *wrapped) Unwrap() error { return w.sentinel }

// Cause returns the detail error passed to Wrap, or nil if none.
func (w *wrapped) Cause() error { return w.detail }
