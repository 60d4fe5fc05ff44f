package txn

import (
	"context"

	"github.com/luxgraph/rtc/internal/rtcclock"
	"github.com/luxgraph/rtc/internal/rtcerr"
	"github.com/luxgraph/rtc/internal/session"
)

// Outcome selects what Release does to the bound transaction.
type Outcome int

const (
	// Keep suspends the transaction and leaves the session registered,
	// arming it for Reaper consideration (spec §4.1, leave step 1).
	Keep Outcome = iota
	// Commit commits the transaction and removes the session (leave step 2).
	Commit
	// Rollback aborts the transaction and removes the session (leave step 3).
	Rollback
)

// Bound is the scoped binding returned by Enter. Exactly one Release call
// must follow every successful Enter, on every exit path including a panic
// unwinding through the request body — callers always write:
//
//	bound, err := txn.Enter(ctx, mgr, registry, clock, key, allowBegin)
//	if err != nil { return err }
//	outcome := txn.Rollback
//	defer func() { bound.Release(outcome) }()
//
// and set `outcome` before returning; the deferred closure reads it at
// release time, so it stays Rollback if the body panics. This is spec §9's
// option (b): the suspend/resume discipline is kept, but wrapped in a value
// whose release is deferred rather than hand-rolled at every call site.
type Bound struct {
	mgr      Manager
	registry *session.Registry
	clock    rtcclock.Clock
	key      session.Key
	prior    Handle
	// noop is set when Enter found this goroutine already bound to the
	// session's own transaction (spec §4.1 step 3, the nested re-entry
	// guard, scenario S5): Release must then do nothing at all.
	noop bool
}

// Enter implements spec §4.1's `enter` primitive. It binds key's
// transaction as current on the calling goroutine, beginning one if
// allowBegin is true and none exists yet, or failing with
// rtcerr.ErrNoSuchSession otherwise.
func Enter(
	ctx context.Context,
	mgr Manager,
	registry *session.Registry,
	clock rtcclock.Clock,
	key session.Key,
	allowBegin bool,
) (*Bound, error) {
	prior, priorOK := mgr.Current()
	if !priorOK {
		prior = nil
	}

	entry, hasEntry := registry.Get(key)
	var target Handle
	if hasEntry {
		target = entry.Handle
	}

	if priorOK && prior == target {
		// Nested re-entry on the same goroutine for the same session:
		// nothing to suspend or resume (spec §4.1 step 3, scenario S5).
		return &Bound{mgr: mgr, registry: registry, clock: clock, key: key, noop: true}, nil
	}

	if priorOK {
		if err := mgr.Suspend(); err != nil {
			return nil, err
		}
	}

	if !hasEntry {
		if !allowBegin {
			return nil, rtcerr.ErrNoSuchSession
		}
		h, err := mgr.Begin(ctx)
		if err != nil {
			return nil, err
		}
		registry.Begin(key, h)
		target = h
	} else {
		if err := mgr.Resume(target); err != nil {
			return nil, err
		}
	}

	registry.MarkExecuting(key)

	return &Bound{mgr: mgr, registry: registry, clock: clock, key: key, prior: prior}, nil
}

// Release implements spec §4.1's `leave` primitive, applying outcome to the
// bound transaction and restoring whatever was current before Enter.
func (b *Bound) Release(outcome Outcome) error {
	if b.noop {
		return nil
	}

	var err error
	switch outcome {
	case Keep:
		err = b.mgr.Suspend()
		b.registry.MarkIdle(b.key, b.clock.NowMillis())
	case Commit:
		err = b.mgr.Commit()
		b.registry.Finish(b.key)
	case Rollback:
		err = b.mgr.Rollback()
		b.registry.Finish(b.key)
	}

	if b.prior != nil {
		if resumeErr := b.mgr.Resume(b.prior); resumeErr != nil && err == nil {
			err = resumeErr
		}
	}
	return err
}
