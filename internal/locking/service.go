package locking

import "context"

// DeadlockError is returned by Service when acquiring resource would create a
// cycle in the global wait-for graph. The Facade converts it into a
// Deadlocked Result rather than propagating it (spec §4.3 step 3).
type DeadlockError struct {
	Resource Resource
	Message  string
}

func (e *DeadlockError) Error() string {
	return "deadlock detected acquiring " + e.Resource.String() + ": " + e.Message
}

// IllegalResourceError is returned by Service when resource cannot be locked
// at all (e.g. it names an entity that cannot exist). The Facade converts it
// into a NotLocked Result (spec §4.3 step 4).
type IllegalResourceError struct {
	Resource Resource
}

func (e *IllegalResourceError) Error() string {
	return "illegal lock resource " + e.Resource.String()
}

// Service is the external collaborator providing read/write locks over
// Resource keys with deadlock detection (spec §2, "LockService (external)").
// RTC never implements lock acquisition or deadlock detection itself; it
// only drives this interface in the order the caller listed entities (spec
// §4.3, "Ordering").
type Service interface {
	// AcquireRead blocks until a shared lock on resource is held by the
	// currently bound transaction, returns *DeadlockError or
	// *IllegalResourceError, or succeeds.
	AcquireRead(ctx context.Context, resource Resource) error
	// AcquireWrite blocks until an exclusive lock on resource is held by the
	// currently bound transaction, returns *DeadlockError or
	// *IllegalResourceError, or succeeds.
	AcquireWrite(ctx context.Context, resource Resource) error
}

// Tracker is the external collaborator recording which locks belong to the
// currently-resumed transaction, so they can be released in bulk on commit
// or rollback (spec §2, "LockTracker (external)"). RTC calls AddLock once
// per resource immediately after the matching Service acquisition succeeds;
// it never calls Release directly — that is LocalTxManager's job when it
// commits or rolls back the transaction the locks are tracked against.
type Tracker interface {
	AddLock(resource Resource, mode Mode)
}

// Acquire runs the spec §4.3 algorithm for one entity list: for each
// resource, in the caller's order, acquire the lock via svc and record it in
// tracker. It returns the first structured Result that is not OkLocked,
// short-circuiting the remaining resources (the slave will re-send or
// surface the error and never sees a partial success silently extended).
func Acquire(ctx context.Context, svc Service, tracker Tracker, mode Mode, resources []Resource) Result {
	for _, res := range resources {
		var err error
		if mode == Write {
			err = svc.AcquireWrite(ctx, res)
		} else {
			err = svc.AcquireRead(ctx, res)
		}
		if err != nil {
			var dl *DeadlockError
			if asDeadlock(err, &dl) {
				return Deadlocked(dl.Message)
			}
			var illegal *IllegalResourceError
			if asIllegal(err, &illegal) {
				return NotLockedResult
			}
			// Any other error from the lock service is treated the same as
			// an illegal-resource condition: the caller never sees a Go
			// error cross this boundary (spec §7).
			return NotLockedResult
		}
		tracker.AddLock(res, mode)
	}
	return Ok
}

func asDeadlock(err error, target **DeadlockError) bool {
	if dl, ok := err.(*DeadlockError); ok {
		*target = dl
		return true
	}
	return false
}

func asIllegal(err error, target **IllegalResourceError) bool {
	if illegal, ok := err.(*IllegalResourceError); ok {
		*target = illegal
		return true
	}
	return false
}
