package session

import (
	"sync"
)

// Handle is the opaque local-transaction handle TxRegistry stores per
// session. It is whatever the txn.Manager's Begin/Current returns; Registry
// never inspects it beyond nil-ness.
type Handle interface{}

// Executing is the sentinel lastActivity value meaning "this session's
// transaction is currently bound to a goroutine executing a request, or
// blocked waiting on a lock — the Reaper must never touch it" (spec §3).
const Executing int64 = 0

// Entry is the master-side bookkeeping record for one live session: its
// local transaction handle and the wall-clock moment (milliseconds) it last
// released the thread, or Executing while a request is in flight.
type Entry struct {
	Handle       Handle
	LastActivity int64
}

// State classifies an Entry per the per-session state machine in spec §4.7.
type State int

const (
	StateExecuting State = iota
	StateIdle
)

// State reports whether the entry is currently bound to an in-flight
// request (StateExecuting) or parked between requests (StateIdle).
func (e Entry) State() State {
	if e.LastActivity == Executing {
		return StateExecuting
	}
	return StateIdle
}

// Registry is the concurrent session→Entry map. All reads and writes
// synchronize on a single mutex (spec §4.2: "coarse locking is sufficient;
// entries are cheap"); iteration always goes through Snapshot so a caller
// never holds the registry lock while making a call into LocalTxManager,
// LockService, or any other component that might block.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]*Entry)}
}

// Get returns a copy of the entry for key, or (Entry{}, false) if none
// exists. Invariant 1 (spec §3): at most one Entry per Key, enforced simply
// by the map itself.
func (r *Registry) Get(key Key) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Begin inserts a new entry for key with the given handle, in the Executing
// state. It is invariant 3's only insertion point. Callers must have already
// established (via Get) that no entry exists; Begin overwrites unconditionally
// so the caller's read-then-decide is its own responsibility (the swap
// protocol in package txn holds no lock across the two calls, but only one
// goroutine can ever be in the "target == nil" branch of enter for a given
// key at a time in practice, since the underlying LocalTxManager serializes
// begin() per goroutine and sessions are not shared across concurrent
// requests per spec §5).
func (r *Registry) Begin(key Key, handle Handle) {
	if handle == nil {
		panic("session: Begin called with nil handle")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = &Entry{Handle: handle, LastActivity: Executing}
}

// MarkExecuting sets lastActivity = 0 for an existing entry, arming the "do
// not reap" guard for the duration of one request. It is a no-op if the key
// is absent.
func (r *Registry) MarkExecuting(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		e.LastActivity = Executing
	}
}

// MarkIdle sets lastActivity = nowMillis for an existing entry, arming it
// for Reaper consideration. It is a no-op if the key is absent.
func (r *Registry) MarkIdle(key Key, nowMillis int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		e.LastActivity = nowMillis
	}
}

// Finish removes key's entry unconditionally. It is invariant 3's only
// removal point, called from leave(commit) and leave(rollback), and from the
// Reaper's forced rollback.
func (r *Registry) Finish(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Len reports the number of live sessions, for the rtc_sessions_active gauge.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// SnapshotEntry pairs a Key with a copy of its Entry, returned by Snapshot.
type SnapshotEntry struct {
	Key   Key
	Entry Entry
}

// Snapshot copies out every (key, entry) pair under the lock, then returns
// without it held (spec §4.2, invariant 4): "concurrent iteration must take
// a snapshot; direct iteration while other threads insert/remove is
// forbidden". Callers iterate the returned slice freely and may block inside
// LocalTxManager or LockService while doing so without risking a deadlock
// against a concurrent Begin/Finish.
func (r *Registry) Snapshot() []SnapshotEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SnapshotEntry, 0, len(r.entries))
	for k, e := range r.entries {
		out = append(out, SnapshotEntry{Key: k, Entry: *e})
	}
	return out
}
