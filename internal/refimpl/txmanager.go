// Package refimpl provides in-memory reference implementations of every
// external collaborator RTC's Context needs (LocalTxManager, LockService,
// LockTracker, DataSourceSet, IdAllocator). The graph storage engine, ID
// generator, and cluster manager proper are genuinely out of scope (spec
// §1); these adapters exist so cmd/rtcd can run the coordinator standalone
// for demos and integration tests, not as a production substitute.
package refimpl

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/luxgraph/rtc/internal/locking"
	"github.com/luxgraph/rtc/internal/txn"
)

type heldLock struct {
	resource locking.Resource
	mode     locking.Mode
}

type localTx struct {
	id         uint64
	held       []heldLock
	committed  bool
	rolledBack bool
}

// TxManager is an in-memory LocalTxManager reference implementation (spec
// §2, "LocalTxManager (external)") that also implements locking.Tracker, so
// the locks a transaction accumulates can be released against its LockService
// on commit or rollback. Go has no implicit thread-local storage, so the
// thread-affinity the real contract requires is emulated here by keying the
// "current" binding off the calling goroutine's runtime id; this is a
// reference/test adapter, not a pattern to imitate in production code.
type TxManager struct {
	locks *LockService

	mu      sync.Mutex
	current map[int64]*localTx
	nextID  uint64
}

// NewTxManager returns a TxManager that releases locks against locks on
// commit/rollback.
func NewTxManager(locks *LockService) *TxManager {
	return &TxManager{locks: locks, current: make(map[int64]*localTx)}
}

// Begin implements txn.Manager.
func (m *TxManager) Begin(ctx context.Context) (txn.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gid := goroutineID()
	if _, ok := m.current[gid]; ok {
		return nil, fmt.Errorf("refimpl: goroutine %d already has a current transaction", gid)
	}
	m.nextID++
	tx := &localTx{id: m.nextID}
	m.current[gid] = tx
	return tx, nil
}

// Current implements txn.Manager.
func (m *TxManager) Current() (txn.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.current[goroutineID()]
	if !ok {
		return nil, false
	}
	return tx, true
}

// Suspend implements txn.Manager.
func (m *TxManager) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gid := goroutineID()
	if _, ok := m.current[gid]; !ok {
		return txn.ErrNotCurrent
	}
	delete(m.current, gid)
	return nil
}

// Resume implements txn.Manager.
func (m *TxManager) Resume(handle txn.Handle) error {
	tx, ok := handle.(*localTx)
	if !ok || tx == nil {
		return fmt.Errorf("refimpl: Resume called with an invalid handle")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	gid := goroutineID()
	if _, ok := m.current[gid]; ok {
		return fmt.Errorf("refimpl: goroutine %d already has a current transaction", gid)
	}
	m.current[gid] = tx
	return nil
}

// Commit implements txn.Manager, releasing every lock the current
// transaction accumulated.
func (m *TxManager) Commit() error {
	return m.finish(func(tx *localTx) { tx.committed = true })
}

// Rollback implements txn.Manager, releasing every lock the current
// transaction accumulated.
func (m *TxManager) Rollback() error {
	return m.finish(func(tx *localTx) { tx.rolledBack = true })
}

func (m *TxManager) finish(mark func(*localTx)) error {
	m.mu.Lock()
	gid := goroutineID()
	tx, ok := m.current[gid]
	if !ok {
		m.mu.Unlock()
		return txn.ErrNotCurrent
	}
	mark(tx)
	delete(m.current, gid)
	m.mu.Unlock()

	for _, h := range tx.held {
		m.locks.release(h.resource, h.mode)
	}
	return nil
}

// AddLock implements locking.Tracker, recording resource/mode against
// whatever transaction is current on the calling goroutine.
func (m *TxManager) AddLock(resource locking.Resource, mode locking.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.current[goroutineID()]; ok {
		tx.held = append(tx.held, heldLock{resource: resource, mode: mode})
	}
}

var (
	_ txn.Manager     = (*TxManager)(nil)
	_ locking.Tracker = (*TxManager)(nil)
)

// goroutineID extracts the calling goroutine's runtime id from the
// "goroutine N [...]" header runtime.Stack always produces as its first
// line. It is a best-effort identifier good enough to emulate thread
// affinity in this reference implementation; it is not exported and never
// used for anything beyond keying these maps.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return -1
	}
	id, _ := strconv.ParseInt(fields[1], 10, 64)
	return id
}
