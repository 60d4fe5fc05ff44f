package refimpl

import (
	"context"
	"sync"

	"github.com/luxgraph/rtc/internal/locking"
)

// LockService is an in-memory LockService reference implementation (spec
// §2, "LockService (external)"). It serializes access per Resource with a
// plain RWMutex and never detects deadlocks — real deadlock detection is
// genuinely out of scope for a reference adapter; RTC's own deadlock and
// illegal-resource handling (internal/locking.Acquire) is exercised against
// stub Services in internal/locking's and internal/rtc's tests instead.
type LockService struct {
	mu    sync.Mutex
	locks map[locking.Resource]*sync.RWMutex
}

// NewLockService returns an empty LockService.
func NewLockService() *LockService {
	return &LockService{locks: make(map[locking.Resource]*sync.RWMutex)}
}

func (s *LockService) get(resource locking.Resource) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	rw, ok := s.locks[resource]
	if !ok {
		rw = &sync.RWMutex{}
		s.locks[resource] = rw
	}
	return rw
}

// AcquireRead implements locking.Service.
func (s *LockService) AcquireRead(ctx context.Context, resource locking.Resource) error {
	s.get(resource).RLock()
	return nil
}

// AcquireWrite implements locking.Service.
func (s *LockService) AcquireWrite(ctx context.Context, resource locking.Resource) error {
	s.get(resource).Lock()
	return nil
}

func (s *LockService) release(resource locking.Resource, mode locking.Mode) {
	rw := s.get(resource)
	if mode == locking.Write {
		rw.Unlock()
		return
	}
	rw.RUnlock()
}

var _ locking.Service = (*LockService)(nil)
