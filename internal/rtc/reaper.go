package rtc

import (
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/luxgraph/rtc/internal/session"
	"github.com/luxgraph/rtc/internal/txn"
)

// Reaper periodically sweeps the session registry and force-rolls-back
// sessions idle past the configured threshold (spec §4.2).
type Reaper struct {
	ctx      *Context
	interval time.Duration

	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	// inFlight holds the session keys a currently-running sweep has already
	// claimed for reclamation. A sweep that outruns the tick interval and
	// overlaps the next one must not race itself into reclaiming the same
	// key twice through two concurrent enter/leave pairs.
	mu       sync.Mutex
	inFlight mapset.Set[session.Key]
}

// NewReaper returns a Reaper that sweeps ctx's registry every interval.
func NewReaper(ctx *Context, interval time.Duration) *Reaper {
	return &Reaper{
		ctx:      ctx,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		inFlight: mapset.NewSet[session.Key](),
	}
}

// Start launches the sweep ticker goroutine. It must be called at most once.
func (r *Reaper) Start() {
	go r.run()
}

// Stop signals the ticker goroutine to exit and waits for it to do so.
func (r *Reaper) Stop() {
	r.once.Do(func() {
		close(r.stop)
	})
	<-r.done
}

func (r *Reaper) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep implements one Reaper tick (spec §4.2 steps 1-4).
func (r *Reaper) sweep() {
	if r.ctx.Metrics != nil {
		r.ctx.Metrics.ReaperSweeps.Inc()
	}

	thresholdMillis := r.ctx.ReadLockTimeout.Milliseconds()
	now := r.ctx.Clock.NowMillis()

	snapshot := r.ctx.Registry.Snapshot()
	if r.ctx.Metrics != nil {
		executing := 0
		for _, entry := range snapshot {
			if entry.Entry.State() == session.StateExecuting {
				executing++
			}
		}
		r.ctx.Metrics.SessionsActive.Set(float64(len(snapshot)))
		r.ctx.Metrics.SessionsExecuting.Set(float64(executing))
	}

	for _, entry := range snapshot {
		if entry.Entry.LastActivity == session.Executing {
			continue // spec invariant 3: never reap an executing session.
		}
		if now-entry.Entry.LastActivity < thresholdMillis {
			continue
		}
		r.reclaim(entry.Key, entry.Entry.LastActivity)
	}
}

func (r *Reaper) reclaim(key session.Key, lastActivity int64) {
	if !r.claim(key) {
		return
	}
	defer r.release(key)

	ctx := context.Background()
	bound, err := txn.Enter(ctx, r.ctx.Txn, r.ctx.Registry, r.ctx.Clock, key, false)
	if err != nil {
		// The session may have legitimately finished or resumed between the
		// snapshot read and this call; that is expected, not a bug (spec
		// §4.2 step 4: distinguish expected failure from unexpected).
		r.ctx.Log.Debug("reaper: session no longer reclaimable", "session", key, "err", err)
		return
	}

	age := time.Duration(r.ctx.Clock.NowMillis()-lastActivity) * time.Millisecond
	r.ctx.Log.Info("reaper: force-rolling-back idle session", "session", key, "idleFor", age)

	if err := bound.Release(txn.Rollback); err != nil {
		r.ctx.Log.Error("reaper: rollback of idle session failed", "session", key, "err", err)
		return
	}
	if r.ctx.Metrics != nil {
		r.ctx.Metrics.ReaperReclaimed.Inc()
	}
	r.ctx.Log.Info("reaper: reclaimed idle session", "session", key, "idleFor", age)
}

func (r *Reaper) claim(key session.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight.Contains(key) {
		return false
	}
	r.inFlight.Add(key)
	return true
}

func (r *Reaper) release(key session.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight.Remove(key)
}
