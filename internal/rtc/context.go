// Package rtc is the Remote Transaction Controller Facade: the entry point
// implementing the master-side operation surface (spec §6) over the
// collaborators bundled in Context (spec §9, "Global singletons" — no
// package-level mutable state, everything flows through this value).
package rtc

import (
	"fmt"
	"time"

	"github.com/luxgraph/rtc/internal/datasource"
	"github.com/luxgraph/rtc/internal/idalloc"
	"github.com/luxgraph/rtc/internal/locking"
	"github.com/luxgraph/rtc/internal/reltype"
	"github.com/luxgraph/rtc/internal/response"
	"github.com/luxgraph/rtc/internal/rtcclock"
	"github.com/luxgraph/rtc/internal/rtcmetrics"
	"github.com/luxgraph/rtc/internal/session"
	"github.com/luxgraph/rtc/internal/txn"
	rtclog "github.com/luxgraph/rtc/log"
)

// Context is the explicit dependency bag threaded into the Facade and the
// Reaper. cmd/rtcd is the only place that constructs one; every other
// package accepts it as a parameter (spec §9).
type Context struct {
	Clock    rtcclock.Clock
	Registry *session.Registry
	Txn      txn.Manager
	Locks    locking.Service
	Tracker  locking.Tracker
	Sources  datasource.Set
	Copier   datasource.Copier
	Ids      idalloc.Allocator
	Types    *reltype.Registry
	Packer   *response.Packer
	Metrics  *rtcmetrics.Metrics
	Log      rtclog.Logger

	// ReadLockTimeout is the Reaper's reclamation threshold (spec §4.2); it
	// must be strictly greater than the slowest legitimate request
	// round-trip.
	ReadLockTimeout time.Duration
}

// Validate checks that every required collaborator is present. cmd/rtcd
// calls this once at startup rather than letting a nil collaborator panic
// deep inside the first request that touches it.
func (c *Context) Validate() error {
	switch {
	case c.Clock == nil:
		return fmt.Errorf("rtc: Context.Clock is nil")
	case c.Registry == nil:
		return fmt.Errorf("rtc: Context.Registry is nil")
	case c.Txn == nil:
		return fmt.Errorf("rtc: Context.Txn is nil")
	case c.Locks == nil:
		return fmt.Errorf("rtc: Context.Locks is nil")
	case c.Tracker == nil:
		return fmt.Errorf("rtc: Context.Tracker is nil")
	case c.Sources == nil:
		return fmt.Errorf("rtc: Context.Sources is nil")
	case c.Copier == nil:
		return fmt.Errorf("rtc: Context.Copier is nil")
	case c.Ids == nil:
		return fmt.Errorf("rtc: Context.Ids is nil")
	case c.Types == nil:
		return fmt.Errorf("rtc: Context.Types is nil")
	case c.Packer == nil:
		return fmt.Errorf("rtc: Context.Packer is nil")
	case c.Metrics == nil:
		return fmt.Errorf("rtc: Context.Metrics is nil")
	case c.Log == nil:
		return fmt.Errorf("rtc: Context.Log is nil")
	case c.ReadLockTimeout <= 0:
		return fmt.Errorf("rtc: Context.ReadLockTimeout must be positive")
	}
	return nil
}

// resourcesFor returns the deduplicated resource names the response packer
// should build a commit tail over for key: every resource the session
// already has a watermark for, plus extra (typically the resource a commit
// just landed against), so a never-before-seen resource still gets its
// first tail segment packed.
func resourcesFor(key session.Key, extra ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, w := range key.Watermarks() {
		add(w.Resource)
	}
	for _, name := range extra {
		add(name)
	}
	return out
}
