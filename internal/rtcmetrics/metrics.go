// Package rtcmetrics exposes the RTC subsystem's Prometheus metrics (spec
// SPEC_FULL §4.8). It wraps client_golang directly rather than carrying the
// teacher's secondary registry-adapter indirection (metrics/gatherer,
// metrics/prometheus in the teacher repo), which existed only to bridge a
// go-ethereum-style custom registry into Prometheus; RTC has no such custom
// registry to bridge, so there is nothing that second layer would adapt.
package rtcmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge/histogram the RTC facade and Reaper
// update. SessionsActive and SessionsExecuting are set from the registry
// snapshot each Reaper sweep takes.
type Metrics struct {
	SessionsActive    prometheus.Gauge
	SessionsExecuting prometheus.Gauge

	ReaperSweeps    prometheus.Counter
	ReaperReclaimed prometheus.Counter

	LockAcquireDuration *prometheus.HistogramVec // labels: kind, mode
	LockResults         *prometheus.CounterVec   // labels: result

	CommitDuration *prometheus.HistogramVec // labels: resource
}

// New registers and returns a Metrics bound to reg. Passing
// prometheus.NewRegistry() keeps RTC's metrics isolated from the process
// default registry, matching the teacher's pattern of threading an explicit
// registry through rather than relying on prometheus's global one.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rtc_sessions_active",
			Help: "Number of sessions currently tracked in the TxRegistry.",
		}),
		SessionsExecuting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rtc_sessions_executing",
			Help: "Number of sessions whose transaction is currently bound to an in-flight request.",
		}),
		ReaperSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtc_reaper_sweeps_total",
			Help: "Number of Reaper sweep ticks that have run.",
		}),
		ReaperReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtc_reaper_reclaimed_total",
			Help: "Number of sessions force-rolled-back by the Reaper.",
		}),
		LockAcquireDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "rtc_lock_acquire_duration_seconds",
			Help: "Time spent acquiring a lock, by resource kind and mode.",
		}, []string{"kind", "mode"}),
		LockResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtc_lock_results_total",
			Help: "Lock acquisition results, by outcome.",
		}, []string{"result"}),
		CommitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "rtc_commit_duration_seconds",
			Help: "Time spent applying a prepared single-resource commit, by resource name.",
		}, []string{"resource"}),
	}

	reg.MustRegister(
		m.SessionsActive,
		m.SessionsExecuting,
		m.ReaperSweeps,
		m.ReaperReclaimed,
		m.LockAcquireDuration,
		m.LockResults,
		m.CommitDuration,
	)
	return m
}
