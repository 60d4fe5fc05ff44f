// Package rtcconfig loads the RTC process configuration (spec SPEC_FULL
// §4.9) from an optional config file, environment variables, and CLI flags,
// in increasing precedence, using viper.
package rtcconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the RTC process's runtime configuration.
type Config struct {
	// ClusterName identifies this HA cluster in log lines and metrics
	// labels. Bound to ha.cluster_name (spec §6).
	ClusterName string
	// ReadLockTimeout is the Reaper's reclamation threshold: a session idle
	// for at least this long is force-rolled-back. Bound to
	// ha.read_lock_timeout_seconds (spec §6), an integer number of seconds.
	// It has no default: an operator who never sets it gets a zero-value
	// Config that fails Validate, rather than a guessed threshold.
	ReadLockTimeout time.Duration
	// IdBatchSize is bound to master.id_batch_size (spec §6, default 1000)
	// and validated as positive. cmd/rtcd does not pass it on:
	// Facade.AllocateIds takes its batch size from the caller.
	IdBatchSize int
	// ReaperTickInterval is the period between Reaper sweeps. Bound to
	// master.reaper_tick_seconds (spec §6), an integer number of seconds
	// (default 5).
	ReaperTickInterval time.Duration
	// MetricsAddr is the listen address for the /metrics HTTP server
	// (empty disables it). Domain-stack addition, not part of spec §6's
	// ha.*/master.* surface.
	MetricsAddr string
}

const envPrefix = "RTC"

// Load builds a Config from, in increasing precedence: built-in defaults, an
// optional file at configPath (if non-empty), RTC_-prefixed environment
// variables, and any flags already parsed into flags. Passing a nil flags is
// valid for callers (tests, refimpl wiring) that only want file/env
// precedence.
//
// Keys follow spec §6's documented configuration interface exactly:
// ha.cluster_name, ha.read_lock_timeout_seconds, master.id_batch_size,
// master.reaper_tick_seconds. The two *_seconds keys are plain integers, not
// Go duration strings, so they are read with GetInt and converted explicitly
// rather than GetDuration (which would interpret a bare integer as
// nanoseconds).
func Load(configPath string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("master.id_batch_size", 1000)
	v.SetDefault("master.reaper_tick_seconds", 5)
	v.SetDefault("metricsaddr", "")
	v.SetDefault("ha.cluster_name", "")
	// No default for ha.read_lock_timeout_seconds: omitting it must fail
	// Validate, not silently pick a Reaper threshold.

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("rtcconfig: reading %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("rtcconfig: binding flags: %w", err)
		}
	}

	cfg := Config{
		ClusterName:        v.GetString("ha.cluster_name"),
		ReadLockTimeout:    time.Duration(v.GetInt("ha.read_lock_timeout_seconds")) * time.Second,
		IdBatchSize:        v.GetInt("master.id_batch_size"),
		ReaperTickInterval: time.Duration(v.GetInt("master.reaper_tick_seconds")) * time.Second,
		MetricsAddr:        v.GetString("metricsaddr"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would leave RTC in an unsafe default
// state.
func (c Config) Validate() error {
	if c.ReadLockTimeout <= 0 {
		return fmt.Errorf("rtcconfig: readlocktimeout must be set to a positive duration")
	}
	if c.IdBatchSize <= 0 {
		return fmt.Errorf("rtcconfig: idbatchsize must be positive, got %d", c.IdBatchSize)
	}
	if c.ReaperTickInterval <= 0 {
		return fmt.Errorf("rtcconfig: reapertickinterval must be positive, got %s", c.ReaperTickInterval)
	}
	return nil
}
