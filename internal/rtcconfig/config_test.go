package rtcconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFailsClosedWithoutReadLockTimeout(t *testing.T) {
	_, err := Load("", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "readlocktimeout")
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rtc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ha:\n  read_lock_timeout_seconds: 30\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.ReadLockTimeout)
	require.Equal(t, 1000, cfg.IdBatchSize)
	require.Equal(t, 5*time.Second, cfg.ReaperTickInterval)
	require.Equal(t, "", cfg.MetricsAddr)
}

func TestLoadRejectsNonPositiveIdBatchSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rtc.yaml")
	content := "ha:\n  read_lock_timeout_seconds: 30\nmaster:\n  id_batch_size: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "idbatchsize")
}

func TestLoadReadsFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rtc.yaml")
	content := "ha:\n  cluster_name: prod-graph\n  read_lock_timeout_seconds: 45\nmaster:\n  id_batch_size: 500\n  reaper_tick_seconds: 10\nmetricsaddr: \":9191\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "prod-graph", cfg.ClusterName)
	require.Equal(t, 45*time.Second, cfg.ReadLockTimeout)
	require.Equal(t, int(500), cfg.IdBatchSize)
	require.Equal(t, 10*time.Second, cfg.ReaperTickInterval)
	require.Equal(t, ":9191", cfg.MetricsAddr)
}
