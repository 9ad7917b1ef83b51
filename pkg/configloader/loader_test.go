package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hal177/quill"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_QUEUE_CAPACITY_BYTES", "524288")
	t.Setenv("APP_BACKEND_CPU_AFFINITY", "2")
	t.Setenv("APP_BACKEND_THREAD_NAME", "app-backend")
	t.Setenv("APP_BACKEND_SLEEP_MIN_NS", "10000")
	t.Setenv("APP_BACKEND_SLEEP_MAX_NS", "5000000")
	t.Setenv("APP_RECLAIM_EVERY_SWEEPS", "16")
	t.Setenv("APP_FULL_QUEUE_POLICY", "drop_and_count")
	t.Setenv("APP_FULL_QUEUE_RETRY_BACKOFF_MS", "5")

	cfg, err := FromEnv("app")
	require.NoError(t, err)

	require.Equal(t, 524288, cfg.QueueCapacityBytes)
	require.Equal(t, 2, cfg.BackendCPUAffinity)
	require.Equal(t, "app-backend", cfg.BackendThreadName)
	require.Equal(t, int64(10000), cfg.BackendSleepMinNs)
	require.Equal(t, int64(5000000), cfg.BackendSleepMaxNs)
	require.Equal(t, 16, cfg.ReclaimEverySweeps)
	require.Equal(t, quill.FullQueueDropAndCount, cfg.FullQueuePolicy)
	require.Equal(t, 5*time.Millisecond, cfg.FullQueueRetryBackoff)
}

func TestFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	configData := []byte(`
queue_capacity_bytes: 1048576
backend_drain_budget_bytes: 65536
backend_thread_name: file-backend
full_queue_policy: block_retry
`)

	err := os.WriteFile(configPath, configData, 0o600)
	require.NoError(t, err)

	t.Setenv("QUILL_BACKEND_THREAD_NAME", "env-backend")

	cfg, err := FromFile(configPath)
	require.NoError(t, err)

	require.Equal(t, 1048576, cfg.QueueCapacityBytes)
	require.Equal(t, 65536, cfg.BackendDrainBudgetBytes)
	require.Equal(t, "env-backend", cfg.BackendThreadName)
	require.Equal(t, quill.FullQueueBlockRetry, cfg.FullQueuePolicy)
}

func TestFromYAMLInvalidFullQueuePolicy(t *testing.T) {
	data := []byte(`
full_queue_policy: invalid
`)

	_, err := FromYAML(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "full_queue_policy")
}
